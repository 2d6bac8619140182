package main

import (
	"context"
	"crypto/tls"
	"fmt"

	"imap-engine/internal/config"
	"imap-engine/internal/imap"
	"imap-engine/internal/saslmech"
)

// dial connects, negotiates TLS per the profile's security setting,
// authenticates, and returns a ready-to-use engine.
func dial(ctx context.Context, a *cliApp) (*imap.Engine, *config.Profile, error) {
	cfg, err := config.Load(*a.configPath)
	if err != nil {
		return nil, nil, err
	}
	profile := cfg.LookupProfile(*a.profileName)
	if profile == nil {
		return nil, nil, fmt.Errorf("imapctl: unknown profile %q", *a.profileName)
	}

	opts := imap.DialOptions{
		Host:   profile.Host,
		Port:   profile.Port,
		Logger: imap.NewSlogProtocolLogger(a.logger),
	}
	switch profile.Security {
	case config.SecuritySSL:
		opts.TLS = true
	case config.SecurityStartTLS:
		opts.StartTLS = true
	case config.SecurityStartTLSWhenAvailable:
		opts.StartTLS = true
	case config.SecurityNone:
		// plaintext, as configured
	default:
		opts.TLS = true
	}
	if opts.TLS || opts.StartTLS {
		opts.TLSConfig = &tls.Config{ServerName: profile.Host}
	}

	eng, err := imap.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	candidates := []imap.SaslMechanism{
		saslmech.CramMD5(profile.Username, profile.Password),
		saslmech.Plain("", profile.Username, profile.Password),
		saslmech.Login(profile.Username, profile.Password),
	}
	if err := eng.AuthenticateAny(ctx, candidates, profile.Username, profile.Password); err != nil {
		eng.Close()
		return nil, nil, err
	}
	return eng, profile, nil
}
