package imap

import (
	"context"
	"encoding/base64"
	"fmt"
)

// SaslMechanism drives one SASL mechanism's challenge/response exchange
// (component H). Concrete mechanisms live in internal/saslmech, adapted
// from github.com/emersion/go-sasl; this package only knows how to frame
// whatever bytes a mechanism produces onto the AUTHENTICATE continuation
// line protocol (RFC 3501 §6.2.2).
type SaslMechanism interface {
	Name() string
	Start(ctx context.Context) (initialResponse []byte, err error)
	Next(ctx context.Context, challenge []byte) (response []byte, err error)
}

// Authenticate runs the AUTHENTICATE command for mech to completion.
func (eng *Engine) Authenticate(ctx context.Context, mech SaslMechanism) error {
	initial, err := mech.Start(ctx)
	if err != nil {
		return authErr("authenticate", err)
	}

	format := "AUTHENTICATE %s"
	args := []any{mech.Name()}
	if initial != nil && eng.HasCapability("SASL-IR") {
		format += " %s"
		args = append(args, encodeSaslLine(initial))
		initial = nil
	}

	cmd, err := eng.NewCommand("AUTHENTICATE", format, args...)
	if err != nil {
		return authErr("authenticate", err)
	}

	firstChallengeSent := initial == nil
	cmd.ContinuationHandler = func(eng *Engine, text string) error {
		var challenge []byte
		if text != "" {
			decoded, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return authErr("authenticate", err)
			}
			challenge = decoded
		}

		var resp []byte
		if !firstChallengeSent {
			resp = initial
			firstChallengeSent = true
		} else {
			resp, err = mech.Next(ctx, challenge)
			if err != nil {
				return authErr("authenticate", err)
			}
		}

		line := encodeSaslLine(resp) + "\r\n"
		if _, err := eng.stream.Write([]byte(line)); err != nil {
			return ioErr("authenticate", err)
		}
		return eng.stream.Flush()
	}

	if err := eng.Do(ctx, cmd); err != nil {
		return err
	}

	eng.mu.Lock()
	eng.state = ConnAuthenticated
	eng.mu.Unlock()
	return nil
}

// AuthenticateAny tries each candidate mechanism in order, skipping any the
// server did not advertise via AUTH=<name>, and stops at the first success.
// If every candidate was skipped or failed, it falls back to plaintext LOGIN
// unless the server advertised LOGINDISABLED.
func (eng *Engine) AuthenticateAny(ctx context.Context, candidates []SaslMechanism, username, password string) error {
	var lastErr error
	for _, mech := range candidates {
		if !eng.HasAuthMechanism(mech.Name()) {
			continue
		}
		if err := eng.Authenticate(ctx, mech); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if eng.HasCapability("LOGINDISABLED") {
		if lastErr != nil {
			return lastErr
		}
		return authErr("authenticate", fmt.Errorf("no advertised SASL mechanism and LOGIN is disabled"))
	}
	return eng.Login(ctx, username, password)
}

func encodeSaslLine(b []byte) string {
	if len(b) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(b)
}
