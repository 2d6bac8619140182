package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"
)

// DialOptions configures how Connect reaches the server (component I).
// Grounded on the teacher's dialUpstream (internal/proxy/upstream.go),
// generalized from "relay a fixed account config" into a reusable dial
// helper any caller can parameterize.
type DialOptions struct {
	Host string
	Port int

	TLS         bool // connect straight into TLS (the "ssl" profile security mode)
	StartTLS    bool // negotiate STARTTLS after the plaintext greeting
	TLSConfig   *tls.Config
	DialTimeout time.Duration

	Logger ProtocolLogger
}

// Connect dials the server, performs STARTTLS if requested, reads and
// validates the greeting, and returns a ready-to-use Engine. This is the
// single largest piece of teacher code carried into this package: the
// three-way dial switch and the greeting validation are
// dialUpstream's shape, rebuilt against byteStream/Tokenizer instead of a
// bare bufio.Reader.
func Connect(ctx context.Context, opts DialOptions) (*Engine, error) {
	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))
	dialer := &net.Dialer{Timeout: opts.DialTimeout}

	tlsConfig := opts.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: opts.Host}
	}

	var conn net.Conn
	var err error
	var greeting string
	var state ConnState
	var codes []RespCode

	switch {
	case opts.TLS:
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, tlsErr("connect", err)
		}
	case opts.StartTLS:
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, ioErr("connect", err)
		}
		conn, greeting, state, codes, err = negotiateStartTLS(conn, tlsConfig)
		if err != nil {
			return nil, err
		}
	default:
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, ioErr("connect", err)
		}
	}

	eng := NewEngine(conn, opts.Logger)
	if !opts.StartTLS {
		greeting, state, codes, err = eng.readGreeting()
		if err != nil {
			conn.Close()
			return nil, err
		}
	}
	eng.mu.Lock()
	eng.state = state
	eng.quirks = detectQuirks(greeting)
	eng.mu.Unlock()
	for _, rc := range codes {
		if rc.Kind == RCCapability {
			eng.mergeCapabilities(rc.Capabilities)
		}
	}
	return eng, nil
}

// negotiateStartTLS sends STARTTLS over a plaintext connection, reading the
// initial greeting itself (the upgraded TLS connection gets no second
// greeting from a compliant server). Grounded on the teacher's dialUpstream
// "case acct.RemoteStartTLS" branch.
func negotiateStartTLS(conn net.Conn, tlsConfig *tls.Config) (net.Conn, string, ConnState, []RespCode, error) {
	stream := newByteStream(conn)
	tz := newTokenizer(stream, newTokenCache(tokenCacheCapacity))

	greeting, state, codes, err := readGreetingLine(tz)
	if err != nil {
		conn.Close()
		return nil, "", 0, nil, err
	}

	if _, err := stream.Write([]byte("S01 STARTTLS\r\n")); err != nil {
		conn.Close()
		return nil, "", 0, nil, ioErr("starttls", err)
	}
	if err := stream.Flush(); err != nil {
		conn.Close()
		return nil, "", 0, nil, ioErr("starttls", err)
	}

	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			conn.Close()
			return nil, "", 0, nil, ioErr("starttls", err)
		}
		if tok.Kind == TokAtom && tok.Text == "S01" {
			status, _, err := readStatusLine(tz)
			if err != nil {
				conn.Close()
				return nil, "", 0, nil, err
			}
			if status != StatusOK {
				conn.Close()
				return nil, "", 0, nil, protocolErr("starttls", "server rejected STARTTLS", nil)
			}
			break
		}
		if tok.Kind == TokAsterisk {
			if err := discardUntaggedLine(tz); err != nil {
				conn.Close()
				return nil, "", 0, nil, err
			}
			continue
		}
		conn.Close()
		return nil, "", 0, nil, protocolErr("starttls", tok.String(), nil)
	}

	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		tlsConn.Close()
		return nil, "", 0, nil, tlsErr("starttls handshake", err)
	}
	return tlsConn, greeting, state, codes, nil
}

func discardUntaggedLine(tz *Tokenizer) error {
	for {
		tok, err := tz.ReadToken(SpecialsDefault)
		if err != nil {
			return ioErr("read", err)
		}
		if tok.Kind == TokEoln {
			return nil
		}
		if tok.Kind == TokLiteral {
			if _, err := tz.ReadLiteralBody(tok); err != nil {
				return ioErr("read", err)
			}
		}
	}
}

func readStatusLine(tz *Tokenizer) (Status, string, error) {
	tok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return 0, "", ioErr("read", err)
	}
	status, ok := parseStatusAtom(tok.Text)
	if !ok {
		return 0, "", protocolErr("read status", tok.Text, nil)
	}
	text, err := readRestOfLineText(tz)
	if err != nil {
		return 0, "", ioErr("read", err)
	}
	return status, text, nil
}

// readGreetingLine parses "* OK ..." / "* PREAUTH ..." / "* BYE ...",
// returning the free-text tail and resulting ConnState.
func readGreetingLine(tz *Tokenizer) (string, ConnState, []RespCode, error) {
	star, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return "", 0, nil, ioErr("read greeting", err)
	}
	if star.Kind != TokAsterisk {
		return "", 0, nil, protocolErr("read greeting", star.String(), nil)
	}
	verbTok, err := tz.ReadToken(SpecialsDefault)
	if err != nil {
		return "", 0, nil, ioErr("read greeting", err)
	}
	verb := strings.ToUpper(verbTok.Text)

	var codes []RespCode
	peek, err := tz.PeekToken(SpecialsDefault)
	if err != nil {
		return "", 0, nil, ioErr("read greeting", err)
	}
	if peek.Kind == TokOpenBracket {
		_, _ = tz.ReadToken(SpecialsDefault)
		rc, err := parseRespCode(tz)
		if err != nil {
			return "", 0, nil, err
		}
		codes = append(codes, rc)
	}
	text, err := readRestOfLineText(tz)
	if err != nil {
		return "", 0, nil, ioErr("read greeting", err)
	}

	switch verb {
	case "OK":
		return text, ConnNotAuthenticated, codes, nil
	case "PREAUTH":
		return text, ConnAuthenticated, codes, nil
	case "BYE":
		return text, ConnLogout, codes, protocolErr("read greeting", "server sent BYE: "+text, nil)
	default:
		return "", 0, nil, protocolErr("read greeting", verb, nil)
	}
}

func (eng *Engine) readGreeting() (string, ConnState, []RespCode, error) {
	text, state, codes, err := readGreetingLine(eng.tz)
	if err != nil {
		return "", 0, nil, err
	}
	return text, state, codes, nil
}

// Login authenticates with a plaintext LOGIN command — the fallback when
// no SASL mechanism is available or desired. Grounded on the teacher's
// LoginUpstream, generalized from one hardcoded tag to the engine's tag
// counter and from string concatenation to the %s formatter.
func (eng *Engine) Login(ctx context.Context, username, password string) error {
	cmd, err := eng.NewCommand("LOGIN", "LOGIN %s %s", username, password)
	if err != nil {
		return err
	}
	if err := eng.Do(ctx, cmd); err != nil {
		return err
	}
	eng.mu.Lock()
	eng.state = ConnAuthenticated
	eng.mu.Unlock()
	return nil
}

// Logout sends LOGOUT and closes the underlying connection regardless of
// the server's response, matching the teacher's defer-Close-on-session-end
// discipline in proxy.Session.Run.
func (eng *Engine) Logout(ctx context.Context) error {
	cmd, err := eng.NewCommand("LOGOUT", "LOGOUT")
	if err != nil {
		return err
	}
	doErr := eng.Do(ctx, cmd)
	eng.mu.Lock()
	eng.state = ConnLogout
	eng.mu.Unlock()
	closeErr := eng.stream.Close()
	if doErr != nil {
		return doErr
	}
	if closeErr != nil {
		return ioErr("logout", closeErr)
	}
	return nil
}

// Close closes the underlying connection without sending LOGOUT, for abrupt
// teardown (e.g. a cancelled context or a broken pipe already observed).
func (eng *Engine) Close() error {
	return eng.stream.Close()
}
