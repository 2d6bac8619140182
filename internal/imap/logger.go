package imap

import "log/slog"

// ProtocolLogger observes command/response traffic without being on the
// critical path of parsing it (spec §4.Z). Grounded on the teacher's
// *slog.Logger field threaded through proxy.Session; generalized here into
// an interface so a caller can swap in a no-op or a wire-dump logger for
// tests.
type ProtocolLogger interface {
	LogCommand(tag, name string)
	LogUntagged(verb string)
	LogTagged(tag string, status Status)
	LogError(op string, err error)
}

// slogProtocolLogger is the default ProtocolLogger, backed by log/slog the
// way the teacher's cmd/imap-proxy/main.go configures its root logger.
type slogProtocolLogger struct {
	log *slog.Logger
}

// NewSlogProtocolLogger adapts an existing *slog.Logger into a ProtocolLogger.
func NewSlogProtocolLogger(log *slog.Logger) ProtocolLogger {
	return &slogProtocolLogger{log: log}
}

func (l *slogProtocolLogger) LogCommand(tag, name string) {
	l.log.Debug("imap: sending command", "tag", tag, "name", name)
}

func (l *slogProtocolLogger) LogUntagged(verb string) {
	l.log.Debug("imap: untagged response", "verb", verb)
}

func (l *slogProtocolLogger) LogTagged(tag string, status Status) {
	l.log.Debug("imap: tagged response", "tag", tag, "status", status.String())
}

func (l *slogProtocolLogger) LogError(op string, err error) {
	l.log.Error("imap: error", "op", op, "err", err)
}

// NoopProtocolLogger discards everything; useful in tests that don't care
// about the trace.
type NoopProtocolLogger struct{}

func (NoopProtocolLogger) LogCommand(tag, name string)         {}
func (NoopProtocolLogger) LogUntagged(verb string)             {}
func (NoopProtocolLogger) LogTagged(tag string, status Status) {}
func (NoopProtocolLogger) LogError(op string, err error)       {}
