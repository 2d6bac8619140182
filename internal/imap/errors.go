package imap

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind classifies an engine error per the taxonomy the engine commits to:
// Io and Tls are always fatal to the connection, Protocol is fatal and
// always carries the offending token, Command/Authentication/NotSupported/
// InvalidState/FolderNotFound/Cancelled/Argument leave the connection usable.
type Kind int

const (
	KindIO Kind = iota
	KindTLS
	KindProtocol
	KindCommand
	KindAuthentication
	KindNotSupported
	KindInvalidState
	KindFolderNotFound
	KindCancelled
	KindArgument
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindTLS:
		return "Tls"
	case KindProtocol:
		return "Protocol"
	case KindCommand:
		return "Command"
	case KindAuthentication:
		return "Authentication"
	case KindNotSupported:
		return "NotSupported"
	case KindInvalidState:
		return "InvalidState"
	case KindFolderNotFound:
		return "FolderNotFound"
	case KindCancelled:
		return "Cancelled"
	case KindArgument:
		return "Argument"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every exported engine
// operation. Callers use errors.As with a *imap.Error target and Error.Kind to
// branch on the taxonomy from spec §7.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "connect", "run", "starttls"
	err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("imap: %s: %s: %v", e.Op, e.Kind, e.err)
	}
	return fmt.Sprintf("imap: %s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// newErr builds a plain wrapped error (fmt.Errorf idiom), used for the
// taxonomy members that do not need a captured stack trace.
func newErr(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, err: fmt.Errorf(format, args...)}
}

// newStackErr builds a stack-carrying error via eris, used for Protocol and
// Tls errors, which are the ones an operator most often needs to debug
// after the fact (a desynced tokenizer or a rejected certificate chain).
func newStackErr(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, err: eris.Wrap(eris.Errorf(format, args...), op)}
}

func ioErr(op string, cause error) *Error {
	return &Error{Kind: KindIO, Op: op, err: fmt.Errorf("%s: %w", op, cause)}
}

func tlsErr(op string, cause error) *Error {
	return &Error{Kind: KindTLS, Op: op, err: eris.Wrap(cause, op)}
}

func protocolErr(op string, token string, cause error) *Error {
	if cause == nil {
		return &Error{Kind: KindProtocol, Op: op, err: eris.Wrap(eris.Errorf("unexpected token %q", token), op)}
	}
	return &Error{Kind: KindProtocol, Op: op, err: eris.Wrap(cause, fmt.Sprintf("%s: token %q", op, token))}
}

// CommandError carries a server-rejected command: tagged NO or BAD, plus
// whatever response codes and human text arrived with it.
type CommandError struct {
	Command   string
	Status    Status
	RespCodes []RespCode
	Text      string
}

func (e *CommandError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("imap: %s: %s: %s", e.Command, e.Status, e.Text)
	}
	return fmt.Sprintf("imap: %s: %s", e.Command, e.Status)
}

func commandErr(cmdName string, status Status, codes []RespCode, text string) *Error {
	return &Error{
		Kind: KindCommand,
		Op:   cmdName,
		err: &CommandError{
			Command:   cmdName,
			Status:    status,
			RespCodes: codes,
			Text:      text,
		},
	}
}

func authErr(op string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Op: op, err: fmt.Errorf("%s: %w", op, cause)}
}

func notSupportedErr(capability string) *Error {
	return newErr(KindNotSupported, capability, "server does not advertise %s", capability)
}

func invalidStateErr(op string, state ConnState) *Error {
	return newErr(KindInvalidState, op, "operation %q not legal in state %s", op, state)
}

func folderNotFoundErr(name string) *Error {
	return newErr(KindFolderNotFound, "lookup", "folder %q not found", name)
}

func cancelledErr(op string) *Error {
	return newErr(KindCancelled, op, "%s: cancelled", op)
}

func argErr(op string, format string, args ...any) *Error {
	return newErr(KindArgument, op, format, args...)
}

// ErrBusyState is returned when a caller attempts to drive a command on an
// engine that already has one active.
var ErrBusyState = &Error{Kind: KindInvalidState, Op: "run", err: fmt.Errorf("engine is busy with another command")}
