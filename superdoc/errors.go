package superdoc

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by its underlying cause.
type Kind int

const (
	// KindConfiguration means the runtime script or its dependencies could
	// not be located. Fatal; never retried.
	KindConfiguration Kind = iota + 1
	// KindStartup means the runtime process failed to become healthy within
	// the start timeout, or exited while starting. The captured process
	// output is included in the message.
	KindStartup
	// KindCrashLoop means the restart ceiling was exceeded. The supervisor
	// refuses further restarts until it is replaced.
	KindCrashLoop
	// KindConnection means a transport failure after the runtime was
	// believed healthy. The cached endpoint is invalidated and the next
	// call re-resolves through the supervisor.
	KindConnection
	// KindApplication means the runtime answered with an explicit error,
	// e.g. a malformed document or a call in the wrong session state.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindStartup:
		return "startup"
	case KindCrashLoop:
		return "crash loop"
	case KindConnection:
		return "connection"
	case KindApplication:
		return "application"
	}
	return "unknown"
}

// Error is the single error type surfaced by this package. All failures
// carry a Kind distinguishing their cause; use errors.As or IsKind to
// inspect it.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("superdoc: %s: %s: %s", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("superdoc: %s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// IsKind reports whether err is a superdoc Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}
