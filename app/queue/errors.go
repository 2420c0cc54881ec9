package queue

import (
	"errors"
	"fmt"
)

// ErrorKind tags adapter failures so callers can branch without inspecting
// the underlying client's error types.
type ErrorKind int

const (
	// KindRuntime wraps a failure reported by the underlying client.
	KindRuntime ErrorKind = iota
	// KindConfiguration marks operations on a queue the adapter does not track.
	KindConfiguration
	// KindInvalidArgument marks malformed caller input.
	KindInvalidArgument
	// KindNotAvailable marks operations this adapter variant cannot perform.
	KindNotAvailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindConfiguration:
		return "configuration"
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotAvailable:
		return "not available"
	default:
		return "unknown"
	}
}

// Error is the single error type the adapter returns. Err preserves the
// originating client error, when there is one, for errors.Is/As chains.
type Error struct {
	Kind  ErrorKind
	Op    string
	Queue string
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("queue %s: %s error", e.Op, e.Kind)
	if e.Queue != "" {
		msg += fmt.Sprintf(" (queue %q)", e.Queue)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasKind reports whether err is an adapter error of the given kind.
func HasKind(err error, kind ErrorKind) bool {
	var qerr *Error
	return errors.As(err, &qerr) && qerr.Kind == kind
}
