package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the call surface reports.
type Kind int

const (
	KindUnknown Kind = iota
	KindResolutionFailed
	KindMediaUnavailable
	KindConnectionLost
	KindTimeout
	KindSessionBusy
	KindPeerError
)

func (k Kind) String() string {
	switch k {
	case KindResolutionFailed:
		return "resolution_failed"
	case KindMediaUnavailable:
		return "media_unavailable"
	case KindConnectionLost:
		return "connection_lost"
	case KindTimeout:
		return "timeout"
	case KindSessionBusy:
		return "session_busy"
	case KindPeerError:
		return "peer_error"
	default:
		return "unknown"
	}
}

var (
	ErrResolutionFailed = &Error{Kind: KindResolutionFailed}
	ErrMediaUnavailable = &Error{Kind: KindMediaUnavailable}
	ErrConnectionLost   = &Error{Kind: KindConnectionLost}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrSessionBusy      = &Error{Kind: KindSessionBusy}
	ErrPeerError        = &Error{Kind: KindPeerError}
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind when target carries no Op or cause,
// so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// Wrap classifies err under kind. An err that already carries a Kind keeps it.
func Wrap(kind Kind, op string, err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
