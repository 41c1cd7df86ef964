// Package termerr defines the typed error kinds returned at the core
// boundary (registry and shared session), so bridges can translate them
// to transport-specific responses without string matching.
package termerr

import "fmt"

// Kind classifies a core-boundary error.
type Kind int

const (
	KindInvalidName Kind = iota
	KindAlreadyExists
	KindNotFound
	KindDead
	KindSpawnFailed
	KindWriteFailed
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidName:
		return "invalid_name"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindDead:
		return "dead"
	case KindSpawnFailed:
		return "spawn_failed"
	case KindWriteFailed:
		return "write_failed"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by the registry and shared
// session. Callers use Is/As or KindOf to branch on Kind.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

func InvalidName(name string) error {
	return &Error{Kind: KindInvalidName, Msg: fmt.Sprintf("invalid session name: %s", name)}
}

func AlreadyExists(name string) error {
	return &Error{Kind: KindAlreadyExists, Msg: fmt.Sprintf("session already exists: %s", name)}
}

func NotFound(name string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("session not found: %s", name)}
}

func Dead(name string) error {
	return &Error{Kind: KindDead, Msg: fmt.Sprintf("session is dead: %s", name)}
}

func SpawnFailed(cause error) error {
	return &Error{Kind: KindSpawnFailed, Msg: "PTY spawn failed", Cause: cause}
}

func WriteFailed(cause error) error {
	return &Error{Kind: KindWriteFailed, Msg: "PTY write failed", Cause: cause}
}

func Internal(msg string) error {
	return &Error{Kind: KindInternal, Msg: msg}
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=true.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if asError(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// asError is a small local errors.As to avoid importing "errors" just for
// this one call site in callers that already do their own unwrapping.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
