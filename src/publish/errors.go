package publish

import "fmt"

// Class buckets publish failures by how the pipeline reacts to them.
type Class int

const (
	// ClassTransient covers network errors and rate limiting.
	// Retried with bounded backoff.
	ClassTransient Class = iota

	// ClassAuth covers missing, rejected, or expired credentials.
	// Fatal to the job, never retried, surfaced distinctly.
	ClassAuth

	// ClassPermanent covers everything the endpoint will keep
	// rejecting: malformed artifacts, bad coordinates. Never retried.
	ClassPermanent
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassAuth:
		return "auth"
	default:
		return "permanent"
	}
}

// Error is a classified publish failure.
type Error struct {
	Class  Class
	Status int // HTTP status, 0 for network-level failures
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %v", e.Class, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a failure is worth another attempt.
// Unclassified errors are treated as permanent — only failures the
// endpoint explicitly marked transient get retried.
func Retryable(err error) bool {
	if pe, ok := err.(*Error); ok {
		return pe.Class == ClassTransient
	}
	return false
}

func transientErr(status int, err error) *Error {
	return &Error{Class: ClassTransient, Status: status, Err: err}
}

func authErr(status int, err error) *Error {
	return &Error{Class: ClassAuth, Status: status, Err: err}
}

func permanentErr(status int, err error) *Error {
	return &Error{Class: ClassPermanent, Status: status, Err: err}
}
