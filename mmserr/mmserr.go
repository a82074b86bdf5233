// Package mmserr classifies engine errors into the fixed set of
// categories the task base and dispatcher switch on, by wrapping a
// cause in a small type that satisfies one of the marker interfaces
// github.com/containerd/errdefs checks for (ground: moby-moby's
// daemon/internal/errdefs wrapper, which does the same over the same
// dependency).
package mmserr

import cerrdefs "github.com/containerd/errdefs"

type wrapped struct {
	cause error
	kind  string
}

func (w *wrapped) Error() string { return w.kind + ": " + w.cause.Error() }
func (w *wrapped) Unwrap() error { return w.cause }

type invalidArgument struct{ *wrapped }

func (invalidArgument) InvalidArgument() bool { return true }

type failedPrecondition struct{ *wrapped }

func (failedPrecondition) FailedPrecondition() bool { return true }

type unavailable struct{ *wrapped }

func (unavailable) Unavailable() bool { return true }

type aborted struct{ *wrapped }

func (aborted) Aborted() bool { return true }

type notFound struct{ *wrapped }

func (notFound) NotFound() bool { return true }

// Invalid wraps err as a malformed-input failure (bad PDU bytes).
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return invalidArgument{&wrapped{cause: err, kind: "invalid"}}
}

// FailedPrecondition wraps err as an encode-time or size-limit failure.
func FailedPrecondition(err error) error {
	if err == nil {
		return nil
	}
	return failedPrecondition{&wrapped{cause: err, kind: "failed-precondition"}}
}

// Unavailable wraps err as a transport failure that is worth retrying.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return unavailable{&wrapped{cause: err, kind: "unavailable"}}
}

// Aborted wraps err as a cancellation or deadline expiry.
func Aborted(err error) error {
	if err == nil {
		return nil
	}
	return aborted{&wrapped{cause: err, kind: "aborted"}}
}

// NotFound wraps err as a missing-resource failure (e.g. no SIM).
func NotFound(err error) error {
	if err == nil {
		return nil
	}
	return notFound{&wrapped{cause: err, kind: "not-found"}}
}

// Retryable reports whether a task should retry err subject to its
// deadline, rather than fail immediately.
func Retryable(err error) bool {
	return cerrdefs.IsUnavailable(err)
}

// IsInvalid reports whether err denotes a malformed PDU.
func IsInvalid(err error) bool { return cerrdefs.IsInvalidArgument(err) }

// IsAborted reports whether err denotes cancellation or expiry.
func IsAborted(err error) bool { return cerrdefs.IsAborted(err) }

// IsNotFound reports whether err denotes a missing resource.
func IsNotFound(err error) bool { return cerrdefs.IsNotFound(err) }
