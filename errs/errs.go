// Package errs defines the typed error taxonomy shared by every layer of
// v4pipe, from raw ioctl failures up through the pipeline registry.
package errs

import "fmt"

// Kind classifies the semantic reason an operation failed, independent of
// the underlying syscall errno or library error that triggered it.
type Kind int

const (
	// Init means a precondition for the operation was not met (pipeline
	// not started, container not initialized).
	Init Kind = iota
	// Params means a caller-visible argument was invalid or referred to a
	// missing entity (pipeline not found, listener not found, missing
	// compare callback).
	Params
	// IO means a kernel call failed, a file descriptor could not be
	// created, or the self-pipe could not be written.
	IO
	// Memory means the kernel returned fewer buffers than requested, or a
	// memory mapping failed.
	Memory
	// Capture means STREAMON/STREAMOFF failed.
	Capture
	// Timeout means AwaitData hit its deadline in NonBlockingWithTimeout
	// mode. The pipeline treats this as a retry signal, not a failure.
	Timeout
	// UnknownDevice means the device path does not exist.
	UnknownDevice
	// BadCaps means requestedCaps is not a subset of the device's
	// capabilities.
	BadCaps
	// Lock means a mutex operation failed at the OS level.
	Lock
)

func (k Kind) String() string {
	switch k {
	case Init:
		return "init"
	case Params:
		return "params"
	case IO:
		return "io"
	case Memory:
		return "memory"
	case Capture:
		return "capture"
	case Timeout:
		return "timeout"
	case UnknownDevice:
		return "unknown_device"
	case BadCaps:
		return "bad_caps"
	case Lock:
		return "lock"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across package boundaries in
// v4pipe. Op names the failing operation (e.g. "v4l2.Open",
// "pipeline.Start"); Err, if non-nil, is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Newf builds an *Error for op/kind with a formatted message in place of a
// wrapped cause.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err is a v4pipe *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ve, ok := err.(*Error); ok {
			e = ve
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
