package errors

import (
	"fmt"
)

// DriverError is a wrapper around system errno codes, with a customizable
// error message. Failures surfaced by the filesystem core are DriverErrors,
// except that BlockCache.Sync aggregates flush failures into a multierror;
// Errno() recovers the POSIX code for adapter layers that must report an
// integer result, and ErrnoOf reports any other error as EIO.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a
// string describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// New creates a new [DriverError] with a default message derived from the
// system's error code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

func NewFromError(errnoCode Errno, originalError error) DriverError {
	return driverError{
		errno:         errnoCode,
		message:       fmt.Sprintf("%s: %s", StrError(errnoCode), originalError.Error()),
		originalError: originalError,
	}
}

// NewWithMessage creates a new DriverError from a system error code with a
// custom message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return driverError{
		errno:   errnoCode,
		message: fmt.Sprintf("%s: %s", StrError(errnoCode), message),
	}
}

// ErrnoOf extracts the errno from any error. Non-DriverError values are
// reported as EIO since they can only have come from the I/O layer.
func ErrnoOf(err error) Errno {
	if err == nil {
		return EOK
	}
	if de, ok := err.(DriverError); ok {
		return de.Errno()
	}
	return EIO
}
