// POSIX errno codes used by the filesystem core. The values carry the real
// POSIX magnitudes so that an adapter layer (e.g. a FUSE bridge) can negate
// them directly for kernel returns.

package errors

import (
	"fmt"
)

type Errno int

const (
	EOK          Errno = 0
	EPERM        Errno = 1
	ENOENT       Errno = 2
	EINTR        Errno = 4
	EIO          Errno = 5
	EBADF        Errno = 9
	ENOMEM       Errno = 12
	EACCES       Errno = 13
	EBUSY        Errno = 16
	EEXIST       Errno = 17
	ENOTDIR      Errno = 20
	EISDIR       Errno = 21
	EINVAL       Errno = 22
	EMFILE       Errno = 24
	EFBIG        Errno = 27
	ENOSPC       Errno = 28
	EROFS        Errno = 30
	ENAMETOOLONG Errno = 36
	ENOSYS       Errno = 38
	ENOTSUP      Errno = 95
)

var errorMessagesByCode = map[Errno]string{
	EPERM:        "Operation not permitted",
	ENOENT:       "No such file or directory",
	EINTR:        "Interrupted system call",
	EIO:          "Input/output error",
	EBADF:        "Bad file descriptor",
	ENOMEM:       "Cannot allocate memory",
	EACCES:       "Permission denied",
	EBUSY:        "Device or resource busy",
	EEXIST:       "File exists",
	ENOTDIR:      "Not a directory",
	EISDIR:       "Is a directory",
	EINVAL:       "Invalid argument",
	EMFILE:       "Too many open files",
	EFBIG:        "File too large",
	ENOSPC:       "No space left on device",
	EROFS:        "Read-only file system",
	ENAMETOOLONG: "File name too long",
	ENOSYS:       "Function not implemented",
	ENOTSUP:      "Operation not supported",
}

var ErrNotPermitted = New(EPERM)
var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrInvalidFileDescriptor = New(EBADF)
var ErrExists = New(EEXIST)
var ErrInvalidArgument = New(EINVAL)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrReadOnlyFileSystem = New(EROFS)
var ErrNameTooLong = New(ENAMETOOLONG)
var ErrNotImplemented = New(ENOSYS)
var ErrNotSupported = New(ENOTSUP)

// StrError returns a text description for an error code, like strerror(3).
func StrError(code Errno) string {
	message, found := errorMessagesByCode[code]
	if found {
		return message
	}
	return fmt.Sprintf("Unknown error %d", int(code))
}
