package v4l2

import (
	sys "golang.org/x/sys/unix"

	"github.com/coholabs/v4pipe/errs"
)

// classifyErrno maps a raw ioctl/syscall errno onto the errs.Kind taxonomy.
// Every v4l2 call that reaches the kernel goes through send, which uses this
// to build an *errs.Error instead of leaking a bare syscall.Errno.
func classifyErrno(errno sys.Errno) errs.Kind {
	switch errno {
	case sys.ENODEV, sys.ENXIO:
		return errs.UnknownDevice
	case sys.ENOMEM:
		return errs.Memory
	case sys.EBADF, sys.EIO, sys.EFAULT:
		return errs.IO
	case sys.EINVAL, sys.ENOTTY:
		return errs.Params
	default:
		return errs.IO
	}
}
