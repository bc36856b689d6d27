package v4l2

import (
	"os"

	sys "golang.org/x/sys/unix"

	"github.com/coholabs/v4pipe/errs"
)

// openDevice opens a V4L2 device node read-write. It validates the path is a
// character device before touching it — os.OpenFile causes some drivers to
// report the node as busy on a second open, the same reason the teacher
// library bypasses it for a raw Openat here.
func openDevice(path string) (uintptr, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errs.New("v4l2.Open", errs.UnknownDevice, err)
		}
		return 0, errs.New("v4l2.Open", errs.IO, err)
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return 0, errs.New("v4l2.Open", errs.UnknownDevice, os.ErrInvalid)
	}

	for {
		fd, err := sys.Openat(sys.AT_FDCWD, path, sys.O_RDWR, 0)
		if err == nil {
			return uintptr(fd), nil
		}
		if err == sys.EINTR {
			continue
		}
		return 0, errs.New("v4l2.Open", errs.IO, &os.PathError{Op: "open", Path: path, Err: err})
	}
}

func closeDevice(fd uintptr) error {
	if err := sys.Close(int(fd)); err != nil {
		return errs.New("v4l2.Close", errs.IO, err)
	}
	return nil
}

// ioctl issues a single VIDIOC_* request, retrying transparently on EINTR.
func ioctl(fd, req, arg uintptr) sys.Errno {
	for {
		_, _, errno := sys.Syscall(sys.SYS_IOCTL, fd, req, arg)
		if errno == sys.EINTR {
			continue
		}
		return errno
	}
}

// send issues an ioctl and translates a non-zero errno into an *errs.Error
// tagged with op for context (e.g. "v4l2.SetFormat").
func send(op string, fd, req, arg uintptr) error {
	errno := ioctl(fd, req, arg)
	if errno == 0 {
		return nil
	}
	return errs.New(op, classifyErrno(errno), errno)
}
