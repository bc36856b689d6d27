package v4l2

import (
	"testing"

	sys "golang.org/x/sys/unix"

	"github.com/coholabs/v4pipe/errs"
)

func TestClassifyErrno(t *testing.T) {
	tests := []struct {
		name  string
		errno sys.Errno
		want  errs.Kind
	}{
		{"no such device", sys.ENODEV, errs.UnknownDevice},
		{"no such device or address", sys.ENXIO, errs.UnknownDevice},
		{"out of memory", sys.ENOMEM, errs.Memory},
		{"bad file descriptor", sys.EBADF, errs.IO},
		{"io error", sys.EIO, errs.IO},
		{"bad address", sys.EFAULT, errs.IO},
		{"invalid argument", sys.EINVAL, errs.Params},
		{"inappropriate ioctl", sys.ENOTTY, errs.Params},
		{"unmapped errno falls back to io", sys.EPERM, errs.IO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyErrno(tt.errno); got != tt.want {
				t.Errorf("classifyErrno(%v) = %v, want %v", tt.errno, got, tt.want)
			}
		})
	}
}
