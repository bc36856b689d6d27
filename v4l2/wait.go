package v4l2

import (
	sys "golang.org/x/sys/unix"

	"github.com/coholabs/v4pipe/errs"
)

// waiter lets a blocking DQBUF wait be interrupted from another goroutine.
// It pairs the device fd with a self-pipe: StopAwaitingData writes a byte to
// the pipe's write end, which wakes a concurrent select(2) on the read end
// the same way the original implementation used its own self-pipe to break
// out of its select loop on shutdown.
type waiter struct {
	deviceFd uintptr
	pipeR    int
	pipeW    int
}

func newWaiter(deviceFd uintptr) (*waiter, error) {
	var fds [2]int
	if err := sys.Pipe2(fds[:], sys.O_NONBLOCK|sys.O_CLOEXEC); err != nil {
		return nil, errs.New("v4l2.newWaiter", errs.IO, err)
	}
	return &waiter{deviceFd: deviceFd, pipeR: fds[0], pipeW: fds[1]}, nil
}

func (w *waiter) close() {
	sys.Close(w.pipeR)
	sys.Close(w.pipeW)
}

// awaitResult says why await returned: the device became readable, stop
// woke it (await then drains the pending pipe bytes so the next await
// starts clean), or the timeout elapsed.
type awaitResult int

const (
	awaitReady awaitResult = iota
	awaitCancelled
	awaitTimeout
)

// await blocks until the device fd is readable, the waiter is stopped, or
// timeoutMs elapses (0 means block forever, matching V4L2's own select(2)
// convention of a nil timeval).
func (w *waiter) await(timeoutMs int) (awaitResult, error) {
	rfds := &sys.FdSet{}
	fdZero(rfds)
	fdSet(rfds, int(w.deviceFd))
	fdSet(rfds, w.pipeR)

	maxFd := int(w.deviceFd)
	if w.pipeR > maxFd {
		maxFd = w.pipeR
	}

	var tv *sys.Timeval
	if timeoutMs > 0 {
		t := sys.NsecToTimeval(int64(timeoutMs) * int64(1_000_000))
		tv = &t
	}

	for {
		n, err := sys.Select(maxFd+1, rfds, nil, nil, tv)
		if err == sys.EINTR {
			continue
		}
		if err != nil {
			return awaitReady, errs.New("v4l2.Await", errs.IO, err)
		}
		if n == 0 {
			return awaitTimeout, nil
		}
		if fdIsSet(rfds, w.pipeR) {
			var buf [8]byte
			sys.Read(w.pipeR, buf[:])
			return awaitCancelled, nil
		}
		return awaitReady, nil
	}
}

// stop wakes any goroutine blocked in await. Safe to call more than once;
// extra wakeups are harmless since await drains only what it needs.
func (w *waiter) stop() {
	var b [1]byte
	sys.Write(w.pipeW, b[:])
}

func fdZero(set *sys.FdSet) {
	for i := range set.Bits {
		set.Bits[i] = 0
	}
}

func fdSet(set *sys.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *sys.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
