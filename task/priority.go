package task

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxThreadNameLen mirrors Linux's TASK_COMM_LEN (16 bytes, NUL included).
const maxThreadNameLen = 16

func setThreadName(name string) {
	var buf [maxThreadNameLen]byte
	n := copy(buf[:maxThreadNameLen-1], name)
	buf[n] = 0
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}

// schedParam mirrors struct sched_param from <sched.h>: a single int field,
// sched_priority. golang.org/x/sys/unix does not export this struct, so it
// is reproduced here the way the raw-syscall examples in the pack define
// C-equivalent structs by hand rather than pulling in cgo for one field.
type schedParam struct {
	priority int32
}

// applyPriority maps a Priority onto a SCHED_FIFO priority the same way
// Task.c's create_f does: PriorityLowest/PriorityHighest query the kernel's
// reported min/max for SCHED_FIFO and apply it to the calling thread;
// PriorityDefault makes no syscalls and leaves the thread's scheduling
// policy untouched.
func applyPriority(p Priority) {
	if p == PriorityDefault {
		return
	}

	var prio uintptr
	var err error
	switch p {
	case PriorityLowest:
		prio, err = schedGetPriorityMin(unix.SCHED_FIFO)
	case PriorityHighest:
		prio, err = schedGetPriorityMax(unix.SCHED_FIFO)
	}
	if err != nil {
		return
	}

	param := schedParam{priority: int32(prio)}
	// pid 0 means "the calling thread" for sched_setscheduler.
	_, _, _ = unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(unix.SCHED_FIFO), uintptr(unsafe.Pointer(&param)))
}

func schedGetPriorityMin(policy int) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MIN, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return r, nil
}

func schedGetPriorityMax(policy int) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return r, nil
}
