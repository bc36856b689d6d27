// Package task runs a named, prioritized OS thread that repeatedly invokes a
// caller-supplied function until told to stop. It is the Go stand-in for the
// POSIX thread wrapped around a start/quit semaphore pair that the capture
// pipeline and its frame delivery loop are built from.
//
// A task's function body is expected to do one unit of work per call and
// return (the producer loop dequeues one buffer per call, the consumer loop
// delivers one frame per call); the task's thread keeps calling it back to
// back until Stop
// is requested, mirroring the original's `while (sem_trywait(quit) != 0)
// fct(params)` loop.
package task

import (
	"fmt"
	"runtime"
)

// Priority selects the OS scheduling priority the task's thread runs at.
// Lowest and Highest map onto the minimum and maximum SCHED_FIFO priority
// the kernel reports; Default leaves the thread on whatever scheduling
// policy and priority it inherited and makes no syscalls at all.
type Priority int

const (
	PriorityDefault Priority = iota
	PriorityLowest
	PriorityHighest
)

// Func is the unit of work a Task repeats. It is called once per loop
// iteration until the task is stopped; it should do a bounded amount of
// work (one dequeue, one delivery) and return rather than loop internally.
type Func func()

// AtExit, if set, runs once on the task's thread when the loop observes the
// quit signal, before Stop returns, mirroring the original's atExit hook for
// per-task cleanup.
type AtExit func()

type state int

const (
	stateIdle state = iota
	stateCreated
	stateRunning
	stateStopped
)

// Task is a named OS thread that loops a Func until stopped. The zero value
// is not usable; construct with New.
type Task struct {
	name     string
	priority Priority
	fn       Func
	atExit   AtExit

	startGate chan struct{}
	quitGate  chan struct{}
	done      chan struct{}

	state state
}

// New builds a Task named name, running fn at the given priority. atExit
// may be nil.
func New(name string, priority Priority, fn Func, atExit AtExit) *Task {
	return &Task{
		name:     name,
		priority: priority,
		fn:       fn,
		atExit:   atExit,
		state:    stateIdle,
	}
}

// Create spawns the task's thread. The thread parks immediately, waiting
// for Start, exactly like the original's loop() blocking on semStart before
// entering its work loop.
func (t *Task) Create() error {
	if t.state != stateIdle {
		return fmt.Errorf("task %q: already created", t.name)
	}

	t.startGate = make(chan struct{}, 1)
	t.quitGate = make(chan struct{}, 1)
	t.done = make(chan struct{})

	go t.loop()

	t.state = stateCreated
	return nil
}

// Start releases the task's thread to begin calling its Func. The post is
// non-blocking: calling it twice before the loop observes the first post is
// harmless (the second post is dropped), and calling it on a not-yet-created
// task releases nothing, since its start gate does not exist yet; in both
// cases the task is marked running.
func (t *Task) Start() {
	select {
	case t.startGate <- struct{}{}:
	default:
	}
	t.state = stateRunning
}

// Stop signals the loop to exit after its current Func call returns, then
// blocks until the thread has actually exited (the Go analog of
// pthread_join). AtExit, if configured, has already run by the time Stop
// returns.
func (t *Task) Stop() {
	select {
	case t.quitGate <- struct{}{}:
	default:
	}
	<-t.done
	t.state = stateStopped
}

func (t *Task) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)

	if t.name != "" {
		setThreadName(t.name)
	}
	applyPriority(t.priority)

	<-t.startGate

	for {
		select {
		case <-t.quitGate:
			if t.atExit != nil {
				t.atExit()
			}
			return
		default:
		}
		t.fn()
	}
}
