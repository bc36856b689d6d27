// Package pipeline drives one V4L2 capture device end to end: it opens
// and configures the device, negotiates the final capture area, allocates
// the buffer ring, then runs a producer/consumer pair of worker threads
// that copy each dequeued frame into a single shared slot and broadcast it
// to every registered Listener in registration order.
//
// Frame fan-out goes through a container-backed listener registry rather
// than a Go channel: the broadcast contract (every listener sees every
// frame, in order, and a slow listener throttles the producer) needs an
// ordered walk under a held lock, which a fan-out channel can't express
// without its own registry on top anyway.
package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/coholabs/v4pipe/container"
	"github.com/coholabs/v4pipe/errs"
	"github.com/coholabs/v4pipe/logging"
	"github.com/coholabs/v4pipe/task"
	"github.com/coholabs/v4pipe/v4l2"
)

// State is a Pipeline's position in its start/stop state machine.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateCapturing
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// nonBlockingTimeoutMs is the fixed per-wait timeout used whenever a
// pipeline's AwaitMode is NonBlockingWithTimeout. A timeout is a retry
// signal, not a failure.
const nonBlockingTimeoutMs = 2000

// Stats is a read-only snapshot of a pipeline's counters, consumed by the
// metrics package.
type Stats struct {
	FramesCaptured  uint64
	FramesDelivered uint64
	// LostFrames counts frames written into the shared slot that have not
	// yet been delivered to a listener, at the instant of the snapshot —
	// not a cumulative historical drop count.
	LostFrames    uint32
	ListenerCount uint32
}

// Pipeline owns one V4L2 device, its buffer ring, and the two worker
// threads (frames-handler and notifier) that move frames from the kernel
// to registered listeners. The zero value is not usable; construct with
// New.
type Pipeline struct {
	params Params

	stateMu sync.Mutex
	state   State

	device *v4l2.Device

	listeners *container.Container[*Listener]

	framesHandler *task.Task
	notifier      *task.Task
	notifySem     chan struct{}
	quitFlag      bool
	quitMu        sync.Mutex

	nextSlot uint32

	bufferLock      sync.Mutex
	frame           Frame
	frameBacking    []byte
	lostFrames      int32
	framesCaptured  uint64
	framesDelivered uint64

	finalVideoArea v4l2.Area
	maxBufferSize  uint32
}

// New builds a Pipeline for params. It does not touch the device until
// Start is called.
func New(params Params) *Pipeline {
	p := &Pipeline{
		params:    params,
		notifySem: make(chan struct{}, 1),
	}
	p.listeners = container.New(container.Params[*Listener]{
		Compare: func(l *Listener, key any) bool { return l.Name == key.(string) },
		Browse: func(l *Listener, userData any) {
			frame := userData.(*Frame)
			defer func() {
				if r := recover(); r != nil {
					logging.ForPipeline(p.params.Name).Error("listener panicked",
						zap.String("listener", l.Name), zap.Any("recover", r))
				}
			}()
			l.OnFrame(frame, l.UserData)
		},
	})
	return p
}

// Name returns the pipeline's registry key.
func (p *Pipeline) Name() string { return p.params.Name }

// State returns the pipeline's current state-machine position.
func (p *Pipeline) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
}

func (p *Pipeline) setQuit(v bool) {
	p.quitMu.Lock()
	p.quitFlag = v
	p.quitMu.Unlock()
}

func (p *Pipeline) quit() bool {
	p.quitMu.Lock()
	defer p.quitMu.Unlock()
	return p.quitFlag
}

// Start transitions Uninitialized -> Initialized -> Capturing: opens the
// device, configures format and framerate, negotiates the final capture
// area, allocates the buffer ring, starts streaming, then creates and
// starts both worker threads. Any failure unwinds everything opened so far
// in reverse order and leaves the pipeline Uninitialized.
func (p *Pipeline) Start() error {
	p.stateMu.Lock()
	if p.state != StateUninitialized {
		p.stateMu.Unlock()
		return errs.New("pipeline.Start", errs.Init, fmt.Errorf("pipeline %q already started", p.params.Name))
	}
	p.state = StateInitialized
	p.stateMu.Unlock()

	dev, err := v4l2.Open(p.params.DevicePath, p.params.BufferType, p.params.RequestedCaps)
	if err != nil {
		p.setState(StateUninitialized)
		return err
	}

	if _, err := dev.Configure(p.params.PixelFormat, p.params.Colorspace,
		p.params.CaptureArea.Width, p.params.CaptureArea.Height, p.params.DesiredFps); err != nil {
		dev.Close()
		p.setState(StateUninitialized)
		return err
	}

	finalArea, err := p.negotiateArea(dev)
	if err != nil {
		dev.Close()
		p.setState(StateUninitialized)
		return err
	}

	if err := dev.RequestBuffers(p.params.BufferCount, p.params.MemoryStrategy); err != nil {
		dev.Close()
		p.setState(StateUninitialized)
		return err
	}

	if err := dev.StartCapture(); err != nil {
		dev.ReleaseBuffers()
		dev.Close()
		p.setState(StateUninitialized)
		return err
	}

	p.device = dev
	p.finalVideoArea = finalArea
	p.maxBufferSize = dev.MaxBufferSize()
	p.nextSlot = 0
	p.setQuit(false)

	p.framesHandler = task.New(p.params.Name+"-capture", p.params.Priority, p.producerStep, p.freeFrame)
	p.notifier = task.New(p.params.Name+"-notify", p.params.Priority, p.notifierStep, nil)

	if err := p.framesHandler.Create(); err != nil {
		dev.StopCapture()
		dev.ReleaseBuffers()
		dev.Close()
		p.setState(StateUninitialized)
		return errs.New("pipeline.Start", errs.Init, err)
	}
	if err := p.notifier.Create(); err != nil {
		p.framesHandler.Stop()
		dev.StopCapture()
		dev.ReleaseBuffers()
		dev.Close()
		p.setState(StateUninitialized)
		return errs.New("pipeline.Start", errs.Init, err)
	}

	p.framesHandler.Start()
	p.notifier.Start()
	p.setState(StateCapturing)

	logging.ForPipeline(p.params.Name).Info("pipeline started",
		zap.Uint32("width", finalArea.Width),
		zap.Uint32("height", finalArea.Height),
		zap.Uint32("maxBufferSize", p.maxBufferSize))
	return nil
}

// negotiateArea implements the spec's selection-then-fallback policy:
// setCroppingArea then setComposingArea; if either fails, fall back to a
// second Configure sized to ComposingArea and trust the kernel-echoed size.
func (p *Pipeline) negotiateArea(dev *v4l2.Device) (v4l2.Area, error) {
	if _, err := dev.SetCroppingArea(p.params.CroppingArea); err == nil {
		if composed, err := dev.SetComposingArea(p.params.ComposingArea); err == nil {
			return v4l2.Area{Width: composed.Width, Height: composed.Height}, nil
		}
	}

	applied, err := dev.Configure(p.params.PixelFormat, p.params.Colorspace,
		p.params.ComposingArea.Width, p.params.ComposingArea.Height, 0)
	if err != nil {
		return v4l2.Area{}, err
	}
	return v4l2.Area{Width: applied.Width, Height: applied.Height}, nil
}

// Stop transitions Capturing -> Stopping -> Uninitialized. Calling it when
// the pipeline isn't capturing is a no-op, matching the registry-level
// idempotency spec.md requires of start/stop. Failures along the way are
// logged; stop always completes.
func (p *Pipeline) Stop() error {
	p.stateMu.Lock()
	if p.state != StateCapturing {
		p.stateMu.Unlock()
		return nil
	}
	p.state = StateStopping
	p.stateMu.Unlock()

	log := logging.ForPipeline(p.params.Name)

	p.setQuit(true)
	p.device.StopAwaitingData()
	select {
	case p.notifySem <- struct{}{}:
	default:
	}

	p.framesHandler.Stop()
	p.notifier.Stop()

	if err := p.device.StopCapture(); err != nil {
		log.Warn("stop capture failed", zap.Error(err))
	}
	if err := p.device.ReleaseBuffers(); err != nil {
		log.Warn("release buffers failed", zap.Error(err))
	}
	if err := p.device.Close(); err != nil {
		log.Warn("close device failed", zap.Error(err))
	}

	p.device = nil
	p.setState(StateUninitialized)
	log.Info("pipeline stopped")
	return nil
}

// RegisterListener adds l to the pipeline's listener set. It fails with
// errs.Init if the pipeline isn't capturing and errs.Params if the name is
// already registered.
func (p *Pipeline) RegisterListener(l Listener) error {
	if p.State() != StateCapturing {
		return errs.New("pipeline.RegisterListener", errs.Init, fmt.Errorf("pipeline %q not started", p.params.Name))
	}

	unlock := p.listeners.Lock()
	defer unlock()

	for {
		e, ok := p.listeners.GetElement()
		if !ok {
			break
		}
		if e.Name == l.Name {
			return errs.New("pipeline.RegisterListener", errs.Params,
				fmt.Errorf("listener %q already registered", l.Name))
		}
	}

	listener := l
	p.listeners.Add(&listener)
	return nil
}

// UnregisterListener removes the listener named name. It fails with
// errs.Params if no such listener is registered.
func (p *Pipeline) UnregisterListener(name string) error {
	unlock := p.listeners.Lock()
	defer unlock()

	if !p.listeners.Remove(name) {
		return errs.New("pipeline.UnregisterListener", errs.Params,
			fmt.Errorf("listener %q not found", name))
	}
	return nil
}

// FinalVideoArea returns the post-negotiation width/height.
func (p *Pipeline) FinalVideoArea() v4l2.Area { return p.finalVideoArea }

// MaxBufferSize returns the V4L2 device's largest allocated buffer length.
func (p *Pipeline) MaxBufferSize() uint32 { return p.maxBufferSize }

// Stats returns a snapshot of the pipeline's counters.
func (p *Pipeline) Stats() Stats {
	p.bufferLock.Lock()
	captured := p.framesCaptured
	delivered := p.framesDelivered
	lost := p.lostFrames
	p.bufferLock.Unlock()

	unlock := p.listeners.Lock()
	count := p.listeners.NbElements()
	unlock()

	return Stats{
		FramesCaptured:  captured,
		FramesDelivered: delivered,
		LostFrames:      uint32(lost),
		ListenerCount:   count,
	}
}

// fail logs a steady-state error and sets quit, after which producerStep
// and notifierStep return without capturing or delivering anything. The
// worker threads themselves keep running (the notifier parked on
// notifySem) until Stop joins them; the error is not surfaced to a caller.
func (p *Pipeline) fail(op string, err error) {
	logging.ForPipeline(p.params.Name).Error("capture loop failed", zap.String("op", op), zap.Error(err))
	p.setQuit(true)
}

// producerStep is the frames-handler's iteration function: queue the next
// slot, wait for it to be ready, dequeue it, and copy its bytes into the
// shared frame slot under bufferLock before posting notifySem.
func (p *Pipeline) producerStep() {
	if p.quit() {
		return
	}

	slots := p.device.Slots()
	index := p.nextSlot
	p.nextSlot = (p.nextSlot + 1) % uint32(len(slots))

	if err := p.device.QueueBuffer(index); err != nil {
		p.fail("pipeline.framesHandler.queue", err)
		return
	}

	for {
		ready, err := p.device.AwaitData(p.params.AwaitMode, nonBlockingTimeoutMs)
		if err != nil {
			if errs.Is(err, errs.Timeout) {
				if p.quit() {
					return
				}
				continue
			}
			p.fail("pipeline.framesHandler.await", err)
			return
		}
		if ready {
			break
		}
		// AwaitData returned with no readiness: StopAwaitingData fired.
		return
	}

	dequeued, err := p.device.DequeueBuffer()
	if err != nil {
		p.fail("pipeline.framesHandler.dequeue", err)
		return
	}

	slot := p.device.Slots()[dequeued.Index]

	p.bufferLock.Lock()
	if p.frameBacking == nil {
		p.frameBacking = sharedFramePool.Get(p.maxBufferSize)
	}
	n := copy(p.frameBacking[:cap(p.frameBacking)], slot.Data[:dequeued.BytesUsed])
	p.frame = Frame{Index: dequeued.Index, Offset: 0, Length: uint32(n), Data: p.frameBacking[:n]}
	p.lostFrames++
	p.framesCaptured++
	p.bufferLock.Unlock()

	p.notifySem <- struct{}{}
}

// notifierStep is the notifier's iteration function: wait for a produced
// frame, then walk the listener list while holding bufferLock so the
// producer cannot overwrite the frame mid-broadcast.
func (p *Pipeline) notifierStep() {
	if p.quit() {
		return
	}

	<-p.notifySem

	if p.quit() {
		return
	}

	p.bufferLock.Lock()
	unlockListeners := p.listeners.Lock()
	p.listeners.BrowseElements(&p.frame)
	unlockListeners()
	p.lostFrames--
	p.framesDelivered++
	p.bufferLock.Unlock()
}

// freeFrame is the frames-handler's atExit hook: it returns the shared
// frame buffer to the pool so Stop leaves no allocation behind.
func (p *Pipeline) freeFrame() {
	p.bufferLock.Lock()
	if p.frameBacking != nil {
		sharedFramePool.Put(p.frameBacking)
		p.frameBacking = nil
	}
	p.frame = Frame{}
	p.bufferLock.Unlock()
}
