// Package hdl provides a discrete-event simulation kernel in the style of a
// hardware description language. Process routines run cooperatively against
// signals with delta-cycle semantics, so a tick of simulated time can hold
// any number of settle-and-resume rounds before the clock moves on.
package hdl

import (
	"log"
	"sync"
)

// VTimeInTicks defines a time in the simulated space, in ticks. A tick is an
// opaque unit. The model that assembles the simulation decides what physical
// duration, if any, one tick stands for.
type VTimeInTicks uint64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInTicks
}

// A Kernel drives a set of process routines through simulated time. It owns
// the event queue, the list of signals with pending changes, and the logical
// clock. Exactly one process runs at a time. Control returns to the kernel at
// every Delay and Wait call, and the kernel settles pending signal changes
// only between such suspensions, right before it would advance the clock.
type Kernel struct {
	*HookableBase

	pauseLock     sync.Mutex
	isPausedLock  sync.Mutex
	isPaused      bool
	singleRunLock sync.Mutex

	timeLock sync.RWMutex
	now      VTimeInTicks

	processes     []*Process
	procNameIndex map[string]int

	queue      eventQueue
	activeHead *Signal
	current    *Process

	yield    chan struct{}
	shutdown chan struct{}
	wg       sync.WaitGroup

	started  bool
	disposed bool
}

// NewKernel creates a kernel with no processes registered.
func NewKernel() *Kernel {
	k := new(Kernel)
	k.HookableBase = NewHookableBase()
	k.procNameIndex = make(map[string]int)
	k.yield = make(chan struct{})
	k.shutdown = make(chan struct{})

	return k
}

func (k *Kernel) readNow() VTimeInTicks {
	var now VTimeInTicks

	k.timeLock.RLock()
	now = k.now
	k.timeLock.RUnlock()

	return now
}

func (k *Kernel) writeNow(t VTimeInTicks) {
	k.timeLock.Lock()
	k.now = t
	k.timeLock.Unlock()
}

// CurrentTime returns the current time at which the kernel is at.
func (k *Kernel) CurrentTime() VTimeInTicks {
	return k.readNow()
}

// Processes returns all the processes registered with the kernel.
func (k *Kernel) Processes() []*Process {
	return k.processes
}

// Run activates every registered process and then executes the scheduling
// loop until the event queue drains, either because all routines returned or
// because a routine called Finish. Processes registered later are activated
// earlier. Run returns the fault of the first routine that panics, and the
// simulation stops at that point. A kernel can only run once.
func (k *Kernel) Run() error {
	k.singleRunLock.Lock()
	defer k.singleRunLock.Unlock()

	if k.started {
		log.Panic("kernel can only run once")
	}
	k.started = true

	for _, p := range k.processes {
		k.queue.pushFront(p)
	}

	for !k.queue.empty() {
		k.pauseLock.Lock()

		if k.queue.peek().delay != 0 {
			k.settle()
		}

		p := k.queue.pop()
		if p.delay != 0 {
			k.advanceTime(p.delay)
			p.delay = 0
		}

		fault := k.resumeProcess(p)

		k.pauseLock.Unlock()

		if fault != nil {
			return fault
		}
	}

	return nil
}

// settle runs one delta cycle. Every signal with a pending change commits its
// value, and each process whose sensitivity matches the transition moves onto
// the front of the event queue, due at the current tick. Edge checks compare
// the value committed before this delta cycle against the pending value, so
// the order in which signals and watchers are visited is not observable.
func (k *Kernel) settle() {
	for k.activeHead != nil {
		sig := k.activeHead

		for w := sig.watchers; w != nil; w = w.next {
			if w.proc.queued {
				continue
			}

			if !w.filter.matches(sig.value, sig.pending) {
				continue
			}

			k.queue.pushFront(w.proc)
		}

		was := sig.value
		sig.value = sig.pending
		sig.active = false
		k.activeHead = sig.next
		sig.next = nil

		k.InvokeHook(HookCtx{
			Domain: k,
			Pos:    HookPosSignalCommit,
			Item:   sig,
			Detail: was,
		})
	}
}

func (k *Kernel) advanceTime(d VTimeInTicks) {
	now := k.readNow() + d
	k.writeNow(now)

	k.InvokeHook(HookCtx{
		Domain: k,
		Pos:    HookPosTimeAdvance,
		Item:   now,
	})
}

// resumeProcess hands control to p and blocks until p gives it back, either
// by suspending in Delay or Wait or by letting its routine return.
func (k *Kernel) resumeProcess(p *Process) error {
	k.InvokeHook(HookCtx{
		Domain: k,
		Pos:    HookPosBeforeResume,
		Item:   p,
	})

	k.current = p
	p.resume <- struct{}{}
	<-k.yield
	k.current = nil

	k.InvokeHook(HookCtx{
		Domain: k,
		Pos:    HookPosAfterResume,
		Item:   p,
	})

	return p.fault
}

// Delay suspends the current process for n ticks of simulated time. Among
// processes that become due at the same tick, no order may be relied on
// beyond determinism for identical runs. Delay may only be called from a
// running process.
func (k *Kernel) Delay(n VTimeInTicks) {
	p := k.mustBeInProcess("Delay")

	k.queue.insert(p, n)
	k.suspend(p)
}

// Wait suspends the current process until one of the given triggers matches a
// committed signal change. The sensitivity bindings live only for the span of
// this one call. They are created right before the process suspends and
// released as soon as the process resumes, however it resumes. Wait may only
// be called from a running process, and it requires at least one trigger.
func (k *Kernel) Wait(triggers ...Trigger) {
	p := k.mustBeInProcess("Wait")

	if len(triggers) == 0 {
		log.Panicf("process %s waits on no triggers", p.name)
	}

	bindings := make([]*sensitivity, 0, len(triggers))

	// Registered before the first attach, so that a panic on a later
	// trigger still releases the bindings attached so far.
	defer func() {
		for _, s := range bindings {
			s.detach()
		}
	}()

	for _, t := range triggers {
		if t.Signal == nil {
			log.Panicf("process %s waits on a nil signal", p.name)
		}

		s := &sensitivity{proc: p, sig: t.Signal, filter: t.Filter}
		s.attach()
		bindings = append(bindings, s)
	}

	k.suspend(p)
}

// Set records v as the value that sig takes at the next delta cycle. The
// committed value that readers see does not change here. Writing the
// committed value again is a no-op. Writing a signal that already has a
// pending change only replaces the pending value, so the last write within a
// tick wins. Set may only be called from a running process.
func (k *Kernel) Set(sig *Signal, v uint64) {
	p := k.mustBeInProcess("Set")

	if sig == nil {
		log.Panicf("process %s sets a nil signal", p.name)
	}

	sig.pending = v

	if v != sig.value && !sig.active {
		sig.active = true
		sig.next = k.activeHead
		k.activeHead = sig
	}
}

// Finish empties the event queue so that the run loop stops as soon as the
// calling process gives control back. Processes that were still queued stay
// suspended where they are. Pending signal changes are not committed.
// Finishing an already empty queue has no further effect. Finish may only be
// called from a running process.
func (k *Kernel) Finish() {
	k.mustBeInProcess("Finish")

	for !k.queue.empty() {
		p := k.queue.pop()
		p.delay = 0
	}
}

// Pause prevents the kernel from resuming any more processes until Continue
// is called. It does not interrupt the process that is currently running.
func (k *Kernel) Pause() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if k.isPaused {
		return
	}

	k.pauseLock.Lock()
	k.isPaused = true
}

// Continue allows a paused kernel to resume processes again.
func (k *Kernel) Continue() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if !k.isPaused {
		return
	}

	k.pauseLock.Unlock()
	k.isPaused = false
}

// Dispose releases the suspended execution state of every process that has
// not finished. It must not be called while Run is executing. The kernel is
// not usable afterwards. Disposing a kernel twice has no further effect.
func (k *Kernel) Dispose() {
	if k.disposed {
		return
	}
	k.disposed = true

	close(k.shutdown)
	k.wg.Wait()
}
