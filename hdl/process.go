package hdl

import (
	"fmt"
	"log"
	"runtime"

	"github.com/petermattis/goid"
)

// A Routine is the body of a process. It runs cooperatively. The only ways it
// may give up control are the kernel's Delay and Wait calls, and all of its
// interaction with simulated time and signals goes through the kernel handle
// it receives.
type Routine func(k *Kernel)

// A Process is one schedulable unit of simulated behavior. Processes are
// created by Kernel.RegisterProcess and keep their suspended execution state
// until their routine returns or the kernel is disposed.
type Process struct {
	name string

	// delay is the process's wake-up delay relative to its predecessor in
	// the event queue. It is only meaningful while queued is true.
	delay  VTimeInTicks
	next   *Process
	queued bool

	resume   chan struct{}
	gid      int64
	finished bool
	fault    error
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// Finished returns true after the process routine has returned or panicked.
func (p *Process) Finished() bool {
	return p.finished
}

// RegisterProcess creates a process that runs the given routine and puts it
// under the kernel's control. The routine does not start here. It is held
// right before its first statement until Run activates it. All processes must
// be registered before Run is called, and names must be unique within one
// kernel.
func (k *Kernel) RegisterProcess(name string, routine Routine) *Process {
	if routine == nil {
		panic("process " + name + " has no routine")
	}

	if k.started {
		panic("cannot register process " + name + " on a started kernel")
	}

	if _, ok := k.procNameIndex[name]; ok {
		panic("process " + name + " already registered")
	}

	p := &Process{
		name:   name,
		resume: make(chan struct{}),
	}

	k.processes = append(k.processes, p)
	k.procNameIndex[name] = len(k.processes) - 1

	k.wg.Add(1)
	go k.processMain(p, routine)

	return p
}

// processMain is the goroutine that carries one process. It parks before the
// routine's first statement, converts a routine panic into a fault on the
// process, and always hands control back to the kernel exactly once when the
// routine is over.
func (k *Kernel) processMain(p *Process, routine Routine) {
	defer k.wg.Done()

	p.gid = goid.Get()

	select {
	case <-p.resume:
	case <-k.shutdown:
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				p.fault = fmt.Errorf("process %s: %v", p.name, r)
			}
		}()

		routine(k)
	}()

	p.finished = true
	k.yield <- struct{}{}
}

// suspend gives control back to the kernel and parks the calling process
// goroutine until the kernel resumes it. If the kernel is disposed while the
// process is parked, the goroutine unwinds through runtime.Goexit, so the
// deferred sensitivity releases of a pending Wait still run.
func (k *Kernel) suspend(p *Process) {
	k.yield <- struct{}{}

	select {
	case <-p.resume:
	case <-k.shutdown:
		runtime.Goexit()
	}
}

// mustBeInProcess panics unless the calling goroutine is the process the
// kernel is currently running. It guards the operations that only make sense
// in process context against being called from the outside or from a stray
// goroutine spawned by a routine.
func (k *Kernel) mustBeInProcess(op string) *Process {
	p := k.current

	if p == nil {
		log.Panicf("%s called while no process is running", op)
	}

	if goid.Get() != p.gid {
		log.Panicf("%s called from outside the running process %s", op, p.name)
	}

	return p
}
