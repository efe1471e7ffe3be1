package hdl

// A Signal is a named value cell shared between processes. Reads always see
// the committed value. Writes go through Kernel.Set and stay pending until
// the next delta cycle commits them, so every process that runs within one
// tick observes the same signal state no matter the order it runs in.
//
// Signals are free-standing. The code that assembles a simulation creates
// them, wires them into process routines, and may register them with a
// Simulation for monitoring and wave capture.
type Signal struct {
	name    string
	value   uint64
	pending uint64

	// active links the signal into the kernel's list of signals that have a
	// pending change. A signal appears in that list at most once, no matter
	// how many times it is written within a tick.
	active bool
	next   *Signal

	// watchers holds the sensitivity bindings of the processes currently
	// waiting on this signal.
	watchers *sensitivity
}

// NewSignal creates a signal with the given name. The committed value starts
// at zero.
func NewSignal(name string) *Signal {
	return &Signal{name: name}
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Value returns the committed value of the signal. It never exposes a pending
// write that has not settled yet.
func (s *Signal) Value() uint64 {
	return s.value
}
