package hdl

// EdgeFilter selects which committed transitions of a signal wake a waiting
// process.
type EdgeFilter uint8

const (
	// AnyChange wakes the process on every committed change of the signal.
	AnyChange EdgeFilter = 0

	// Posedge wakes the process when the signal leaves zero.
	Posedge EdgeFilter = 1 << 0

	// Negedge wakes the process when the signal becomes zero.
	Negedge EdgeFilter = 1 << 1

	// BothEdges wakes the process on either edge.
	BothEdges = Posedge | Negedge
)

// matches reports whether a transition from the old committed value to the
// pending value satisfies the filter. The old value is always the one
// committed before the current delta cycle, never a partially settled state.
func (f EdgeFilter) matches(old, pending uint64) bool {
	if f == AnyChange {
		return true
	}

	if f&Posedge != 0 && old == 0 && pending != 0 {
		return true
	}

	if f&Negedge != 0 && old != 0 && pending == 0 {
		return true
	}

	return false
}

// A Trigger names one signal transition that a process wants to wait for.
// Triggers are passed to Kernel.Wait, usually through the OnPosedge,
// OnNegedge, and OnChange helpers.
type Trigger struct {
	Signal *Signal
	Filter EdgeFilter
}

// OnPosedge waits for the signal to leave zero.
func OnPosedge(s *Signal) Trigger {
	return Trigger{Signal: s, Filter: Posedge}
}

// OnNegedge waits for the signal to become zero.
func OnNegedge(s *Signal) Trigger {
	return Trigger{Signal: s, Filter: Negedge}
}

// OnChange waits for any committed change of the signal.
func OnChange(s *Signal) Trigger {
	return Trigger{Signal: s, Filter: AnyChange}
}

// OnEdge waits for a transition that satisfies the given filter.
func OnEdge(s *Signal, f EdgeFilter) Trigger {
	return Trigger{Signal: s, Filter: f}
}

// A sensitivity binds one process to one signal for the span of a single
// Wait call. Each signal keeps its current bindings in an unordered doubly
// linked list, so a binding can unlink itself without touching the other
// bindings that stay attached.
type sensitivity struct {
	proc   *Process
	sig    *Signal
	filter EdgeFilter

	prev *sensitivity
	next *sensitivity
}

// attach pushes the binding onto the front of its signal's watcher list.
func (s *sensitivity) attach() {
	s.prev = nil
	s.next = s.sig.watchers

	if s.next != nil {
		s.next.prev = s
	}

	s.sig.watchers = s
}

// detach unlinks the binding from its signal's watcher list. Removing the
// head moves the list head forward. Removing an inner binding patches both
// neighbors.
func (s *sensitivity) detach() {
	if s.next != nil {
		s.next.prev = s.prev
	}

	if s.prev != nil {
		s.prev.next = s.next
	}

	if s.sig.watchers == s {
		s.sig.watchers = s.next
	}

	s.prev = nil
	s.next = nil
}
