package hdl

// An eventQueue keeps the processes that are waiting to be activated. It is a
// singly linked list threaded through the processes themselves, ordered by
// wake-up time. Each process stores its delay relative to the process before
// it, so only the head's delay counts from the current tick and a delay of
// zero means due now. The relative encoding keeps insertion a single walk and
// makes popping the head free of any renormalization.
type eventQueue struct {
	head *Process
}

// insert places p so that it becomes due n ticks from now. The walk consumes
// the relative delays of the processes that are due earlier, discounts the
// first process that is due later, and splices p in between. A process whose
// remaining delay equals n is treated as earlier, so p lands behind it.
func (q *eventQueue) insert(p *Process, n VTimeInTicks) {
	link := &q.head
	cur := q.head

	for cur != nil {
		if cur.delay > n {
			cur.delay -= n
			break
		}

		n -= cur.delay
		link = &cur.next
		cur = cur.next
	}

	p.delay = n
	p.next = cur
	*link = p
	p.queued = true
}

// pushFront puts p at the head of the queue, due at the current tick. A
// zero-delay head shifts no other process's offset, so nothing needs to be
// rewritten. Signal wake-ups and the initial activation of every process take
// this path, which is what makes same-tick activation behave like a stack.
func (q *eventQueue) pushFront(p *Process) {
	p.delay = 0
	p.next = q.head
	q.head = p
	p.queued = true
}

// pop removes and returns the head of the queue. The caller advances the
// clock by the head's delay before resuming it.
func (q *eventQueue) pop() *Process {
	p := q.head
	q.head = p.next
	p.next = nil
	p.queued = false
	return p
}

func (q *eventQueue) peek() *Process {
	return q.head
}

func (q *eventQueue) empty() bool {
	return q.head == nil
}
