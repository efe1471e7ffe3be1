// Package wave captures the committed signal changes of a kernel as waveform
// records that can be stored and inspected after the run.
package wave

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/shiba/hdl"
)

// A SignalChange describes one committed transition of a signal. Time is the
// tick at which the delta cycle committed the change, before the clock moved
// on.
type SignalChange struct {
	Time   uint64
	Signal string
	Prior  uint64
	Value  uint64
}

// A Tracer consumes the committed signal changes of one kernel, in commit
// order.
type Tracer interface {
	OnCommit(c SignalChange)
}

// Capture lets the tracer collect the signal changes of a kernel. Attaching
// the same tracer to the same kernel twice is a programming error.
func Capture(k hdl.Hookable, tracer Tracer) {
	hooks := k.Hooks()
	for _, hook := range hooks {
		hook, ok := hook.(*waveHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"kernel already has tracer %s", reflect.TypeOf(tracer)))
		}
	}

	h := waveHook{t: tracer}
	k.AcceptHook(&h)
}

// A waveHook is a hook that feeds signal commits to a tracer
type waveHook struct {
	t Tracer
}

// Func calls the tracer when a signal commit is hooked
func (h *waveHook) Func(ctx hdl.HookCtx) {
	if ctx.Pos != hdl.HookPosSignalCommit {
		return
	}

	sig := ctx.Item.(*hdl.Signal)

	h.t.OnCommit(SignalChange{
		Time:   uint64(ctx.Domain.(hdl.TimeTeller).CurrentTime()),
		Signal: sig.Name(),
		Prior:  ctx.Detail.(uint64),
		Value:  sig.Value(),
	})
}
