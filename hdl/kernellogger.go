package hdl

import "log"

// A KernelLogger is a hook that prints process resumptions, signal commits,
// and clock advances as the simulation runs.
type KernelLogger struct {
	LogHookBase
}

// NewKernelLogger returns a new KernelLogger which will write into the logger
func NewKernelLogger(logger *log.Logger) *KernelLogger {
	h := new(KernelLogger)
	h.Logger = logger
	return h
}

// Func writes the hooked information into the logger
func (h *KernelLogger) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosBeforeResume:
		p := ctx.Item.(*Process)
		t := ctx.Domain.(TimeTeller).CurrentTime()
		h.Printf("(%d) resume %s", t, p.Name())
	case HookPosSignalCommit:
		s := ctx.Item.(*Signal)
		t := ctx.Domain.(TimeTeller).CurrentTime()
		h.Printf("(%d) signal %s = %d, was %d", t, s.Name(), s.Value(), ctx.Detail)
	case HookPosTimeAdvance:
		h.Printf("(%d) ---", ctx.Item.(VTimeInTicks))
	}
}
