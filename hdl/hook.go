package hdl

// HookPos defines the enum of possible hooking positions
type HookPos struct {
	Name string
}

// HookPosBeforeResume is a hook position that triggers right before the
// kernel hands control to a process. The Item is the Process about to run.
var HookPosBeforeResume = &HookPos{Name: "BeforeResume"}

// HookPosAfterResume is a hook position that triggers right after a process
// gives control back to the kernel. The Item is the Process that ran.
var HookPosAfterResume = &HookPos{Name: "AfterResume"}

// HookPosSignalCommit is a hook position that triggers when a delta cycle
// commits a pending signal value. The Item is the Signal, already carrying
// the committed value, and the Detail is the value it held before.
var HookPosSignalCommit = &HookPos{Name: "SignalCommit"}

// HookPosTimeAdvance is a hook position that triggers when the simulated
// clock moves forward. The Item is the new time in ticks.
var HookPosTimeAdvance = &HookPos{Name: "TimeAdvance"}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)

	// Hooks returns the hooks that have been registered so far.
	Hooks() []Hook
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.hooks = make([]Hook, 0)
	return h
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// Hooks returns the hooks that have been registered so far.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// InvokeHook triggers the registered Hooks
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
