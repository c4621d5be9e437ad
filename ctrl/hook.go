package ctrl

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// InvokeHook triggers all the registered hooks.
	InvokeHook(ctx HookCtx)
}

// HookPosStateChange is triggered after a state cell stores a new value.
var HookPosStateChange = &HookPos{Name: "StateChange"}

// HookPosCommandStart is triggered before a command action is invoked.
var HookPosCommandStart = &HookPos{Name: "CommandStart"}

// HookPosCommandEnd is triggered after a command action settles.
var HookPosCommandEnd = &HookPos{Name: "CommandEnd"}

// HookPosCommandSkip is triggered when a call is dropped because the command
// is already executing or inside a throttle window.
var HookPosCommandSkip = &HookPos{Name: "CommandSkip"}

// HookPosDebounceArm is triggered when a call arms a debounce timer.
var HookPosDebounceArm = &HookPos{Name: "DebounceArm"}

// HookPosDebounceFire is triggered when the last debounce timer of a burst
// fires and the action is about to run.
var HookPosDebounceFire = &HookPos{Name: "DebounceFire"}

// HookPosDebounceDrop is triggered when a superseded debounce timer fires and
// aborts without running the action.
var HookPosDebounceDrop = &HookPos{Name: "DebounceDrop"}

// HookPosThrottleStart is triggered when a call opens a throttle window.
var HookPosThrottleStart = &HookPos{Name: "ThrottleStart"}

// HookPosThrottleEnd is triggered when a throttle window elapses.
var HookPosThrottleEnd = &HookPos{Name: "ThrottleEnd"}

// HookPosDependencyFire is triggered when a dependency binding observes a
// changed selection on its producer.
var HookPosDependencyFire = &HookPos{Name: "DependencyFire"}

// HookPosDispose is triggered once when a controller is disposed.
var HookPosDispose = &HookPos{Name: "Dispose"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
