// Package tracing records the state transitions of controllers: state-cell
// writes, command lifecycle steps, dependency fires, and disposal. A
// Collector hooks onto a controller and forwards every transition to one or
// more tracer backends.
package tracing

// Transition kinds, one per hook position of the ctrl package.
const (
	KindStateChange    = "state_change"
	KindCommandStart   = "command_start"
	KindCommandEnd     = "command_end"
	KindCommandSkip    = "command_skip"
	KindDebounceArm    = "debounce_arm"
	KindDebounceFire   = "debounce_fire"
	KindDebounceDrop   = "debounce_drop"
	KindThrottleStart  = "throttle_start"
	KindThrottleEnd    = "throttle_end"
	KindDependencyFire = "dependency_fire"
	KindDispose        = "dispose"
)

// A Transition is one observed step of a controller: a state cell storing a
// new value, a command changing coordination status, a dependency binding
// firing, or the controller being disposed.
type Transition struct {
	ID         string `json:"id"`
	Controller string `json:"controller"`
	Kind       string `json:"kind"`

	// Subject is the cell label or command key the transition belongs to.
	// It is empty for controller-level transitions such as dispose.
	Subject string `json:"subject"`

	From   string `json:"from"`
	To     string `json:"to"`
	Error  string `json:"error"`
	Detail string `json:"detail"`

	// Time is the wall-clock time of the transition in Unix nanoseconds.
	Time int64 `json:"time"`
}

// A TransitionFilter selects interesting transitions. If this function
// returns true, the transition is recorded.
type TransitionFilter func(t Transition) bool
