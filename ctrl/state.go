package ctrl

import (
	"context"
	"reflect"
	"time"
)

// StateChange is the hook payload carried by HookPosStateChange.
type StateChange struct {
	Label string
	From  interface{}
	To    interface{}
}

// A State is a named cell of observable state owned by a controller. Reads
// and writes are synchronized through the owning controller, writes pass an
// equality gate, and every accepted write broadcasts a change.
//
// A cell configured with a debounce delay, a throttle window, or
// skip-if-setting routes its writes through a private command, so a burst of
// Set calls coalesces the same way a command coalesces Execute calls. An
// unconfigured cell applies Set synchronously.
type State[T any] struct {
	owner *ControllerBase
	label string
	value T

	equals    func(a, b T) bool
	onChange  func(from, to T)
	onDispose func(last T)

	setter *Command[T, struct{}]
}

// NewState creates a state cell on the given controller, holding initial.
// The initial value does not broadcast. Cells must be configured before
// their first use.
func NewState[T any](c *ControllerBase, initial T) *State[T] {
	c.mustNotBeDisposed()

	s := &State[T]{
		owner:  c,
		label:  "state-" + GetIDGenerator().Generate(),
		value:  initial,
		equals: defaultEquals[T],
	}
	c.registerCell(s)

	return s
}

// WithLabel names the cell for hooks and tracing.
func (s *State[T]) WithLabel(label string) *State[T] {
	s.label = label
	if s.setter != nil {
		s.setter.key = "set:" + label
	}
	return s
}

// WithOnChange attaches a callback that runs on every accepted write, after
// the controller broadcasts. The callback receives the replaced and the new
// value.
func (s *State[T]) WithOnChange(f func(from, to T)) *State[T] {
	s.onChange = f
	return s
}

// WithOnDispose attaches a callback that receives the final value when the
// owning controller is disposed.
func (s *State[T]) WithOnDispose(f func(last T)) *State[T] {
	s.onDispose = f
	return s
}

// WithEquals overrides the equality gate. The default compares with == when
// the value type is comparable and falls back to reflect.DeepEqual.
func (s *State[T]) WithEquals(f func(a, b T) bool) *State[T] {
	s.equals = f
	return s
}

// WithDebounce delays writes until d elapses with no newer write; only the
// last value of a burst is applied.
func (s *State[T]) WithDebounce(d time.Duration) *State[T] {
	s.coordinator().debounce = d
	return s
}

// WithThrottle applies the first write of a window immediately and drops
// every later write until w elapses.
func (s *State[T]) WithThrottle(w time.Duration) *State[T] {
	s.coordinator().throttle = w
	return s
}

// WithSkipIfSetting drops writes that arrive while another write is still
// being applied.
func (s *State[T]) WithSkipIfSetting() *State[T] {
	s.coordinator().skipIfExecuting = true
	return s
}

// Label returns the cell label.
func (s *State[T]) Label() string {
	return s.label
}

// Get returns the current value. Reads stay legal after disposal.
func (s *State[T]) Get() T {
	c := s.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	return s.value
}

// Set writes a new value. The write is dropped if the equality gate reports
// the value unchanged; otherwise the cell updates, the onChange callback
// runs, and the controller broadcasts. Writing to a disposed controller
// panics.
func (s *State[T]) Set(v T) {
	s.owner.mustNotBeDisposed()

	if s.setter != nil {
		s.setter.Execute(context.Background(), v)
		return
	}

	s.apply(v)
}

// IsSetting returns true while a coordinated write is being applied.
func (s *State[T]) IsSetting() bool {
	if s.setter == nil {
		return false
	}
	return s.setter.IsExecuting()
}

// IsDebouncing returns true while a write is held by the debounce timer.
func (s *State[T]) IsDebouncing() bool {
	if s.setter == nil {
		return false
	}
	return s.setter.IsDebouncing()
}

// IsThrottling returns true while the write throttle window is open.
func (s *State[T]) IsThrottling() bool {
	if s.setter == nil {
		return false
	}
	return s.setter.IsThrottling()
}

// apply performs the gated write. A coordinated write can land after the
// controller is disposed; it is dropped silently.
func (s *State[T]) apply(v T) {
	c := s.owner

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if s.equals(s.value, v) {
		c.mu.Unlock()
		return
	}
	from := s.value
	s.value = v
	c.mu.Unlock()

	c.notifyChanged()
	c.invokeHookLive(HookCtx{
		Domain: c,
		Pos:    HookPosStateChange,
		Item:   StateChange{Label: s.label, From: from, To: v},
	})

	if s.onChange != nil {
		s.onChange(from, v)
	}
}

// coordinator lazily creates the private write command. It bypasses
// NewCommand so that builder methods stay usable while the controller lock
// is free.
func (s *State[T]) coordinator() *Command[T, struct{}] {
	if s.setter == nil {
		s.setter = &Command[T, struct{}]{
			owner: s.owner,
			key:   "set:" + s.label,
			action: func(_ context.Context, v T) (struct{}, error) {
				s.apply(v)
				return struct{}{}, nil
			},
			inline: true,
		}
	}
	return s.setter
}

func (s *State[T]) disposeCell() {
	c := s.owner

	c.mu.Lock()
	last := s.value
	c.mu.Unlock()

	if s.onDispose != nil {
		s.onDispose(last)
	}
}

// defaultEquals compares with == when the dynamic type is comparable and
// falls back to reflect.DeepEqual for slices, maps, and functions.
func defaultEquals[T any](a, b T) bool {
	if t := reflect.TypeOf(a); t != nil && t.Comparable() {
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}
