// Package ctrl provides reactive controllers: named aggregates of observable
// state cells, debounced/throttled asynchronous commands, and dependency
// bindings onto other controllers' derived values. Consumers subscribe to a
// controller as a whole or, through watchers, to a narrow slice of its state,
// and are re-invoked only when the slice actually changes.
package ctrl

import (
	"fmt"
	"sort"
	"sync"

	"github.com/juju/clock"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Listener is a callback delivered on every change broadcast of a
// controller.
type Listener func()

// A ListenerHandle identifies a registered listener so that it can be
// removed.
type ListenerHandle int

// A Controller aggregates state cells, commands, and dependency bindings. It
// broadcasts a change notification whenever any of them mutates, and owns the
// disposal of everything it created.
type Controller interface {
	Named
	Hookable

	// AddListener registers a callback invoked synchronously on every change
	// broadcast, in subscription order.
	AddListener(l Listener) ListenerHandle

	// RemoveListener unregisters a callback. Removing from a disposed
	// controller is a no-op.
	RemoveListener(h ListenerHandle)

	// Dispose unbinds all dependencies, runs the state cells' dispose
	// callbacks, and fences the controller against further mutation.
	Dispose()

	// Disposed returns true after Dispose has run.
	Disposed() bool
}

type listenerEntry struct {
	handle ListenerHandle
	fn     Listener
}

// ControllerBase provides the bookkeeping that concrete controllers embed:
// the listener registry, the hook registry, the per-key command counters, and
// the disposal fence.
type ControllerBase struct {
	HookableBase

	name string
	id   string

	mu           sync.Mutex
	clock        clock.Clock
	listeners    []listenerEntry
	nextListener ListenerHandle

	executingCount map[string]int
	debounceCount  map[string]int
	throttleCount  map[string]int

	cells        []cell
	dependencies []Binding
	disposed     bool
}

// A cell is the non-generic face of a state cell, used for disposal.
type cell interface {
	disposeCell()
}

// NewControllerBase creates a new ControllerBase.
func NewControllerBase(name string) *ControllerBase {
	c := new(ControllerBase)
	c.name = name
	c.id = GetIDGenerator().Generate()
	c.clock = clock.WallClock
	c.executingCount = make(map[string]int)
	c.debounceCount = make(map[string]int)
	c.throttleCount = make(map[string]int)
	return c
}

// WithClock replaces the wall clock used for debounce and throttle timers.
// It must be called before the controller is used.
func (c *ControllerBase) WithClock(clk clock.Clock) *ControllerBase {
	c.clock = clk
	return c
}

// Name returns the name of the controller.
func (c *ControllerBase) Name() string {
	return c.name
}

// ID returns the process-unique instance ID of the controller.
func (c *ControllerBase) ID() string {
	return c.id
}

// AddListener registers a callback invoked synchronously on every change
// broadcast, in subscription order.
func (c *ControllerBase) AddListener(l Listener) ListenerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mustNotBeDisposedLocked()

	c.nextListener++
	h := c.nextListener
	c.listeners = append(c.listeners, listenerEntry{handle: h, fn: l})

	return h
}

// RemoveListener unregisters a callback. Removing a listener from a disposed
// controller is a no-op, so consumers can always unbind during their own
// cleanup.
func (c *ControllerBase) RemoveListener(h ListenerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.listeners {
		if e.handle == h {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// notifyChanged delivers the change broadcast to all current listeners,
// synchronously and in subscription order. The registry is snapshotted under
// the lock so that a listener may re-enter the controller.
func (c *ControllerBase) notifyChanged() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	snapshot := make([]Listener, len(c.listeners))
	for i, e := range c.listeners {
		snapshot[i] = e.fn
	}
	c.mu.Unlock()

	for _, fn := range snapshot {
		fn()
	}
}

// invokeHookLive invokes the hooks unless the controller has been disposed.
func (c *ControllerBase) invokeHookLive(ctx HookCtx) {
	if c.NumHooks() == 0 {
		return
	}
	if c.Disposed() {
		return
	}
	c.InvokeHook(ctx)
}

// AddDependency activates a dependency binding on this controller. The
// binding seeds its cache from the producer and, unless configured otherwise,
// fires its onChange callback once with the seed value.
func (c *ControllerBase) AddDependency(b Binding) {
	c.mu.Lock()
	c.mustNotBeDisposedLocked()
	c.dependencies = append(c.dependencies, b)
	c.mu.Unlock()

	b.bindTo(c)
}

func (c *ControllerBase) registerCell(s cell) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mustNotBeDisposedLocked()
	c.cells = append(c.cells, s)
}

// Dispose unbinds every dependency from its producer, runs every state
// cell's dispose callback exactly once, and fences the controller. A second
// Dispose is a no-op. Mutating a disposed controller panics.
func (c *ControllerBase) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	deps := c.dependencies
	cells := c.cells
	c.listeners = nil
	c.dependencies = nil
	c.mu.Unlock()

	for _, d := range deps {
		d.unbind()
	}

	for _, s := range cells {
		s.disposeCell()
	}

	c.InvokeHook(HookCtx{Domain: c, Pos: HookPosDispose, Item: c.name})
}

// Disposed returns true after Dispose has run.
func (c *ControllerBase) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *ControllerBase) mustNotBeDisposed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustNotBeDisposedLocked()
}

func (c *ControllerBase) mustNotBeDisposedLocked() {
	if c.disposed {
		panic(fmt.Sprintf("controller %s is used after being disposed", c.name))
	}
}

// CommandStatus reports the coordination counters of one command key.
type CommandStatus struct {
	Key        string `json:"key"`
	Executing  bool   `json:"executing"`
	Debouncing bool   `json:"debouncing"`
	Throttling bool   `json:"throttling"`
}

// CommandStatuses reports the status of every command key the controller has
// seen, sorted by key.
func (c *ControllerBase) CommandStatuses() []CommandStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make(map[string]struct{})
	for k := range c.executingCount {
		keys[k] = struct{}{}
	}
	for k := range c.debounceCount {
		keys[k] = struct{}{}
	}
	for k := range c.throttleCount {
		keys[k] = struct{}{}
	}

	statuses := make([]CommandStatus, 0, len(keys))
	for k := range keys {
		statuses = append(statuses, CommandStatus{
			Key:        k,
			Executing:  c.executingCount[k] > 0,
			Debouncing: c.debounceCount[k] > 0,
			Throttling: c.throttleCount[k] > 0,
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Key < statuses[j].Key
	})

	return statuses
}

func (c *ControllerBase) clk() clock.Clock {
	return c.clock
}

// incCounter increments the counter for key and reports whether the counter
// left zero.
func incCounter(m map[string]int, key string) bool {
	m[key]++
	return m[key] == 1
}

// decCounter decrements the counter for key and reports whether the counter
// returned to zero. Decrementing a zero counter panics, as it indicates
// corrupted bookkeeping.
func decCounter(m map[string]int, key string) bool {
	if m[key] == 0 {
		panic(fmt.Sprintf("counter for key %s decremented below zero", key))
	}
	m[key]--
	return m[key] == 0
}
