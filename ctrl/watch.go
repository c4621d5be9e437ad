package ctrl

import "sync"

// A Watcher re-renders a selected slice of a controller's state. It is the
// read-side counterpart of a Dependency: instead of feeding another
// controller, the selection feeds a render callback.
type Watcher[S any] struct {
	controller Controller
	selector   func() S
	render     func(S)
	equals     func(a, b S) bool
	onChange   func(from, to S)

	mu      sync.Mutex
	last    S
	handle  ListenerHandle
	stopped bool
}

// Watch renders the current selection immediately, then re-renders on every
// controller broadcast after which the selection differs. The render
// callback runs synchronously inside the broadcast, in subscription order
// relative to other listeners.
func Watch[S any](c Controller, selector func() S, render func(S)) *Watcher[S] {
	if c == nil || selector == nil || render == nil {
		panic("watch requires a controller, a selector, and a render callback")
	}

	w := &Watcher[S]{
		controller: c,
		selector:   selector,
		render:     render,
		equals:     defaultEquals[S],
	}

	w.last = selector()
	render(w.last)

	h := c.AddListener(w.changed)

	w.mu.Lock()
	w.handle = h
	w.mu.Unlock()

	return w
}

// WithOnChange attaches a side effect that runs before each re-render with
// the replaced and the new selection. It does not run before the initial
// render.
func (w *Watcher[S]) WithOnChange(f func(from, to S)) *Watcher[S] {
	w.onChange = f
	return w
}

// WithEquals overrides the selection equality gate.
func (w *Watcher[S]) WithEquals(f func(a, b S) bool) *Watcher[S] {
	w.equals = f
	return w
}

// Current returns the last rendered selection.
func (w *Watcher[S]) Current() S {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Stop detaches the watcher from the controller. Stop is idempotent and is a
// no-op after the controller is disposed.
func (w *Watcher[S]) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	h := w.handle
	w.mu.Unlock()

	w.controller.RemoveListener(h)
}

func (w *Watcher[S]) changed() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	cur := w.selector()
	if w.equals(w.last, cur) {
		w.mu.Unlock()
		return
	}
	from := w.last
	w.last = cur
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(from, cur)
	}
	w.render(cur)
}
