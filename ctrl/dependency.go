package ctrl

import "sync"

// A Binding connects a consumer controller to a producer controller. It is
// activated by ControllerBase.AddDependency and deactivated when the
// consumer is disposed.
type Binding interface {
	bindTo(consumer *ControllerBase)
	unbind()
}

// DependencyInfo is the hook payload carried by HookPosDependencyFire.
type DependencyInfo struct {
	Producer string
	From     interface{}
	To       interface{}
}

// A Dependency propagates a selected slice of a producer controller's state
// into a consumer controller. On every producer broadcast the selector is
// re-evaluated; when the selection differs from the cached one, the onChange
// callback runs and the consumer broadcasts its own change.
//
// At bind time the selection is cached and, unless WithoutImmediateFire is
// set, the onChange callback fires once with the seed value as both old and
// new. The seed never broadcasts on the consumer.
type Dependency[S any] struct {
	producer Controller
	selector func() S
	onChange func(from, to S)
	equals   func(a, b S) bool
	seedFire bool

	mu       sync.Mutex
	consumer *ControllerBase
	last     S
	handle   ListenerHandle
	bound    bool
}

// NewDependency creates a binding on the given producer. The selector runs
// inside the producer's broadcast, so it must be cheap and must not mutate
// the producer.
func NewDependency[S any](
	producer Controller,
	selector func() S,
) *Dependency[S] {
	if producer == nil || selector == nil {
		panic("dependency created without a producer or a selector")
	}

	return &Dependency[S]{
		producer: producer,
		selector: selector,
		equals:   defaultEquals[S],
		seedFire: true,
	}
}

// WithOnChange attaches the callback that receives the replaced and the new
// selection.
func (d *Dependency[S]) WithOnChange(f func(from, to S)) *Dependency[S] {
	d.onChange = f
	return d
}

// WithEquals overrides the selection equality gate.
func (d *Dependency[S]) WithEquals(f func(a, b S) bool) *Dependency[S] {
	d.equals = f
	return d
}

// WithoutImmediateFire suppresses the seed-time onChange call.
func (d *Dependency[S]) WithoutImmediateFire() *Dependency[S] {
	d.seedFire = false
	return d
}

// Producer returns the producer controller.
func (d *Dependency[S]) Producer() Controller {
	return d.producer
}

// Current returns the cached selection.
func (d *Dependency[S]) Current() S {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *Dependency[S]) bindTo(consumer *ControllerBase) {
	d.mu.Lock()
	if d.bound {
		d.mu.Unlock()
		panic("dependency bound twice")
	}
	d.consumer = consumer
	d.last = d.selector()
	d.bound = true
	seed := d.last
	d.mu.Unlock()

	if d.seedFire && d.onChange != nil {
		d.onChange(seed, seed)
	}

	h := d.producer.AddListener(d.producerChanged)

	d.mu.Lock()
	d.handle = h
	d.mu.Unlock()
}

// unbind detaches from the producer. It is idempotent and safe against a
// producer that is already disposed.
func (d *Dependency[S]) unbind() {
	d.mu.Lock()
	if !d.bound {
		d.mu.Unlock()
		return
	}
	d.bound = false
	handle := d.handle
	d.mu.Unlock()

	d.producer.RemoveListener(handle)
}

func (d *Dependency[S]) producerChanged() {
	d.mu.Lock()
	if !d.bound {
		d.mu.Unlock()
		return
	}
	consumer := d.consumer
	cur := d.selector()
	if d.equals(d.last, cur) {
		d.mu.Unlock()
		return
	}
	from := d.last
	d.last = cur
	d.mu.Unlock()

	if consumer.Disposed() {
		return
	}

	if d.onChange != nil {
		d.onChange(from, cur)
	}

	consumer.invokeHookLive(HookCtx{
		Domain: consumer,
		Pos:    HookPosDependencyFire,
		Item: DependencyInfo{
			Producer: d.producer.Name(),
			From:     from,
			To:       cur,
		},
	})
	consumer.notifyChanged()
}
