package tracing

import (
	"fmt"
	"time"

	"github.com/davidchow24/simple-controller/ctrl"
)

// A Collector hooks onto a controller and forwards every transition to its
// tracers. The hook registry of a controller is append-only, so Detach does
// not remove the hook; it makes the collector inert instead.
type Collector struct {
	controller ctrl.Controller
	tracers    []Tracer
	filter     TransitionFilter
	detached   bool
}

// Collect attaches a collector to the controller. Every hook invocation of
// the controller is translated into a Transition and recorded by all the
// given tracers.
func Collect(c ctrl.Controller, tracers ...Tracer) *Collector {
	if c == nil {
		panic("collector requires a controller")
	}

	col := &Collector{
		controller: c,
		tracers:    tracers,
	}
	c.AcceptHook(col)

	return col
}

// WithFilter drops transitions for which the filter returns false.
func (col *Collector) WithFilter(f TransitionFilter) *Collector {
	col.filter = f
	return col
}

// Detach stops the collector. The hook stays registered on the controller
// but records nothing anymore.
func (col *Collector) Detach() {
	col.detached = true
}

// Flush flushes all the tracers of the collector.
func (col *Collector) Flush() {
	for _, t := range col.tracers {
		t.Flush()
	}
}

// Func translates a hook invocation into a transition record. It implements
// ctrl.Hook.
func (col *Collector) Func(ctx ctrl.HookCtx) {
	if col.detached {
		return
	}

	t, ok := col.transitionFromHook(ctx)
	if !ok {
		return
	}

	if col.filter != nil && !col.filter(t) {
		return
	}

	for _, tracer := range col.tracers {
		tracer.Record(t)
	}
}

func (col *Collector) transitionFromHook(ctx ctrl.HookCtx) (Transition, bool) {
	kind, ok := kindForPos(ctx.Pos)
	if !ok {
		return Transition{}, false
	}

	t := Transition{
		ID:         ctrl.GetIDGenerator().Generate(),
		Controller: col.controller.Name(),
		Kind:       kind,
		Detail:     render(ctx.Detail),
		Time:       time.Now().UnixNano(),
	}

	switch item := ctx.Item.(type) {
	case ctrl.StateChange:
		t.Subject = item.Label
		t.From = render(item.From)
		t.To = render(item.To)
	case ctrl.CommandInfo:
		t.Subject = item.Key
		t.To = render(item.Input)
		if item.Err != nil {
			t.Error = item.Err.Error()
		}
	case ctrl.DependencyInfo:
		t.Subject = item.Producer
		t.From = render(item.From)
		t.To = render(item.To)
	}

	return t, true
}

func kindForPos(pos *ctrl.HookPos) (string, bool) {
	switch pos {
	case ctrl.HookPosStateChange:
		return KindStateChange, true
	case ctrl.HookPosCommandStart:
		return KindCommandStart, true
	case ctrl.HookPosCommandEnd:
		return KindCommandEnd, true
	case ctrl.HookPosCommandSkip:
		return KindCommandSkip, true
	case ctrl.HookPosDebounceArm:
		return KindDebounceArm, true
	case ctrl.HookPosDebounceFire:
		return KindDebounceFire, true
	case ctrl.HookPosDebounceDrop:
		return KindDebounceDrop, true
	case ctrl.HookPosThrottleStart:
		return KindThrottleStart, true
	case ctrl.HookPosThrottleEnd:
		return KindThrottleEnd, true
	case ctrl.HookPosDependencyFire:
		return KindDependencyFire, true
	case ctrl.HookPosDispose:
		return KindDispose, true
	default:
		return "", false
	}
}

func render(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
