package ctrl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDisposed is the fault stored in a pending execution whose controller was
// disposed before the action could run.
var ErrDisposed = errors.New("controller disposed")

// CommandInfo is the hook payload carried by the command hook positions.
type CommandInfo struct {
	Key   string
	Input interface{}
	Err   error
}

// A Command wraps a unary asynchronous action with a debounce delay, a
// throttle window, and a re-entrancy policy. Its execution status is
// observable and every status transition broadcasts a change on the owning
// controller.
//
// Debounce and throttle coalesce by command key, independent of the input
// value: two different inputs to the same command share one timer and flag
// set.
type Command[I, R any] struct {
	owner  *ControllerBase
	key    string
	action func(ctx context.Context, in I) (R, error)

	debounce        time.Duration
	throttle        time.Duration
	skipIfExecuting bool

	// inline makes the action run in the goroutine that reaches the
	// invocation step instead of a spawned one. State cells use this so that
	// an unconfigured Set stays synchronous.
	inline bool

	// pending, retired, and the armed arguments are guarded by the owner's
	// lock, together with the counters they must stay consistent with.
	pending  *Execution[R]
	retired  bool
	armedCtx context.Context
	armedIn  I
}

// NewCommand creates a command on the given controller. The default key is
// generated at creation, so counters are private to this command instance;
// pass WithKey to share counters between commands on purpose. Commands must
// be configured before their first Execute.
func NewCommand[I, R any](
	c *ControllerBase,
	action func(ctx context.Context, in I) (R, error),
) *Command[I, R] {
	c.mustNotBeDisposed()

	if action == nil {
		panic(fmt.Sprintf(
			"controller %s: command created with a nil action", c.name))
	}

	cmd := &Command[I, R]{
		owner:  c,
		key:    "cmd-" + GetIDGenerator().Generate(),
		action: action,
	}

	return cmd
}

// WithKey overrides the generated command key. Keys must be unique per
// logical command; colliding keys from unrelated commands corrupt each
// other's counters.
func (cmd *Command[I, R]) WithKey(key string) *Command[I, R] {
	cmd.key = key
	return cmd
}

// WithDebounce delays execution until d elapses with no newer call; only the
// last call of a burst runs. Debounce takes priority over throttle.
func (cmd *Command[I, R]) WithDebounce(d time.Duration) *Command[I, R] {
	cmd.debounce = d
	return cmd
}

// WithThrottle lets the first call of a window run immediately and drops
// every later call until w elapses.
func (cmd *Command[I, R]) WithThrottle(w time.Duration) *Command[I, R] {
	cmd.throttle = w
	return cmd
}

// WithSkipIfExecuting drops calls that arrive while an invocation is still in
// flight; the dropped caller receives the in-flight execution.
func (cmd *Command[I, R]) WithSkipIfExecuting() *Command[I, R] {
	cmd.skipIfExecuting = true
	return cmd
}

// Key returns the command key.
func (cmd *Command[I, R]) Key() string {
	return cmd.key
}

// IsExecuting returns true while at least one invocation is in flight.
func (cmd *Command[I, R]) IsExecuting() bool {
	c := cmd.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executingCount[cmd.key] > 0
}

// IsDebouncing returns true while at least one debounce timer is pending.
func (cmd *Command[I, R]) IsDebouncing() bool {
	c := cmd.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debounceCount[cmd.key] > 0
}

// IsThrottling returns true while the throttle window is open.
func (cmd *Command[I, R]) IsThrottling() bool {
	c := cmd.owner
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.throttleCount[cmd.key] > 0
}

// Execute runs the wrapped action under the configured debounce, throttle,
// and re-entrancy policy. It never blocks on the action itself: the returned
// Execution settles with the action's value or fault. Calls coalesced away
// by the policy receive the pending or most recent execution. Executing on a
// disposed controller panics.
func (cmd *Command[I, R]) Execute(ctx context.Context, in I) *Execution[R] {
	cmd.owner.mustNotBeDisposed()

	if cmd.debounce > 0 {
		return cmd.executeDebounced(ctx, in)
	}

	if cmd.throttle > 0 {
		return cmd.executeThrottled(ctx, in)
	}

	return cmd.invoke(ctx, in)
}

func (cmd *Command[I, R]) executeDebounced(
	ctx context.Context,
	in I,
) *Execution[R] {
	c := cmd.owner

	exec := cmd.pendingExecution()

	// The armed arguments are overwritten by every call of the burst, so the
	// timer that empties the counter always fires with the latest call's
	// context and input, whatever order same-deadline timers run in.
	c.mu.Lock()
	first := incCounter(c.debounceCount, cmd.key)
	cmd.armedCtx = ctx
	cmd.armedIn = in
	c.mu.Unlock()

	if first {
		c.notifyChanged()
	}
	c.invokeHookLive(HookCtx{
		Domain: c,
		Pos:    HookPosDebounceArm,
		Item:   CommandInfo{Key: cmd.key, Input: in},
	})

	c.clk().AfterFunc(cmd.debounce, func() {
		if c.Disposed() {
			exec.resolve(*new(R), ErrDisposed)
			return
		}

		c.mu.Lock()
		last := decCounter(c.debounceCount, cmd.key)
		armedCtx, armedIn := cmd.armedCtx, cmd.armedIn
		c.mu.Unlock()

		if !last {
			// A newer call superseded this timer.
			c.invokeHookLive(HookCtx{
				Domain: c,
				Pos:    HookPosDebounceDrop,
				Item:   CommandInfo{Key: cmd.key, Input: in},
			})
			return
		}

		c.notifyChanged()
		c.invokeHookLive(HookCtx{
			Domain: c,
			Pos:    HookPosDebounceFire,
			Item:   CommandInfo{Key: cmd.key, Input: armedIn},
		})

		cmd.invoke(armedCtx, armedIn)
	})

	return exec
}

func (cmd *Command[I, R]) executeThrottled(
	ctx context.Context,
	in I,
) *Execution[R] {
	c := cmd.owner

	c.mu.Lock()
	if c.throttleCount[cmd.key] > 0 {
		c.mu.Unlock()
		c.invokeHookLive(HookCtx{
			Domain: c,
			Pos:    HookPosCommandSkip,
			Item:   CommandInfo{Key: cmd.key, Input: in},
			Detail: "throttled",
		})
		return cmd.currentExecution()
	}
	c.throttleCount[cmd.key] = 1
	c.mu.Unlock()

	c.notifyChanged()
	c.invokeHookLive(HookCtx{
		Domain: c,
		Pos:    HookPosThrottleStart,
		Item:   CommandInfo{Key: cmd.key, Input: in},
	})

	exec := cmd.invoke(ctx, in)

	c.clk().AfterFunc(cmd.throttle, func() {
		if c.Disposed() {
			return
		}

		c.mu.Lock()
		c.throttleCount[cmd.key] = 0
		c.mu.Unlock()

		c.notifyChanged()
		c.invokeHookLive(HookCtx{
			Domain: c,
			Pos:    HookPosThrottleEnd,
			Item:   CommandInfo{Key: cmd.key},
		})
	})

	return exec
}

// invoke is the invocation step shared by all paths: it applies the
// re-entrancy policy, runs the action, and settles the pending execution.
func (cmd *Command[I, R]) invoke(ctx context.Context, in I) *Execution[R] {
	c := cmd.owner

	c.mu.Lock()
	if cmd.skipIfExecuting && c.executingCount[cmd.key] > 0 {
		c.mu.Unlock()
		c.invokeHookLive(HookCtx{
			Domain: c,
			Pos:    HookPosCommandSkip,
			Item:   CommandInfo{Key: cmd.key, Input: in},
			Detail: "executing",
		})
		return cmd.currentExecution()
	}
	first := incCounter(c.executingCount, cmd.key)
	c.mu.Unlock()

	exec := cmd.pendingExecution()

	if first {
		c.notifyChanged()
	}
	c.invokeHookLive(HookCtx{
		Domain: c,
		Pos:    HookPosCommandStart,
		Item:   CommandInfo{Key: cmd.key, Input: in},
	})

	run := func() {
		value, err := cmd.runAction(ctx, in)

		exec.resolve(value, err)

		c.mu.Lock()
		last := decCounter(c.executingCount, cmd.key)
		if last {
			cmd.retired = true
		}
		c.mu.Unlock()

		if last {
			c.notifyChanged()
		}
		c.invokeHookLive(HookCtx{
			Domain: c,
			Pos:    HookPosCommandEnd,
			Item:   CommandInfo{Key: cmd.key, Input: in, Err: err},
		})
	}

	if cmd.inline {
		run()
	} else {
		go run()
	}

	return exec
}

// runAction invokes the wrapped action, converting a panic into a fault so
// that the coordinator itself never fails.
func (cmd *Command[I, R]) runAction(
	ctx context.Context,
	in I,
) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s: action panicked: %v", cmd.key, r)
		}
	}()

	return cmd.action(ctx, in)
}

// pendingExecution returns the execution of the current call batch, starting
// a fresh one if the previous batch has been retired.
func (cmd *Command[I, R]) pendingExecution() *Execution[R] {
	c := cmd.owner
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.pending == nil || cmd.retired {
		cmd.pending = newExecution[R]()
		cmd.retired = false
	}

	return cmd.pending
}

// currentExecution returns the pending or most recent execution without
// starting a new batch; coalesced-away calls receive this.
func (cmd *Command[I, R]) currentExecution() *Execution[R] {
	c := cmd.owner
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.pending == nil {
		cmd.pending = newExecution[R]()
	}

	return cmd.pending
}
