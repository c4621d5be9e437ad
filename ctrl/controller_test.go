package ctrl

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("ControllerBase", func() {
	var c *ControllerBase

	BeforeEach(func() {
		c = NewControllerBase("TestController")
	})

	It("should have a name and a unique ID", func() {
		other := NewControllerBase("Other")

		Expect(c.Name()).To(Equal("TestController"))
		Expect(c.ID()).ToNot(BeEmpty())
		Expect(c.ID()).ToNot(Equal(other.ID()))
	})

	Context("listeners", func() {
		It("should deliver broadcasts in subscription order", func() {
			var order []int
			c.AddListener(func() { order = append(order, 1) })
			c.AddListener(func() { order = append(order, 2) })
			c.AddListener(func() { order = append(order, 3) })

			c.notifyChanged()

			Expect(order).To(Equal([]int{1, 2, 3}))
		})

		It("should stop delivering to removed listeners", func() {
			calls := 0
			h := c.AddListener(func() { calls++ })

			c.notifyChanged()
			c.RemoveListener(h)
			c.notifyChanged()

			Expect(calls).To(Equal(1))
		})

		It("should let a listener re-enter the controller", func() {
			reentrant := 0
			c.AddListener(func() {
				if reentrant == 0 {
					c.AddListener(func() { reentrant++ })
				}
			})

			c.notifyChanged()
			c.notifyChanged()

			Expect(reentrant).To(Equal(1))
		})

		It("should panic when adding a listener to a disposed controller", func() {
			c.Dispose()

			Expect(func() { c.AddListener(func() {}) }).To(Panic())
		})

		It("should ignore removals on a disposed controller", func() {
			h := c.AddListener(func() {})

			c.Dispose()

			c.RemoveListener(h)
		})
	})

	Context("disposal", func() {
		It("should be idempotent", func() {
			c.Dispose()
			c.Dispose()

			Expect(c.Disposed()).To(BeTrue())
		})

		It("should invoke the dispose hook once", func() {
			mockCtrl := gomock.NewController(GinkgoT())
			defer mockCtrl.Finish()

			hook := NewMockHook(mockCtrl)
			c.AcceptHook(hook)

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosDispose))
			})

			c.Dispose()
			c.Dispose()
		})

		It("should keep reads legal after disposal", func() {
			c.Dispose()

			Expect(c.Name()).To(Equal("TestController"))
			Expect(c.Disposed()).To(BeTrue())
			Expect(c.CommandStatuses()).To(BeEmpty())
		})
	})

	Context("command statuses", func() {
		It("should report every command key the controller has seen", func() {
			clk := testclock.NewClock(time.Now())
			c = NewControllerBase("Status").WithClock(clk)

			release := make(chan struct{})
			running := NewCommand(c,
				func(_ context.Context, _ int) (int, error) {
					<-release
					return 0, nil
				}).WithKey("running")
			debounced := NewCommand(c,
				func(_ context.Context, _ int) (int, error) {
					return 0, nil
				}).WithKey("debounced").WithDebounce(time.Hour)

			running.Execute(context.Background(), 0)
			debounced.Execute(context.Background(), 0)

			Eventually(running.IsExecuting).Should(BeTrue())

			statuses := c.CommandStatuses()
			Expect(statuses).To(HaveLen(2))
			Expect(statuses[0]).To(Equal(CommandStatus{
				Key: "debounced", Debouncing: true}))
			Expect(statuses[1]).To(Equal(CommandStatus{
				Key: "running", Executing: true}))

			close(release)
		})
	})
})

var _ = Describe("IDGenerator", func() {
	It("should generate unique IDs", func() {
		gen := GetIDGenerator()

		a := gen.Generate()
		b := gen.Generate()

		Expect(a).ToNot(Equal(b))
	})

	It("should refuse to switch generators after first use", func() {
		GetIDGenerator()

		Expect(func() { UseParallelIDGenerator() }).To(Panic())
		Expect(func() { UseSequentialIDGenerator() }).To(Panic())
	})
})
