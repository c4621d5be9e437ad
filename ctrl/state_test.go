package ctrl

import (
	"time"

	"github.com/juju/clock/testclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("State", func() {
	var (
		c   *ControllerBase
		clk *testclock.Clock
	)

	BeforeEach(func() {
		clk = testclock.NewClock(time.Now())
		c = NewControllerBase("TestController").WithClock(clk)
	})

	It("should hold the initial value without broadcasting", func() {
		broadcasts := 0
		c.AddListener(func() { broadcasts++ })

		s := NewState(c, 42)

		Expect(s.Get()).To(Equal(42))
		Expect(broadcasts).To(Equal(0))
	})

	It("should store a new value, broadcast, and run onChange", func() {
		broadcasts := 0
		c.AddListener(func() { broadcasts++ })

		var gotFrom, gotTo int
		s := NewState(c, 1).
			WithLabel("count").
			WithOnChange(func(from, to int) {
				gotFrom, gotTo = from, to
			})

		s.Set(2)

		Expect(s.Get()).To(Equal(2))
		Expect(broadcasts).To(Equal(1))
		Expect(gotFrom).To(Equal(1))
		Expect(gotTo).To(Equal(2))
	})

	It("should broadcast before running onChange", func() {
		var events []string
		c.AddListener(func() { events = append(events, "broadcast") })

		s := NewState(c, 1).
			WithOnChange(func(_, _ int) {
				events = append(events, "onChange")
			})

		s.Set(2)

		Expect(events).To(Equal([]string{"broadcast", "onChange"}))
	})

	It("should treat an equal write as a complete no-op", func() {
		broadcasts := 0
		onChangeCalls := 0
		c.AddListener(func() { broadcasts++ })

		s := NewState(c, 3).
			WithOnChange(func(_, _ int) { onChangeCalls++ })

		s.Set(3)

		Expect(broadcasts).To(Equal(0))
		Expect(onChangeCalls).To(Equal(0))
	})

	It("should gate writes with a custom equality", func() {
		broadcasts := 0
		c.AddListener(func() { broadcasts++ })

		s := NewState(c, []int{1, 2}).
			WithEquals(func(a, b []int) bool {
				return len(a) == len(b)
			})

		s.Set([]int{3, 4})
		Expect(broadcasts).To(Equal(0))

		s.Set([]int{1, 2, 3})
		Expect(broadcasts).To(Equal(1))
	})

	It("should compare slices by deep equality by default", func() {
		broadcasts := 0
		c.AddListener(func() { broadcasts++ })

		s := NewState(c, []int{1, 2})

		s.Set([]int{1, 2})
		Expect(broadcasts).To(Equal(0))

		s.Set([]int{1, 3})
		Expect(broadcasts).To(Equal(1))
	})

	It("should invoke the state-change hook with the cell label", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		hook := NewMockHook(mockCtrl)
		c.AcceptHook(hook)

		s := NewState(c, 1).WithLabel("count")

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(HookPosStateChange))

			change := ctx.Item.(StateChange)
			Expect(change.Label).To(Equal("count"))
			Expect(change.From).To(Equal(1))
			Expect(change.To).To(Equal(2))
		})

		s.Set(2)
	})

	Context("with debounce", func() {
		It("should apply only the last write of a burst", func() {
			onChangeCalls := 0
			s := NewState(c, 0).
				WithLabel("debounced").
				WithOnChange(func(_, _ int) { onChangeCalls++ }).
				WithDebounce(50 * time.Millisecond)

			s.Set(1)
			s.Set(2)
			s.Set(3)

			Expect(s.Get()).To(Equal(0))
			Expect(s.IsDebouncing()).To(BeTrue())

			Expect(clk.WaitAdvance(
				50*time.Millisecond, time.Second, 3)).To(Succeed())

			Eventually(s.Get).Should(Equal(3))
			Eventually(func() int { return onChangeCalls }).Should(Equal(1))
			Eventually(s.IsDebouncing).Should(BeFalse())
		})
	})

	Context("with throttle", func() {
		It("should apply the first write and drop writes in the window", func() {
			s := NewState(c, 0).
				WithLabel("throttled").
				WithThrottle(100 * time.Millisecond)

			s.Set(1)
			Expect(s.Get()).To(Equal(1))
			Expect(s.IsThrottling()).To(BeTrue())

			s.Set(2)
			Expect(s.Get()).To(Equal(1))

			Expect(clk.WaitAdvance(
				100*time.Millisecond, time.Second, 1)).To(Succeed())
			Eventually(s.IsThrottling).Should(BeFalse())

			s.Set(3)
			Expect(s.Get()).To(Equal(3))
		})
	})

	Context("on disposal", func() {
		It("should run onDispose with the final value, exactly once", func() {
			disposeCalls := 0
			var lastValue int
			s := NewState(c, 1).
				WithOnDispose(func(last int) {
					disposeCalls++
					lastValue = last
				})

			s.Set(7)

			c.Dispose()
			c.Dispose()

			Expect(disposeCalls).To(Equal(1))
			Expect(lastValue).To(Equal(7))
		})

		It("should panic when writing a disposed controller's state", func() {
			s := NewState(c, 1)

			c.Dispose()

			Expect(func() { s.Set(2) }).To(Panic())
		})

		It("should keep reads legal after disposal", func() {
			s := NewState(c, 1)
			s.Set(7)

			c.Dispose()

			Expect(s.Get()).To(Equal(7))
		})
	})
})
