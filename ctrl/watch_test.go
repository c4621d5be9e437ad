package ctrl

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Watcher", func() {
	var (
		c *ControllerBase
		n *State[int]
	)

	BeforeEach(func() {
		c = NewControllerBase("TestController")
		n = NewState(c, 1).WithLabel("n")
	})

	It("should render once with the current selection at watch time", func() {
		var rendered []int
		Watch(c,
			func() int { return n.Get() },
			func(v int) { rendered = append(rendered, v) },
		)

		Expect(rendered).To(Equal([]int{1}))
	})

	It("should re-render when the selection changes", func() {
		var rendered []int
		Watch(c,
			func() int { return n.Get() },
			func(v int) { rendered = append(rendered, v) },
		)

		n.Set(2)
		n.Set(3)

		Expect(rendered).To(Equal([]int{1, 2, 3}))
	})

	It("should not re-render when the selection is unchanged", func() {
		other := NewState(c, "x").WithLabel("other")

		renders := 0
		Watch(c,
			func() int { return n.Get() },
			func(int) { renders++ },
		)

		other.Set("y")

		Expect(renders).To(Equal(1))
	})

	It("should select derived slices", func() {
		var rendered []bool
		Watch(c,
			func() bool { return n.Get() > 2 },
			func(v bool) { rendered = append(rendered, v) },
		)

		n.Set(2)
		n.Set(5)

		Expect(rendered).To(Equal([]bool{false, true}))
	})

	It("should run onChange before each re-render, not before the initial one", func() {
		var events []string
		Watch(c,
			func() int { return n.Get() },
			func(v int) { events = append(events, fmt.Sprintf("render %d", v)) },
		).WithOnChange(func(from, to int) {
			events = append(events, fmt.Sprintf("change %d->%d", from, to))
		})

		n.Set(2)

		Expect(events).To(Equal([]string{
			"render 1", "change 1->2", "render 2",
		}))
	})

	It("should gate re-renders with a custom equality", func() {
		renders := 0
		Watch(c,
			func() int { return n.Get() },
			func(int) { renders++ },
		).WithEquals(func(a, b int) bool {
			return a%2 == b%2
		})

		n.Set(3)
		Expect(renders).To(Equal(1))

		n.Set(4)
		Expect(renders).To(Equal(2))
	})

	It("should stop re-rendering after Stop", func() {
		renders := 0
		w := Watch(c,
			func() int { return n.Get() },
			func(int) { renders++ },
		)

		w.Stop()
		n.Set(2)

		Expect(renders).To(Equal(1))
	})

	It("should tolerate Stop being called twice", func() {
		w := Watch(c,
			func() int { return n.Get() },
			func(int) {},
		)

		w.Stop()
		w.Stop()
	})

	It("should tolerate Stop after the controller is disposed", func() {
		w := Watch(c,
			func() int { return n.Get() },
			func(int) {},
		)

		c.Dispose()
		w.Stop()
	})
})
