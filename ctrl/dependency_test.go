package ctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dependency", func() {
	var (
		producer *ControllerBase
		consumer *ControllerBase
		n        *State[int]
	)

	BeforeEach(func() {
		producer = NewControllerBase("Producer")
		consumer = NewControllerBase("Consumer")
		n = NewState(producer, 0).WithLabel("n")
	})

	It("should fire onChange once with the seed value at bind time", func() {
		var calls [][2]int
		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(from, to int) {
				calls = append(calls, [2]int{from, to})
			})

		n.Set(5)
		consumer.AddDependency(dep)

		Expect(calls).To(HaveLen(1))
		Expect(calls[0]).To(Equal([2]int{5, 5}))
	})

	It("should not fire the seed when immediate fire is disabled", func() {
		calls := 0
		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(_, _ int) { calls++ }).
			WithoutImmediateFire()

		consumer.AddDependency(dep)

		Expect(calls).To(Equal(0))
	})

	It("should propagate a changed selection and broadcast the consumer", func() {
		countLength := 0
		consumerBroadcasts := 0

		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(_, next int) {
				countLength = next * 2
			}).
			WithoutImmediateFire()
		consumer.AddDependency(dep)
		consumer.AddListener(func() { consumerBroadcasts++ })

		n.Set(3)

		Expect(countLength).To(Equal(6))
		Expect(consumerBroadcasts).To(Equal(1))
	})

	It("should stay silent when the selection does not change", func() {
		calls := 0
		other := NewState(producer, "unrelated").WithLabel("other")

		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(_, _ int) { calls++ }).
			WithoutImmediateFire()
		consumer.AddDependency(dep)

		// The producer broadcasts, but the selected slice is unchanged.
		other.Set("changed")

		Expect(calls).To(Equal(0))
	})

	It("should pass the replaced and the new selection to onChange", func() {
		var gotFrom, gotTo int
		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(from, to int) {
				gotFrom, gotTo = from, to
			}).
			WithoutImmediateFire()
		consumer.AddDependency(dep)

		n.Set(4)

		Expect(gotFrom).To(Equal(0))
		Expect(gotTo).To(Equal(4))
		Expect(dep.Current()).To(Equal(4))
	})

	It("should unbind from the producer when the consumer is disposed", func() {
		calls := 0
		dep := NewDependency(producer, func() int { return n.Get() }).
			WithOnChange(func(_, _ int) { calls++ }).
			WithoutImmediateFire()
		consumer.AddDependency(dep)

		consumer.Dispose()
		n.Set(9)

		Expect(calls).To(Equal(0))
	})

	It("should survive the producer being disposed first", func() {
		dep := NewDependency(producer, func() int { return n.Get() }).
			WithoutImmediateFire()
		consumer.AddDependency(dep)

		producer.Dispose()

		Expect(consumer.Disposed()).To(BeFalse())
		consumer.Dispose()
	})

	It("should panic when adding a dependency to a disposed consumer", func() {
		dep := NewDependency(producer, func() int { return n.Get() })

		consumer.Dispose()

		Expect(func() { consumer.AddDependency(dep) }).To(Panic())
	})
})
