package tracing

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogTracer", func() {
	var (
		buf    bytes.Buffer
		tracer *LogTracer
	)

	BeforeEach(func() {
		buf.Reset()
		tracer = NewLogTracer(log.New(&buf, "", 0))
	})

	It("should log the value transition", func() {
		tracer.Record(Transition{
			Controller: "Traced",
			Kind:       KindStateChange,
			Subject:    "count",
			From:       "1",
			To:         "2",
		})

		Expect(buf.String()).To(
			Equal("Traced state_change [count] \"1\" -> \"2\"\n"))
	})

	It("should log the error of a failed command", func() {
		tracer.Record(Transition{
			Controller: "Traced",
			Kind:       KindCommandEnd,
			Subject:    "work",
			Error:      "boom",
		})

		Expect(buf.String()).To(ContainSubstring(`error="boom"`))
	})

	It("should log status-only transitions without values", func() {
		tracer.Record(Transition{
			Controller: "Traced",
			Kind:       KindDispose,
		})

		Expect(buf.String()).To(Equal("Traced dispose []\n"))
	})
})
