package tracing

import (
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CSVTracer", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "transitions.csv")
	})

	It("should write the header and the flushed transitions", func() {
		t := NewCSVTracer(path)

		t.Record(Transition{
			ID:         "1",
			Controller: "Traced",
			Kind:       KindStateChange,
			Subject:    "count",
			From:       "1",
			To:         "2",
			Time:       42,
		})
		t.Flush()

		file, err := os.Open(path)
		Expect(err).ToNot(HaveOccurred())
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		Expect(err).ToNot(HaveOccurred())

		Expect(records).To(HaveLen(2))
		Expect(records[0][0]).To(Equal("ID"))
		Expect(records[1]).To(Equal([]string{
			"1", "Traced", "state_change", "count", "1", "2", "", "", "42",
		}))
	})

	It("should write nothing but the header before Flush", func() {
		t := NewCSVTracer(path)

		t.Record(Transition{ID: "1"})

		file, err := os.Open(path)
		Expect(err).ToNot(HaveOccurred())
		defer file.Close()

		records, err := csv.NewReader(file).ReadAll()
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})
})
