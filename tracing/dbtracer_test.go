package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeRecorder captures inserts without a database.
type fakeRecorder struct {
	tables  map[string][]any
	flushes int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{tables: make(map[string][]any)}
}

func (r *fakeRecorder) CreateTable(tableName string, _ any) {
	r.tables[tableName] = nil
}

func (r *fakeRecorder) Insert(tableName string, entry any) {
	if _, ok := r.tables[tableName]; !ok {
		panic("table " + tableName + " does not exist")
	}
	r.tables[tableName] = append(r.tables[tableName], entry)
}

func (r *fakeRecorder) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for t := range r.tables {
		tables = append(tables, t)
	}
	return tables
}

func (r *fakeRecorder) Flush() {
	r.flushes++
}

var _ = Describe("DBTracer", func() {
	var (
		backend *fakeRecorder
		tracer  *DBTracer
	)

	BeforeEach(func() {
		backend = newFakeRecorder()
		tracer = NewDBTracer(backend)
	})

	It("should create the transitions table", func() {
		Expect(backend.ListTables()).To(ContainElement("transitions"))
	})

	It("should insert one row per transition", func() {
		tracer.Record(Transition{
			ID:         "1",
			Controller: "Traced",
			Kind:       KindCommandStart,
			Subject:    "work",
			Time:       7,
		})

		rows := backend.tables["transitions"]
		Expect(rows).To(HaveLen(1))

		entry := rows[0].(TransitionTableEntry)
		Expect(entry.ID).To(Equal("1"))
		Expect(entry.Controller).To(Equal("Traced"))
		Expect(entry.Kind).To(Equal(KindCommandStart))
		Expect(entry.Subject).To(Equal("work"))
		Expect(entry.Time).To(Equal(int64(7)))
	})

	It("should flush the backend", func() {
		tracer.Flush()

		Expect(backend.flushes).To(Equal(1))
	})
})
