package tracing

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/tebeka/atexit"
)

// CSVTracer stores transitions into a CSV file. Transitions are buffered and
// written on Flush; a final flush is registered at process exit.
type CSVTracer struct {
	mu          sync.Mutex
	file        *os.File
	writer      *csv.Writer
	transitions []Transition
	bufferSize  int
}

// NewCSVTracer creates a tracer writing to the file at path. An existing
// file is overwritten.
func NewCSVTracer(path string) *CSVTracer {
	file, err := os.Create(path)
	if err != nil {
		panic(err)
	}

	t := &CSVTracer{
		file:       file,
		writer:     csv.NewWriter(file),
		bufferSize: 1000,
	}

	err = t.writer.Write([]string{
		"ID", "Controller", "Kind", "Subject",
		"From", "To", "Error", "Detail", "Time",
	})
	if err != nil {
		panic(err)
	}
	t.writer.Flush()

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})

	return t
}

// Record buffers one transition.
func (t *CSVTracer) Record(tr Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transitions = append(t.transitions, tr)
	if len(t.transitions) >= t.bufferSize {
		t.flushLocked()
	}
}

// Flush writes the buffered transitions to the file.
func (t *CSVTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushLocked()
}

func (t *CSVTracer) flushLocked() {
	for _, tr := range t.transitions {
		err := t.writer.Write([]string{
			tr.ID,
			tr.Controller,
			tr.Kind,
			tr.Subject,
			tr.From,
			tr.To,
			tr.Error,
			tr.Detail,
			strconv.FormatInt(tr.Time, 10),
		})
		if err != nil {
			panic(err)
		}
	}

	t.transitions = nil
	t.writer.Flush()

	if err := t.writer.Error(); err != nil {
		panic(err)
	}
}
