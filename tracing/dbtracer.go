package tracing

import (
	"sync"

	"github.com/davidchow24/simple-controller/recording"
	"github.com/tebeka/atexit"
)

// TransitionTableEntry is the flat row layout of the transitions table. The
// CLI maps the same struct when reading traces back.
type TransitionTableEntry struct {
	ID         string
	Controller string
	Kind       string
	Subject    string
	From       string
	To         string
	Error      string
	Detail     string
	Time       int64
}

// DBTracer stores transitions through a recording.Recorder, one row per
// transition in the transitions table. The recorder batches inserts; a final
// flush is registered at process exit.
type DBTracer struct {
	mu      sync.Mutex
	backend recording.Recorder
}

// NewDBTracer creates a tracer backed by the given recorder.
func NewDBTracer(backend recording.Recorder) *DBTracer {
	backend.CreateTable("transitions", TransitionTableEntry{})

	t := &DBTracer{backend: backend}

	atexit.Register(func() { t.Flush() })

	return t
}

// Record inserts the transition into the transitions table.
func (t *DBTracer) Record(tr Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Insert("transitions", TransitionTableEntry{
		ID:         tr.ID,
		Controller: tr.Controller,
		Kind:       tr.Kind,
		Subject:    tr.Subject,
		From:       tr.From,
		To:         tr.To,
		Error:      tr.Error,
		Detail:     tr.Detail,
		Time:       tr.Time,
	})
}

// Flush flushes the backing recorder.
func (t *DBTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
