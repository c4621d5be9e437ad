package tracing

import "log"

// LogTracer writes one line per transition to a standard logger. It is the
// diagnostic-tracing capability that callers inject per controller; there is
// no process-wide verbosity flag.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a tracer that writes to the given logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	if logger == nil {
		panic("log tracer requires a logger")
	}

	return &LogTracer{logger: logger}
}

// Record writes the transition as one log line.
func (t *LogTracer) Record(tr Transition) {
	switch {
	case tr.Error != "":
		t.logger.Printf("%s %s [%s] %q -> %q error=%q",
			tr.Controller, tr.Kind, tr.Subject, tr.From, tr.To, tr.Error)
	case tr.From != "" || tr.To != "":
		t.logger.Printf("%s %s [%s] %q -> %q",
			tr.Controller, tr.Kind, tr.Subject, tr.From, tr.To)
	default:
		t.logger.Printf("%s %s [%s]", tr.Controller, tr.Kind, tr.Subject)
	}
}

// Flush does nothing; the logger is unbuffered.
func (t *LogTracer) Flush() {}
