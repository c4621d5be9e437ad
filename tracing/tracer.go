package tracing

// A Tracer stores transition records in some backend.
type Tracer interface {
	// Record stores one transition.
	Record(t Transition)

	// Flush forces buffered transitions into the backend.
	Flush()
}
