package engine

// SampleSource supplies asynchronous position samples. The engine never
// assumes a delivery cadence; samples arrive whenever the source has them.
// Start may be called again after the previous handle was stopped.
type SampleSource interface {
	// Start begins delivery. onSample and onErr may be invoked from any
	// goroutine until the returned handle is stopped.
	Start(onSample func(Position), onErr func(error)) (SourceHandle, error)
}

// SourceHandle cancels sample delivery. Stop blocks until no further
// callbacks can run and tolerates being called more than once.
type SourceHandle interface {
	Stop()
}
