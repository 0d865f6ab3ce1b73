package audit

import "context"

// MultiSink fans an event out to every configured sink in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink over the given destinations.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Record delivers the event to every sink.
func (m *MultiSink) Record(ctx context.Context, event Event) {
	for _, sink := range m.sinks {
		sink.Record(ctx, event)
	}
}
