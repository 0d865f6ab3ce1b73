package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/fleetgate/pkg/observability"
)

// EventType classifies audit events.
type EventType string

const (
	EventEdgeRequestRejected EventType = "edge.request_rejected"
	EventTokenValidateFail   EventType = "auth.token_validate_fail"
	EventAccessDenied        EventType = "authz.access_denied"
	EventTenantSpoofAttempt  EventType = "routing.tenant_spoof_attempt"
	EventRobotRead           EventType = "data.robot_read"
	EventRobotStatusUpdate   EventType = "data.robot_status_update"
)

// Event is a single audit record.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	TenantID  string                 `json:"tenant_id,omitempty"`
	RobotID   string                 `json:"robot_id,omitempty"`
	Subject   string                 `json:"subject,omitempty"`
	Topic     string                 `json:"topic,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent stamps an event with an ID and the current time.
func NewEvent(eventType EventType) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
	}
}

// Sink receives audit events. Record must not block request handling on
// slow consumers; the provided implementations write synchronously to fast
// local targets.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// SlogSink writes audit events through the structured logger at info
// level, one line per event.
type SlogSink struct {
	logger *observability.Logger
}

// NewSlogSink creates a sink over logger.
func NewSlogSink(logger *observability.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Record emits the event as a structured log line.
func (s *SlogSink) Record(ctx context.Context, event Event) {
	fields := map[string]interface{}{
		"audit_id":   event.ID,
		"event_type": string(event.Type),
	}
	if event.TenantID != "" {
		fields["tenant_id"] = event.TenantID
	}
	if event.RobotID != "" {
		fields["robot_id"] = event.RobotID
	}
	if event.Subject != "" {
		fields["subject"] = event.Subject
	}
	if event.Topic != "" {
		fields["topic"] = event.Topic
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	logger := s.logger
	if requestID := observability.GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}
	logger.WithFields(fields).Info("audit event")
}

// NopSink discards events.
type NopSink struct{}

// Record discards the event.
func (NopSink) Record(context.Context, Event) {}

// Recorder captures events in memory for tests. It is safe for concurrent
// use, so tests can poll it while a producer goroutine records.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends the event.
func (r *Recorder) Record(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the captured events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns captured events of the given type.
func (r *Recorder) ByType(eventType EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
