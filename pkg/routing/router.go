package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// ErrTenantSpoof indicates a publisher addressed a topic outside its own
// tenant. The message is dropped before any store access.
var ErrTenantSpoof = errors.New("publisher tenant does not match topic tenant")

// ErrMalformedPayload indicates a status payload that is not a JSON object.
var ErrMalformedPayload = errors.New("malformed status payload")

// Message is a status message received from the ingestion layer.
type Message struct {
	// Topic is the channel the message arrived on.
	Topic string
	// PublisherTenant is the tenant the transport authenticated the
	// publisher as. It is trusted input; the topic is not.
	PublisherTenant string
	// PublisherSubject identifies the publishing principal, for audit.
	PublisherSubject string
	// Payload is the raw status document.
	Payload []byte
}

// Router validates status messages against their publisher's tenant and
// writes accepted updates to the store.
type Router struct {
	store   store.Store
	sink    audit.Sink
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRouter creates a router. sink, logger, and metrics may be nil.
func NewRouter(s store.Store, sink audit.Sink, logger *observability.Logger, metrics *observability.Metrics) *Router {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, os.Stdout)
	}
	return &Router{
		store:   s,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Route processes one status message. The topic is parsed and validated
// before anything touches the store: a malformed topic is dropped, and a
// topic whose tenant differs from the authenticated publisher tenant is
// dropped and audited as a spoof attempt. Only then is the payload decoded
// and merged into the robot's record.
func (r *Router) Route(ctx context.Context, msg Message) error {
	key, err := ParseTopic(msg.Topic)
	if err != nil {
		r.count("malformed_topic")
		return err
	}

	if key.TenantID != msg.PublisherTenant {
		event := audit.NewEvent(audit.EventTenantSpoofAttempt)
		event.TenantID = msg.PublisherTenant
		event.RobotID = key.RobotID
		event.Subject = msg.PublisherSubject
		event.Topic = msg.Topic
		event.Reason = fmt.Sprintf("publisher tenant %q, topic tenant %q", msg.PublisherTenant, key.TenantID)
		r.sink.Record(ctx, event)

		r.logger.WithFields(map[string]interface{}{
			"publisher_tenant": msg.PublisherTenant,
			"topic":            msg.Topic,
		}).Warn("dropped spoofed status message")

		if r.metrics != nil {
			r.metrics.TenantSpoofAttemptsTotal.Inc()
		}
		r.count("spoof")
		return ErrTenantSpoof
	}

	var status map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &status); err != nil {
		r.count("malformed_payload")
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if _, err := r.store.PutRobotStatus(ctx, key, status, r.now().UTC()); err != nil {
		r.count("store_error")
		return fmt.Errorf("failed to store status for %s: %w", key, err)
	}

	event := audit.NewEvent(audit.EventRobotStatusUpdate)
	event.TenantID = key.TenantID
	event.RobotID = key.RobotID
	event.Subject = msg.PublisherSubject
	event.Topic = msg.Topic
	r.sink.Record(ctx, event)

	r.count("routed")
	return nil
}

func (r *Router) count(status string) {
	if r.metrics != nil {
		r.metrics.IngestMessagesTotal.WithLabelValues(status).Inc()
	}
}
