package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/routing"
)

// DefaultTopicPattern matches every robot status topic.
const DefaultTopicPattern = "tenant/*/robot/*/status"

// Envelope is the wire shape of a published status message. The broker
// bridge authenticates the device connection and stamps the tenant and
// subject; the payload is passed through opaque.
type Envelope struct {
	Tenant  string          `json:"tenant"`
	Subject string          `json:"subject"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes one routed message. *routing.Router satisfies it.
type Handler interface {
	Route(ctx context.Context, msg routing.Message) error
}

// Subscriber drains status messages from Redis pub/sub channels and feeds
// them to the router. The channel name carries the topic.
type Subscriber struct {
	client  *redis.Client
	handler Handler
	pattern string
	logger  *observability.Logger
}

// Config configures a subscriber.
type Config struct {
	RedisURL     string
	TopicPattern string
}

// NewSubscriber connects to Redis and verifies the connection.
func NewSubscriber(cfg Config, handler Handler, logger *observability.Logger) (*Subscriber, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewSubscriberWithClient(client, cfg.TopicPattern, handler, logger), nil
}

// NewSubscriberWithClient wraps an existing client, used by tests.
func NewSubscriberWithClient(client *redis.Client, pattern string, handler Handler, logger *observability.Logger) *Subscriber {
	if pattern == "" {
		pattern = DefaultTopicPattern
	}
	return &Subscriber{
		client:  client,
		handler: handler,
		pattern: pattern,
		logger:  logger,
	}
}

// Run subscribes to the topic pattern and processes messages until ctx is
// cancelled. Individual message failures are logged and dropped; the loop
// keeps draining.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.PSubscribe(ctx, s.pattern)
	defer pubsub.Close()

	// Fail fast if the subscription itself could not be established.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", s.pattern, err)
	}

	s.logger.WithField("pattern", s.pattern).Info("ingest subscriber started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, topic string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.WithError(err).WithField("topic", topic).Warn("dropping undecodable message")
		return
	}

	err := s.handler.Route(ctx, routing.Message{
		Topic:            topic,
		PublisherTenant:  env.Tenant,
		PublisherSubject: env.Subject,
		Payload:          env.Payload,
	})
	if err != nil {
		s.logger.WithError(err).WithField("topic", topic).Warn("message not routed")
	}
}

// Close closes the underlying client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}
