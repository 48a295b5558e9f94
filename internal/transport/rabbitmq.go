package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"sensuapi/internal/connwatch"
)

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// ConnectedFunc reports the state of the shared connection. Overridable for
// testing.
var ConnectedFunc = func(conn *amqp.ConnectionWrapper) bool {
	return conn.IsConnected()
}

// InspectorFactory allows overriding the queue inspector for testing.
var InspectorFactory = func(url string) (QueueInspector, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpInspector{conn: conn}, nil
}

// QueueInspector reads queue statistics from the broker.
type QueueInspector interface {
	Inspect(queue string) (QueueStats, error)
	IsClosed() bool
	Close() error
}

// RabbitMQConfig configures the RabbitMQ transport.
type RabbitMQConfig struct {
	URL           string
	WatchInterval time.Duration
	FatalAfter    time.Duration
}

// RabbitMQ implements Transport with one shared AMQP connection and one
// publisher per exchange kind. Queue statistics use a separate plain AMQP
// connection, because a passive declare of a missing queue closes the
// channel it runs on.
type RabbitMQ struct {
	url        string
	conn       *amqp.ConnectionWrapper
	publishers map[ExchangeKind]message.Publisher
	watcher    *connwatch.Watcher

	inspectMu sync.Mutex
	inspector QueueInspector
}

// NewRabbitMQ connects to the broker. The connection wrapper reconnects on
// its own; the watcher only observes it.
func NewRabbitMQ(cfg RabbitMQConfig, logger watermill.LoggerAdapter) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}

	conn, err := ConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   cfg.URL,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	t := &RabbitMQ{
		url:        cfg.URL,
		conn:       conn,
		publishers: make(map[ExchangeKind]message.Publisher, 2),
	}
	for _, kind := range []ExchangeKind{Direct, Fanout} {
		pub, err := PublisherFactory(publisherConfig(cfg.URL, kind), logger, conn)
		if err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("create %s publisher: %w", kind, err)
		}
		t.publishers[kind] = pub
	}

	t.watcher = connwatch.New(t.probe, cfg.WatchInterval, cfg.FatalAfter)
	t.watcher.MarkConnected(t.probe(context.Background()) == nil)
	return t, nil
}

// publisherConfig declares non-durable exchanges named after the topic and
// publishes with an empty routing key, matching how the platform's
// consumers bind their queues.
func publisherConfig(url string, kind ExchangeKind) amqp.Config {
	cfg := amqp.NewDurablePubSubConfig(url, nil)
	cfg.Exchange.Type = string(kind)
	cfg.Exchange.Durable = false
	cfg.Publish.ConfirmDelivery = true
	return cfg
}

func (t *RabbitMQ) probe(context.Context) error {
	if t.conn == nil || !ConnectedFunc(t.conn) {
		return ErrNotConnected
	}
	return nil
}

// Watcher exposes the connectivity watcher so bootstrap code can install
// lifecycle hooks and run it.
func (t *RabbitMQ) Watcher() *connwatch.Watcher {
	return t.watcher
}

// Connected reports the last observed connectivity.
func (t *RabbitMQ) Connected() bool {
	return t.watcher.Connected()
}

// Publish sends payload to exchange using the publisher for kind.
func (t *RabbitMQ) Publish(ctx context.Context, kind ExchangeKind, exchange string, payload []byte) error {
	pub, ok := t.publishers[kind]
	if !ok {
		return fmt.Errorf("unsupported exchange kind %q", kind)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := pub.Publish(exchange, msg); err != nil {
		return fmt.Errorf("publish to %s exchange %s: %w", kind, exchange, err)
	}
	return nil
}

// Stats returns message and consumer counts for queue.
func (t *RabbitMQ) Stats(ctx context.Context, queue string) (QueueStats, error) {
	if err := ctx.Err(); err != nil {
		return QueueStats{}, err
	}

	t.inspectMu.Lock()
	defer t.inspectMu.Unlock()

	if t.inspector == nil || t.inspector.IsClosed() {
		inspector, err := InspectorFactory(t.url)
		if err != nil {
			return QueueStats{}, fmt.Errorf("dial rabbitmq for stats: %w", err)
		}
		t.inspector = inspector
	}
	stats, err := t.inspector.Inspect(queue)
	if err != nil {
		return QueueStats{}, fmt.Errorf("inspect queue %s: %w", queue, err)
	}
	return stats, nil
}

// Close releases publishers and connections.
func (t *RabbitMQ) Close() error {
	var errs []error
	for kind, pub := range t.publishers {
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher: %w", kind, err))
		}
	}
	t.inspectMu.Lock()
	if t.inspector != nil {
		if err := t.inspector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stats connection: %w", err))
		}
		t.inspector = nil
	}
	t.inspectMu.Unlock()
	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

type amqpInspector struct {
	conn *amqp091.Connection
}

func (i *amqpInspector) Inspect(queue string) (QueueStats, error) {
	ch, err := i.conn.Channel()
	if err != nil {
		return QueueStats{}, err
	}
	defer ch.Close()

	q, err := ch.QueueDeclarePassive(queue, false, false, false, false, nil)
	if err != nil {
		return QueueStats{}, err
	}
	return QueueStats{Messages: q.Messages, Consumers: q.Consumers}, nil
}

func (i *amqpInspector) IsClosed() bool {
	return i.conn.IsClosed()
}

func (i *amqpInspector) Close() error {
	return i.conn.Close()
}
