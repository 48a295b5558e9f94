// Package transport publishes messages onto the platform's message bus and
// reports the health of the queues the rest of the platform consumes.
package transport

import (
	"context"
	"errors"
)

// ExchangeKind selects how a message is routed.
type ExchangeKind string

const (
	// Direct delivers to the queues bound to one named exchange.
	Direct ExchangeKind = "direct"
	// Fanout broadcasts to every subscriber of a named exchange.
	Fanout ExchangeKind = "fanout"
)

// Queue names with well-known consumers on the platform side.
const (
	KeepalivesQueue = "keepalives"
	ResultsQueue    = "results"
)

// ErrNotConnected is returned by operations attempted while the bus is down.
var ErrNotConnected = errors.New("transport not connected")

// QueueStats is a point-in-time view of one queue.
type QueueStats struct {
	Messages  int
	Consumers int
}

// Transport is the message bus used by the API.
type Transport interface {
	// Publish sends payload to the named exchange and waits for the broker to
	// acknowledge it.
	Publish(ctx context.Context, kind ExchangeKind, exchange string, payload []byte) error
	Stats(ctx context.Context, queue string) (QueueStats, error)
	Connected() bool
}
