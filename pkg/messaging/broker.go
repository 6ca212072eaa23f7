package messaging

import "context"

// Broker publishes booking lifecycle events to interested consumers
// (notification senders, activity feeds). Delivery is best-effort.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
