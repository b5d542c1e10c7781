package publisher

import "context"

// Publisher represents a service for publishing stored-article events
type Publisher interface {
	// Publish publishes a message to a stream under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher discards every message. It is used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }

// TrimStreams does nothing
func (NopPublisher) TrimStreams(context.Context) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }
