package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Noop drops every message. Used when no broker is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, msg Message) error { return nil }

var _ Client = Noop{}
