// Package queue dispatches import jobs to background workers.
package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Handler consumes one message.
type Handler func(ctx context.Context, msg Message) error
