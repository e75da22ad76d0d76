package queue

import "context"

// Message asks a worker to run the pipeline for one import job.
type Message struct {
	ImportID   string
	RequestID  string
	EnqueuedAt string
	Version    int
}

type requestIDKey struct{}

// WithRequestID returns ctx carrying the id of the request that queued work.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
