// Package llm defines the text completion capability the analyzer depends on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Completer sends one system and user prompt pair and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ModelNamer is implemented by completers that can report the model they call.
type ModelNamer interface {
	Model() string
}

// ModelName returns c's model, or "unknown".
func ModelName(c Completer) string {
	if n, ok := c.(ModelNamer); ok && n.Model() != "" {
		return n.Model()
	}
	return "unknown"
}

// StatusError is a non-2xx reply from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err may succeed on retry. Errors without status
// information (transport failures, malformed replies) are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotImplemented) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not configured")

// PlaceholderClient stands in when no provider credentials are configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, system, user string) (string, error) {
	return "", ErrNotImplemented
}

// Model names the placeholder.
func (PlaceholderClient) Model() string { return "placeholder" }

// Canned replays fixed replies in order. Once the list is exhausted the last
// reply repeats. A nil reply with a non-nil error returns the error.
type Canned struct {
	mu      sync.Mutex
	Replies []Reply
	Calls   []Call
	Name    string
}

// Reply is one canned response.
type Reply struct {
	Text string
	Err  error
}

// Call records one prompt sent to Canned.
type Call struct {
	System string
	User   string
}

// Complete returns the next canned reply.
func (c *Canned) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := len(c.Calls)
	c.Calls = append(c.Calls, Call{System: system, User: user})
	if len(c.Replies) == 0 {
		return "", errors.New("no canned replies")
	}
	if idx >= len(c.Replies) {
		idx = len(c.Replies) - 1
	}
	r := c.Replies[idx]
	return r.Text, r.Err
}

// CallCount returns how many prompts were sent.
func (c *Canned) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Model names the canned completer.
func (c *Canned) Model() string {
	if c.Name == "" {
		return "canned"
	}
	return c.Name
}

var (
	_ Completer = PlaceholderClient{}
	_ Completer = (*Canned)(nil)
)
