// Package analyzer turns chunked curriculum text into a structured Analysis by
// prompting a generative completion service.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/billyribeiro-ux/build-ops/internal/chunker"
	"github.com/billyribeiro-ux/build-ops/internal/llm"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
	"github.com/billyribeiro-ux/build-ops/internal/shared/metrics"
	"github.com/billyribeiro-ux/build-ops/internal/shared/retry"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

const defaultMaxAttempts = 3

// CancelCheck is consulted between chunk requests. A non-nil error aborts.
type CancelCheck func(ctx context.Context) error

// Options tunes an Analyzer.
type Options struct {
	MaxAttempts int
	// Delay defaults to 2^attempt seconds.
	Delay       func(attempt int) time.Duration
	CancelCheck CancelCheck
}

// Analyzer sends each chunk to the completer and merges partial results.
type Analyzer struct {
	llm         llm.Completer
	maxAttempts int
	delay       func(int) time.Duration
	cancelCheck CancelCheck
}

// New builds an Analyzer. A nil completer falls back to the placeholder.
func New(c llm.Completer, opts Options) *Analyzer {
	if c == nil {
		c = llm.PlaceholderClient{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Delay == nil {
		opts.Delay = retry.Exponential(time.Second)
	}
	return &Analyzer{llm: c, maxAttempts: opts.MaxAttempts, delay: opts.Delay, cancelCheck: opts.CancelCheck}
}

// Model names the model behind the completer.
func (a *Analyzer) Model() string { return llm.ModelName(a.llm) }

// WithCancelCheck returns a copy of a that consults check between chunk requests.
func (a *Analyzer) WithCancelCheck(check CancelCheck) *Analyzer {
	cp := *a
	cp.cancelCheck = check
	return &cp
}

// Analyze runs one request per chunk, in order, and merges the partial results
// when there is more than one chunk.
func (a *Analyzer) Analyze(ctx context.Context, doc chunker.Document) (Analysis, error) {
	if len(doc.Chunks) == 0 {
		return Analysis{}, apperr.Validation("analyze", "document has no chunks")
	}

	results := make([]Analysis, 0, len(doc.Chunks))
	for i, ch := range doc.Chunks {
		if i > 0 {
			if err := a.checkCancel(ctx); err != nil {
				return Analysis{}, err
			}
		}
		res, err := a.request(ctx, fmt.Sprintf("analyze chunk %d", ch.Index), chunkPrompt(ch.Content))
		if err != nil {
			return Analysis{}, err
		}
		telemetry.Info("analyzer.chunk_complete", map[string]any{
			"chunk_index": ch.Index,
			"chunks":      len(doc.Chunks),
			"days":        res.DayCount(),
		})
		results = append(results, res)
	}
	if len(results) == 1 {
		return results[0], nil
	}

	if err := a.checkCancel(ctx); err != nil {
		return Analysis{}, err
	}
	prompt, err := mergePrompt(results)
	if err != nil {
		return Analysis{}, apperr.Serialization("merge analysis", err)
	}
	return a.request(ctx, "merge analysis", prompt)
}

func (a *Analyzer) checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.cancelCheck == nil {
		return nil
	}
	return a.cancelCheck(ctx)
}

func (a *Analyzer) request(ctx context.Context, op, user string) (Analysis, error) {
	var out Analysis
	policy := retry.Policy{
		MaxAttempts: a.maxAttempts,
		Delay:       a.delay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			metrics.IncLLMRetries()
			telemetry.Warn("analyzer.retry", map[string]any{
				"op":      op,
				"attempt": attempt,
				"wait_ms": wait.Milliseconds(),
				"error":   err,
			})
		},
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		text, err := a.llm.Complete(ctx, systemPrompt, user)
		if err != nil {
			if !llm.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		parsed, err := Parse(text)
		if err != nil {
			return err
		}
		out = parsed
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Analysis{}, ctxErr
		}
		return Analysis{}, apperr.External(op, err)
	}
	return out, nil
}
