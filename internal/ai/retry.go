package ai

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Embedder is the minimal embedding surface the retry wrapper decorates.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetryingEmbedder retries transient embedding failures with exponential
// backoff. Generation is deliberately not wrapped: a retried generation can
// still hallucinate differently and the callers treat failures as terminal.
type RetryingEmbedder struct {
	inner      Embedder
	maxElapsed time.Duration
}

// NewRetryingEmbedder wraps an embedder. maxElapsed bounds the total retry
// budget per call.
func NewRetryingEmbedder(inner Embedder, maxElapsed time.Duration) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, maxElapsed: maxElapsed}
}

// Embed calls the inner embedder, retrying on error until the budget or the
// context runs out.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = r.maxElapsed

	err := backoff.Retry(func() error {
		var err error
		vec, err = r.inner.Embed(ctx, text)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return vec, nil
}
