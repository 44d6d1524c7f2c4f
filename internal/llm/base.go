package llm

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
)

// requestsPerSecond/requestBurst bound how fast a single adapter issues
// requests upstream, independent of the exponential-backoff retry delay
// below — the limiter smooths steady-state call rate, backoff handles
// failure recovery.
const (
	requestsPerSecond = 5
	requestBurst      = 5
)

// base holds the retry and stats accounting shared by every adapter, so
// individual providers only implement request/response conversion and
// stream decoding.
type base struct {
	name       string
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter

	mu    sync.Mutex
	stats ProviderStats
}

func newBase(name string, maxRetries int, retryDelay time.Duration) base {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return base{
		name:       name,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

// retry runs op with exponential backoff, stopping as soon as classify
// reports a non-retryable error or the context is cancelled. Each attempt
// first waits on the token-bucket limiter so a single adapter never bursts
// requests upstream faster than requestsPerSecond.
func (b *base) retry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		code := engerrors.ClassifyProviderError(unwrapProviderCode(err))
		if !code.IsRetryable() {
			return err
		}
		if attempt >= b.maxRetries {
			break
		}
		b.recordRetry()
		backoff := b.retryDelay * time.Duration(math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func unwrapProviderCode(err error) error {
	if pe, ok := err.(*engerrors.ProviderError); ok && pe.Cause != nil {
		return pe.Cause
	}
	return err
}

func (b *base) recordRetry() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.RetryCount++
}

func (b *base) recordRequest(success bool, inputTokens, outputTokens int, costUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.RequestCount++
	if success {
		b.stats.SuccessCount++
	} else {
		b.stats.FailureCount++
	}
	b.stats.TotalInputTokens += inputTokens
	b.stats.TotalOutputTokens += outputTokens
	b.stats.TotalCostUSD += costUSD
	b.stats.LastRequestAt = time.Now()
}

func (b *base) snapshot() ProviderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// estimateTokens is a chars/4 heuristic, rounded up.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
