package pipeline

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/docchunk/internal/ingest"
)

// RetryPolicy re-runs ingestion when the conversion service was unavailable
// or timed out. Other failures are returned after the first attempt.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

type retryableResult struct {
	res ingest.Result
}

func (e retryableResult) Error() string { return e.res.Error }

// Run calls fn until it returns a non-retryable result, attempts run out or
// ctx is done. It returns the last result.
func (p RetryPolicy) Run(ctx context.Context, fn func() ingest.Result, onRetry func(attempt uint, last ingest.Result)) ingest.Result {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var (
		last ingest.Result
		ran  bool
	)
	err := retry.Do(
		func() error {
			ran = true
			last = fn()
			if last.Retryable() {
				return retryableResult{res: last}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.MaxJitter(max(delay/2, time.Millisecond)),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if onRetry != nil && n+1 < attempts {
				onRetry(n+1, last)
			}
		}),
	)
	if !ran && err != nil {
		return ingest.Result{Error: err.Error(), ErrorKind: ingest.Classify(err)}
	}
	return last
}
