package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/tetrad/internal/model"
)

// RetryPolicy bounds how often a failing storage call is repeated.
type RetryPolicy struct {
	Attempts int           // total tries, at least 1
	Backoff  time.Duration // wait before the second try, doubled after each failure
	MaxWait  time.Duration // cap on a single wait, 0 for none
}

// DefaultRetryPolicy is used when a zero policy is supplied.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond, MaxWait: 5 * time.Second}

// Retry runs fn until it succeeds, the attempts run out or ctx is done.
func Retry(ctx context.Context, p RetryPolicy, op string, fn func() error) error {
	if p.Attempts < 1 {
		p = DefaultRetryPolicy
	}
	wait := p.Backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= p.Attempts {
			break
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("Storage call failed, retrying")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), err)
		case <-t.C:
		}
		wait *= 2
		if p.MaxWait > 0 && wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.Attempts, err)
}

// Retrying wraps a ResultRepository so that row writes and reads are retried.
// Run bookkeeping calls are passed through unchanged.
type Retrying struct {
	ResultRepository
	Policy RetryPolicy
}

// WithRetry wraps repo with policy.
func WithRetry(repo ResultRepository, policy RetryPolicy) *Retrying {
	return &Retrying{ResultRepository: repo, Policy: policy}
}

func (r *Retrying) WriteRows(ctx context.Context, rows []model.Row) error {
	return Retry(ctx, r.Policy, "write rows", func() error {
		return r.ResultRepository.WriteRows(ctx, rows)
	})
}

func (r *Retrying) ListRows(ctx context.Context, runID string) ([]model.Row, error) {
	var rows []model.Row
	err := Retry(ctx, r.Policy, "list rows", func() error {
		var err error
		rows, err = r.ResultRepository.ListRows(ctx, runID)
		return err
	})
	return rows, err
}
