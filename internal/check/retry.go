package check

import (
	"context"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// Retry re-runs a failing check a few times before accepting the FAIL.
// PASS and SKIP results return immediately; run-fatal errors are not retried.
type Retry struct {
	Inner    Check
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Name() string     { return r.Inner.Name() }
func (r *Retry) Category() string { return r.Inner.Category() }
func (r *Retry) Critical() bool   { return r.Inner.Critical() }

func (r *Retry) Run(ctx context.Context) (domain.Result, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.Result
	for i := 0; i < attempts; i++ {
		res, err := r.Inner.Run(ctx)
		if err != nil {
			return res, err
		}
		if res.Status != domain.StatusFail {
			return res, nil
		}
		last = res
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last, nil
			case <-time.After(r.Backoff):
			}
		}
	}
	// annotate details so you can see it was a retry series
	last.Details = last.Details + " (after retries)"
	return last, nil
}
