// Package retry runs a blocking call under a bounded attempt budget.
package retry

import (
	"context"
	"time"
)

// Policy bounds the attempts made against an external service.
// Timeout applies to each attempt separately; zero means no per-attempt deadline.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration
}

// Do calls fn until it succeeds or the attempts run out, sleeping Delay between
// attempts. onFail, when set, sees every failed attempt (1-based). It returns the
// number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, onFail func(attempt int, err error)) (int, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		err = p.once(ctx, fn)
		if err == nil {
			return i, nil
		}
		if onFail != nil {
			onFail(i, err)
		}
		if i == attempts {
			break
		}
		if p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return i, ctx.Err()
			case <-t.C:
			}
		}
	}
	return attempts, err
}

func (p Policy) once(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(cctx)
}
