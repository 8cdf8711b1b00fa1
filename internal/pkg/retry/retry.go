package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/choshma-zone/storefront/internal/config"
)

// Do runs fn up to policy.Attempts times with exponential backoff and
// jitter, returning nil on the first success. The last error is returned
// when all attempts fail; ctx cancellation stops the loop early.
func Do(ctx context.Context, policy config.Retry, fn func() error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	backoff := policy.Base
	var err error

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == policy.Attempts-1 {
			break
		}

		delay := backoff
		if policy.JitterFactor > 0 {
			jitter := 1 + policy.JitterFactor*(2*r.Float64()-1)
			delay = time.Duration(float64(delay) * jitter)
		}
		if policy.Max > 0 && delay > policy.Max {
			delay = policy.Max
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if policy.Max > 0 && backoff > policy.Max {
			backoff = policy.Max
		}
	}
	return err
}
