package dnac

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ap-monitor/internal/observability/metrics"
)

// errRateLimited marks a single 429 answer inside a retry loop. It never
// escapes the package; exhausted budgets surface as RateLimitedError.
var errRateLimited = errors.New("dnac: rate limited")

// retryPolicy bounds how often a fetch is retried after a 429 answer and how
// long to wait between attempts.
type retryPolicy struct {
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// bulkRetryPolicy waits a fixed cooldown between attempts. The controller
// sheds load from the large list endpoints in whole-minute windows, so
// exponential growth buys nothing there.
func bulkRetryPolicy(cooldown time.Duration, attempts int) retryPolicy {
	return retryPolicy{
		maxAttempts: attempts,
		newBackOff: func() backoff.BackOff {
			return backoff.NewConstantBackOff(cooldown)
		},
	}
}

// lookupRetryPolicy backs off exponentially with jitter for the small
// per-item endpoints.
func lookupRetryPolicy(initial time.Duration, attempts int) retryPolicy {
	return retryPolicy{
		maxAttempts: attempts,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = initial
			bo.Multiplier = 2
			bo.MaxInterval = 8 * initial
			bo.MaxElapsedTime = 0
			return bo
		},
	}
}

// withRetry runs op, retrying only rate-limit answers within the policy
// budget. Any other error, including UnavailableError, passes through on the
// first occurrence.
func (c *Client) withRetry(ctx context.Context, endpoint string, policy retryPolicy, op func() error) error {
	bo := policy.newBackOff()
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, errRateLimited) {
			return err
		}
		if attempt >= policy.maxAttempts {
			return &RateLimitedError{Endpoint: endpoint, Attempts: attempt}
		}
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return &RateLimitedError{Endpoint: endpoint, Attempts: attempt}
		}
		metrics.IncRateLimitRetry(endpoint)
		c.log.Warn().Str("endpoint", endpoint).Dur("cooldown", wait).Int("attempt", attempt).Msg("rate limited, backing off")
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}
