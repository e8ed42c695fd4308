package tourapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultRetryDelays is the wait before the first, second and third retry.
var DefaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

const DefaultMaxRetries = 3

// retryDelay returns the wait before retry attemptNum (0-based). Attempts past
// the end of the table reuse its last entry.
func retryDelay(delays []time.Duration, attemptNum int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	if attemptNum < 0 {
		attemptNum = 0
	}
	if attemptNum >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attemptNum]
}

// tableBackoff adapts retryDelay to retryablehttp. Server Retry-After headers
// are ignored; the schedule is fixed.
func tableBackoff(delays []time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return retryDelay(delays, attemptNum)
	}
}

// checkRetry retries network failures and 5xx responses. 4xx responses,
// including 429, are returned to the caller untouched.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		return true, nil
	}
	if resp == nil {
		return true, nil
	}
	return resp.StatusCode >= http.StatusInternalServerError, nil
}

// retryLogHook records every retried attempt. attemptNum is 0 for the first try.
func (c *HTTPClient) retryLogHook(_ retryablehttp.Logger, req *http.Request, attemptNum int) {
	if attemptNum == 0 {
		return
	}
	c.metrics.TourAPIRetriesTotal.Add(req.Context(), 1)
	c.logger.WarnContext(req.Context(), "Retrying tour API request",
		slog.String("path", req.URL.Path),
		slog.Int("attempt", attemptNum),
		slog.Int("max_retries", c.http.RetryMax))
}
