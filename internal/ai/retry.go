package ai

import (
	"context"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// backoff is a capped exponential schedule shared by the HTTP runtimes.
type backoff struct {
	maxAttempts int
	base        time.Duration
	max         time.Duration
}

// attemptFunc performs one attempt. A non-nil error with retry=true asks for
// another attempt; wait, when positive, overrides the computed delay.
type attemptFunc func(ctx context.Context, attempt int) (retry bool, wait time.Duration, err error)

// run calls fn until it succeeds, returns a terminal error, the attempts are
// used up, or ctx is done.
func (b backoff) run(ctx context.Context, fn attemptFunc) error {
	delay := b.base
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		retry, wait, err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == b.maxAttempts {
			break
		}
		if wait <= 0 {
			wait = withJitter(delay)
			if b.max > 0 && wait > b.max {
				wait = b.max
			}
			delay *= 2
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	return errors.Is(err, io.EOF)
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := parseRetryAfterSeconds(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, errors.Newf("invalid Retry-After: %q", v)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
