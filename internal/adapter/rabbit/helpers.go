package rabbit

import (
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
)

// isRetryable reports whether the handler error warrants another delivery
// attempt. Precondition failures are final (the ride already moved on) and
// malformed payloads never get better.
func isRetryable(err error) bool {
	if oneOf(err, types.ErrPreconditionFailed, types.ErrMalformed, types.ErrRideNotFound) {
		return false
	}
	return true
}

func oneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for range n {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(sleep)
	}
	return err
}

// retryCount reads the attempt counter a previous republish stored in the
// message headers. First delivery carries no header and counts as zero.
func retryCount(headers amqp.Table) int {
	v, ok := headers[headerRetryCount]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// backoffFor returns the capped exponential delay before the given attempt:
// attempt 1 waits base, each following attempt doubles it up to max.
func backoffFor(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}
