package resolver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// errorClass decides how a failed provider call is retried.
type errorClass int

const (
	classPermanent errorClass = iota
	classRateLimited
	classTransient
	classCancelled
)

func classify(err error) errorClass {
	if errors.Is(err, context.Canceled) {
		return classCancelled
	}
	if errors.Is(err, domain.ErrNoMatch) {
		return classPermanent
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		switch {
		case perr.RateLimited():
			return classRateLimited
		case perr.Transient():
			return classTransient
		default:
			return classPermanent
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded) {
		return classTransient
	}
	return classPermanent
}

// RetryPolicy wraps every outbound provider call.
//
// A rate-limited call waits BaseDelay * 2^attempt before the next try, up to
// MaxAttempts calls in total. A transient failure (no response, timeout, 5xx)
// is retried once after TransientDelay. Anything else is returned at once.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	TransientDelay time.Duration
	Clock          clockwork.Clock

	// OnRetry, if set, is called before each wait with "rate_limited" or "transient".
	OnRetry func(reason string)
}

// DefaultRetryPolicy waits 2s, 4s, 8s on rate limits and 1s on transient errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		BaseDelay:      time.Second,
		TransientDelay: time.Second,
		Clock:          clockwork.NewRealClock(),
	}
}

// Do runs op under the policy.
func Do[T any](ctx context.Context, p RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	clk := p.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	transientRetried := false

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}

		var wait time.Duration
		var reason string
		switch classify(err) {
		case classRateLimited:
			if attempt >= p.MaxAttempts {
				return zero, err
			}
			wait, reason = p.BaseDelay<<attempt, "rate_limited"
		case classTransient:
			if transientRetried {
				return zero, err
			}
			transientRetried = true
			wait, reason = p.TransientDelay, "transient"
		default:
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(reason)
		}
		if !sleepWithContext(ctx, clk, wait) {
			return zero, err
		}
	}
}

func sleepWithContext(ctx context.Context, clk clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clk.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
