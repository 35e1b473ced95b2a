// Package retrylimit paces calls to a rate-limited API and retries the ones
// that fail for transient reasons (429 and 5xx responses, network errors).
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultPolicy(), func() error {
//	    return client.Send(msg)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate grows on success and shrinks
// when the server pushes back.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	min, max  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooldown  time.Duration
	lastError time.Time
}

// NewAdaptiveLimiter starts at initial requests per second, staying within
// [min, max]. Success adds stepUp; pushback multiplies by stepDown.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min < 1 {
		min = 1
	}
	if initial < min {
		initial = min
	}
	if max < initial {
		max = initial
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		min:      min,
		max:      max,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate, unless the server pushed back recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > a.cooldown {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// Pushback lowers the rate.
func (a *AdaptiveLimiter) Pushback() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limiter.Limit()
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = max(a.min, min(a.max, l))
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		a.limiter.SetBurst(burstFor(l))
	}
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

// HTTPError is implemented by errors carrying an HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ErrAttemptsExhausted is wrapped by Do when every attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy configures Do.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Log          logrus.FieldLogger
}

// DefaultPolicy suits interactive chat traffic: a handful of quick retries.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  4,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Jitter:       true,
		Log:          logrus.StandardLogger(),
	}
}

// Do runs fn until it succeeds, returns a permanent or client error, ctx is
// done, or the attempts run out. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Log == nil {
		p.Log = logrus.StandardLogger()
	}

	delay := p.InitialDelay
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		last = fn()
		if last == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				p.Log.Debugf("[retry] Success after %d attempts", attempt)
			}
			return nil
		}
		if !Retryable(last) {
			return last
		}
		if lim != nil && pushback(last) {
			lim.Pushback()
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := delay
		if p.Jitter {
			wait = jitter(wait)
		}
		p.Log.WithError(last).Debugf("[retry] Attempt %d failed, sleeping %v", attempt, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = min(p.MaxDelay, time.Duration(float64(delay)*p.Multiplier))
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, p.MaxAttempts, last)
}

// Retryable reports whether err is transient. Permanent errors, context
// errors and 4xx responses other than 429 are not.
func Retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusTooManyRequests || code >= 500
	}
	return true
}

func pushback(err error) bool {
	code, ok := statusOf(err)
	return ok && (code == http.StatusTooManyRequests || code >= 500)
}

func statusOf(err error) (int, bool) {
	var h HTTPError
	if errors.As(err, &h) {
		return h.StatusCode(), true
	}
	return 0, false
}

// jitter adds up to 25% to d.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
