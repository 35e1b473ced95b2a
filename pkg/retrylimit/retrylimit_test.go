package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2,
		Log:          logrus.New(),
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusBadGateway)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnClientAndPermanentErrors(t *testing.T) {
	for name, fail := range map[string]error{
		"forbidden": statusErr(http.StatusForbidden),
		"permanent": Permanent(errors.New("bad input")),
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), nil, fastPolicy(5), func() error {
				calls++
				return fail
			})
			if !errors.Is(err, fail) && err != fail {
				t.Fatalf("expected the original error, got %v", err)
			}
			if calls != 1 {
				t.Fatalf("expected a single call, got %d", calls)
			}
		})
	}
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fastPolicy(3), func() error {
		calls++
		return statusErr(http.StatusTooManyRequests)
	})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	var h HTTPError
	if !errors.As(err, &h) || h.StatusCode() != http.StatusTooManyRequests {
		t.Fatalf("last error must be wrapped, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fastPolicy(10)
	p.InitialDelay = time.Hour
	p.MaxDelay = time.Hour

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, nil, p, func() error {
		calls++
		return errors.New("network down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 6, 1, 0.5)
	lim.Pushback()
	if got := lim.Limit(); got != 2 {
		t.Fatalf("expected 2 rps after pushback, got %v", got)
	}
	lim.Pushback()
	lim.Pushback()
	if got := lim.Limit(); got != 1 {
		t.Fatalf("limit must not drop below min, got %v", got)
	}
	// Recent pushback holds the rate.
	lim.Success()
	if got := lim.Limit(); got != 1 {
		t.Fatalf("success during cooldown must not raise the rate, got %v", got)
	}

	lim.cooldown = 0
	for range 10 {
		lim.Success()
	}
	if got := lim.Limit(); got != 6 {
		t.Fatalf("limit must not exceed max, got %v", got)
	}
}

func TestRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"plain":     {errors.New("eof"), true},
		"5xx":       {statusErr(503), true},
		"429":       {statusErr(429), true},
		"404":       {statusErr(404), false},
		"permanent": {Permanent(statusErr(503)), false},
		"deadline":  {context.DeadlineExceeded, false},
	}
	for name, c := range cases {
		if got := Retryable(c.err); got != c.want {
			t.Errorf("%s: Retryable = %v, want %v", name, got, c.want)
		}
	}
}
