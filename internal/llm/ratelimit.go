package llm

import (
	"context"
	"encoding/json"
	"time"
)

// RateLimited throttles outgoing requests to at most rps per second
// with the given burst capacity. rps <= 0 disables the limiter.
func RateLimited(rps float64, burst int) Middleware {
	return func(next Client) Client {
		rl := newRPSLimiter(rps, burst)
		if rl == nil {
			return next
		}
		return &limited{next: next, rl: rl}
	}
}

type limited struct {
	next Client
	rl   *rpsLimiter
}

func (l *limited) Name() string { return l.next.Name() }
func (l *limited) Close() error { l.rl.Stop(); return l.next.Close() }

func (l *limited) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	if err := l.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return l.next.GenerateJSON(ctx, system, user, schema)
}

// rpsLimiter is a lightweight token-bucket limiter.
type rpsLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	// Pre-fill to allow an initial burst.
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}
	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full; drop token
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

func (l *rpsLimiter) Acquire(ctx context.Context) error {
	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *rpsLimiter) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
}
