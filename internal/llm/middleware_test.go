package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// scripted returns canned responses/errors in order and counts calls.
type scripted struct {
	calls int
	fn    func(call int) (json.RawMessage, error)
}

func (s *scripted) Name() string { return "scripted" }
func (s *scripted) Close() error { return nil }
func (s *scripted) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	s.calls++
	return s.fn(s.calls)
}

func TestRetry_RecoversFromTransientFailure(t *testing.T) {
	inner := &scripted{fn: func(call int) (json.RawMessage, error) {
		if call < 3 {
			return nil, errors.New("transient")
		}
		return json.RawMessage(`{}`), nil
	}}
	c := Chain(inner, Retry(3, time.Millisecond))
	raw, err := c.GenerateJSON(context.Background(), "", "hi", nil)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if string(raw) != `{}` || inner.calls != 3 {
		t.Fatalf("raw=%s calls=%d", raw, inner.calls)
	}
}

func TestRetry_AuthErrorIsPermanent(t *testing.T) {
	inner := &scripted{fn: func(int) (json.RawMessage, error) {
		return nil, &AuthError{Provider: "test", Err: errors.New("401")}
	}}
	c := Chain(inner, Retry(3, time.Millisecond))
	_, err := c.GenerateJSON(context.Background(), "", "hi", nil)
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("auth errors must not be retried, calls=%d", inner.calls)
	}
}

func TestCached_MemoizesIdenticalRequests(t *testing.T) {
	inner := &scripted{fn: func(int) (json.RawMessage, error) {
		return json.RawMessage(`{"n":1}`), nil
	}}
	c := Chain(inner, Cached(8))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.GenerateJSON(ctx, "sys", "same prompt", nil); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("identical requests must hit the API once, calls=%d", inner.calls)
	}

	if _, err := c.GenerateJSON(ctx, "sys", "different prompt", nil); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Fatalf("distinct request must pass through, calls=%d", inner.calls)
	}
}

func TestCached_FreshResponseSkipsLookupAndRefreshes(t *testing.T) {
	inner := &scripted{fn: func(call int) (json.RawMessage, error) {
		return json.RawMessage(`{"n":` + string(rune('0'+call)) + `}`), nil
	}}
	c := Chain(inner, Cached(8))
	ctx := context.Background()

	raw, err := c.GenerateJSON(ctx, "sys", "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"n":1}` {
		t.Fatalf("raw=%s", raw)
	}

	raw, err = c.GenerateJSON(FreshResponse(ctx), "sys", "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"n":2}` || inner.calls != 2 {
		t.Fatalf("fresh request must reach the API, raw=%s calls=%d", raw, inner.calls)
	}

	// The refreshed response replaces the memoized one.
	raw, err = c.GenerateJSON(ctx, "sys", "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"n":2}` || inner.calls != 2 {
		t.Fatalf("cache must serve the refreshed response, raw=%s calls=%d", raw, inner.calls)
	}
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	inner := &scripted{fn: func(call int) (json.RawMessage, error) {
		if call == 1 {
			return nil, errors.New("boom")
		}
		return json.RawMessage(`{}`), nil
	}}
	c := Chain(inner, Cached(8))
	ctx := context.Background()

	if _, err := c.GenerateJSON(ctx, "", "p", nil); err == nil {
		t.Fatal("first call should fail")
	}
	if _, err := c.GenerateJSON(ctx, "", "p", nil); err != nil {
		t.Fatalf("second call should reach the API and succeed: %v", err)
	}
}

func TestRateLimited_DisabledWithZeroRPS(t *testing.T) {
	inner := &scripted{fn: func(int) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}}
	c := Chain(inner, RateLimited(0, 0))
	if c != Client(inner) {
		// RateLimited(0, ...) must be a no-op wrapper-free pass-through.
		t.Fatal("zero rps must disable the limiter")
	}
}

func TestRPSLimiter_AcquireHonorsCancellation(t *testing.T) {
	rl := newRPSLimiter(0.001, 1)
	defer rl.Stop()
	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatalf("initial burst token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Acquire(ctx); err == nil {
		t.Fatal("empty bucket must block until context deadline")
	}
}

func TestPhaseContext(t *testing.T) {
	ctx := WithPhase(context.Background(), "extract")
	if PhaseFrom(ctx) != "extract" {
		t.Fatalf("got %q", PhaseFrom(ctx))
	}
	if PhaseFrom(context.Background()) != "" {
		t.Fatal("missing phase must be empty")
	}
}
