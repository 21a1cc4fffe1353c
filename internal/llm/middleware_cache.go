package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FreshResponse marks the context so the cached middleware skips the
// lookup and refreshes the entry from the backend. Callers re-issuing
// a request because the memoized response was unusable need this, or
// the cache would replay the same bad payload forever.
func FreshResponse(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

type freshKey struct{}

func wantFresh(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}

// Cached memoizes successful responses keyed by a hash of the full
// request. Identical prompts within one run cost one API call, which
// also keeps re-runs over unchanged rule files deterministic.
func Cached(size int) Middleware {
	if size <= 0 {
		size = 256
	}
	return func(next Client) Client {
		c, err := lru.New[string, json.RawMessage](size)
		if err != nil {
			// Only reachable with size <= 0, handled above.
			return next
		}
		return &cached{next: next, cache: c}
	}
}

type cached struct {
	next  Client
	cache *lru.Cache[string, json.RawMessage]
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }

func (c *cached) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	key := requestKey(system, user, schema)
	if !wantFresh(ctx) {
		if raw, ok := c.cache.Get(key); ok {
			return raw, nil
		}
	}
	raw, err := c.next.GenerateJSON(ctx, system, user, schema)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, raw)
	return raw, nil
}

func requestKey(system, user string, schema json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(user))
	h.Write([]byte{0})
	h.Write(schema)
	return hex.EncodeToString(h.Sum(nil))
}
