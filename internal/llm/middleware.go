package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Middleware wraps a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Chain applies middlewares so that the first listed is outermost.
func Chain(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// Logged logs each request's phase, size and duration.
func Logged() Middleware {
	return func(next Client) Client {
		return &logged{next: next}
	}
}

type logged struct{ next Client }

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

func (l *logged) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	start := time.Now()
	log.Printf("llm request (%s): %d bytes", PhaseFrom(ctx), len(system)+len(user))
	raw, err := l.next.GenerateJSON(ctx, system, user, schema)
	if err != nil {
		log.Printf("llm error (%s) after %s: %v", PhaseFrom(ctx), time.Since(start).Round(time.Millisecond), err)
	}
	return raw, err
}
