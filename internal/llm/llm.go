// Package llm wraps the external text-generation capability behind a
// small client interface. Providers (Gemini, OpenAI, fake) only do the
// API call itself; cross-cutting concerns such as retries, caching,
// rate limiting and logging are layered on via Middleware.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client issues one structured-output request. Every call is
// independently fallible and non-deterministic in latency; callers
// must not assume ordering between concurrent calls.
type Client interface {
	Name() string
	// GenerateJSON sends system/user prompts plus a JSON schema the
	// response must satisfy, and returns the raw JSON payload.
	GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error)
	Close() error
}

// ErrInvalidJSON marks a response the provider produced but that is
// not usable JSON.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// AuthError is a credential or authorization failure. It is permanent:
// retry middleware gives up on it immediately and the pipeline aborts.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("llm: %s authorization failed: %v", e.Provider, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

// IsAuth reports whether err carries an AuthError anywhere in its chain.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

type phaseKey struct{}

// WithPhase tags ctx with the pipeline phase issuing the call, for
// logs and for the fake client's canned responses.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey{}, phase)
}

// PhaseFrom returns the phase tag, or "" when absent.
func PhaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(phaseKey{}).(string); ok {
		return v
	}
	return ""
}
