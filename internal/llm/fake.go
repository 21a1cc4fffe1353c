package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FakeClient returns deterministic canned payloads per phase for
// offline runs and tests. Same inputs, same outputs, byte for byte.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	switch PhaseFrom(ctx) {
	case "filter":
		return f.filter(user), nil
	case "refine":
		return f.refine(user), nil
	case "extract":
		return f.extract(user), nil
	}
	return json.RawMessage(`{}`), nil
}

// The prompts embed worked examples, so the fake keys off the rule
// line at the end of the prompt rather than the whole text.
func (f *FakeClient) filter(user string) json.RawMessage {
	low := strings.ToLower(lastLine(user))
	lintable := false
	for _, hint := range []string{"no ", "not ", "don't", "dont ", "never", "avoid", "disallow", "use ", "=="} {
		if strings.Contains(low, hint) {
			lintable = true
			break
		}
	}
	// Human-directed advice is never lintable, whatever the phrasing.
	for _, hint := range []string{"be nice", "be careful", "coworker", "validate with the user"} {
		if strings.Contains(low, hint) {
			lintable = false
			break
		}
	}
	return mustJSON(map[string]any{"lintable": lintable, "reason": "fake verdict"})
}

func (f *FakeClient) refine(user string) json.RawMessage {
	// Everything is treated as already atomic.
	line := lastLine(user)
	return mustJSON(map[string]any{
		"outcome":       "passed_through",
		"refined_rules": []string{line},
	})
}

func (f *FakeClient) extract(user string) json.RawMessage {
	low := strings.ToLower(lastLine(user))
	var flags []map[string]any
	switch {
	case strings.Contains(low, "default parameter"):
		flags = append(flags, map[string]any{
			"type": "selector", "value": "AssignmentPattern", "severity": "error",
			"message":           "No default parameters allowed!",
			"violation_example": "function foo(x = 0) {}",
		})
	case strings.Contains(strings.ReplaceAll(low, "===", ""), "=="):
		flags = append(flags, map[string]any{
			"type": "operator", "value": "==", "severity": "error",
		})
	case strings.Contains(low, "console.log"):
		flags = append(flags, map[string]any{
			"type": "property", "value": "log", "context": "console", "severity": "error",
		})
	case strings.Contains(low, "var"):
		flags = append(flags, map[string]any{
			"type": "keyword", "value": "var", "severity": "warn",
		})
	}
	if flags == nil {
		flags = []map[string]any{}
	}
	return mustJSON(map[string]any{"flags": flags})
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(lines[i]); t != "" && t != "---" {
			return t
		}
	}
	return ""
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fake llm: marshal: %v", err))
	}
	return b
}
