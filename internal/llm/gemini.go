package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON requests application/json output. The genai API takes a
// typed schema object, so the raw schema travels inside the prompt
// instead; strict validation happens on our side after decoding.
func (g *GeminiClient) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	full := user
	if len(schema) > 0 {
		full += "\n\n[OUTPUT SCHEMA]\n" + string(schema)
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}}, cfg)
	if err != nil {
		if isGeminiAuthErr(err) {
			return nil, &AuthError{Provider: "gemini", Err: err}
		}
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrInvalidJSON
	}
	txt := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(txt) == "" {
		return nil, ErrInvalidJSON
	}
	log.Printf("llm: %s response (%s): %d bytes", g.Name(), PhaseFrom(ctx), len(txt))
	return json.RawMessage(txt), nil
}

func isGeminiAuthErr(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	msg := err.Error()
	return strings.Contains(msg, "API key not valid") ||
		strings.Contains(msg, "PERMISSION_DENIED") ||
		strings.Contains(msg, "UNAUTHENTICATED")
}
