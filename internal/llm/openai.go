package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient asks for structured output via the chat-completions
// JSON-schema response format, which makes the API itself reject
// responses that stray from the schema.
type OpenAIClient struct {
	cli         *openai.Client
	model       string
	temperature float32
}

func NewOpenAIClient(apiKey, model string, temperature float32) *OpenAIClient {
	return &OpenAIClient{
		cli:         openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
	}
}

func (o *OpenAIClient) Name() string { return "OpenAI:" + o.model }
func (o *OpenAIClient) Close() error { return nil }

func (o *OpenAIClient) GenerateJSON(ctx context.Context, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if len(schema) > 0 {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "structured_response",
				Schema: schema,
				Strict: true,
			},
		}
	}
	resp, err := o.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403) {
			return nil, &AuthError{Provider: "openai", Err: err}
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrInvalidJSON
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrInvalidJSON
	}
	log.Printf("llm: %s response (%s): %d bytes", o.Name(), PhaseFrom(ctx), len(content))
	return json.RawMessage(content), nil
}
