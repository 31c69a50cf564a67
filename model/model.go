package model

import (
	"context"
	"fmt"
)

// GenerateRequest captures the normalized text-generation input assembled by
// the llm agent from a generate_text command.
type GenerateRequest struct {
	Prompt        string   `json:"prompt"`
	Model         string   `json:"model,omitempty"`
	Temperature   float64  `json:"temperature,omitempty"`
	MaxTokens     int64    `json:"max_tokens,omitempty"`
	TopP          float64  `json:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// Usage captures token accounting for a completed generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse is the terminal result of a generation call.
type GenerateResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Provider is the minimal interface the llm agent needs from a text
// generation backend. Generation is synchronous; the message bus RPC already
// provides the blocking wait, so providers do not stream.
type Provider interface {
	// Name returns the provider key used in generate_text commands
	// ("openai", "anthropic", "mock").
	Name() string

	// GenerateText runs one completion for the request.
	GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// AvailableModels lists the model identifiers this provider serves.
	AvailableModels() []string
}

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Responses are looked up by exact prompt; unmatched prompts get a
// generic echo.
type MockProvider struct {
	name      string
	responses map[string]string
}

// NewMockProvider constructs a MockProvider registered under the given name.
func NewMockProvider(name string) *MockProvider {
	if name == "" {
		name = "mock"
	}
	return &MockProvider{name: name, responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Name implements Provider.
func (m *MockProvider) Name() string { return m.name }

// GenerateText implements Provider.
func (m *MockProvider) GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("no prompt provided")
	}
	text := m.responses[req.Prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	modelID := req.Model
	if modelID == "" {
		modelID = "mock-1"
	}
	return &GenerateResponse{
		Text:         text,
		Model:        modelID,
		Provider:     m.name,
		FinishReason: "stop",
		Usage: Usage{
			PromptTokens:     len(req.Prompt) / 4,
			CompletionTokens: len(text) / 4,
			TotalTokens:      (len(req.Prompt) + len(text)) / 4,
		},
	}, nil
}

// AvailableModels implements Provider.
func (m *MockProvider) AvailableModels() []string { return []string{"mock-1"} }
