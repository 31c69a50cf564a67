package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/model"
)

type generateTextRequest struct {
	Prompt        string   `json:"prompt"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	Temperature   float64  `json:"temperature"`
	MaxTokens     int64    `json:"max_tokens"`
	TopP          float64  `json:"top_p"`
	StopSequences []string `json:"stop_sequences"`
}

type availableModelsRequest struct {
	Provider string `json:"provider"`
}

// TextGeneration fronts the registered model providers on the bus. Requests
// pick a provider by name; omitting it selects the default.
type TextGeneration struct {
	*BaseAgent

	providers       map[string]model.Provider
	defaultProvider string
	callTimeout     time.Duration
}

// TextGenerationOptions configures a TextGeneration agent.
type TextGenerationOptions struct {
	Logger logging.Logger
	// DefaultProvider names the provider used when a request omits one.
	// Defaults to the first registered provider.
	DefaultProvider string
	// CallTimeout bounds each provider call. Defaults to 60s.
	CallTimeout time.Duration
}

// NewTextGeneration constructs the llm agent over the given providers.
func NewTextGeneration(b *broker.Broker, providers []model.Provider, optFns ...func(o *TextGenerationOptions)) *TextGeneration {
	opts := TextGenerationOptions{
		Logger:      logging.NewDefaultSlogLogger(),
		CallTimeout: 60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]model.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	defaultProvider := opts.DefaultProvider
	if defaultProvider == "" && len(providers) > 0 {
		defaultProvider = providers[0].Name()
	}

	a := &TextGeneration{
		providers:       byName,
		defaultProvider: defaultProvider,
		callTimeout:     opts.CallTimeout,
	}
	a.BaseAgent = NewBaseAgent(core.AgentLLM, b, a, opts.Logger)
	return a
}

// HandleMessage implements MessageHandler.
func (a *TextGeneration) HandleMessage(msg core.Message) error {
	if msg.Type != core.MessageCommand {
		return nil
	}
	switch msg.Action() {
	case "generate_text":
		a.handleGenerateText(msg)
	case "get_available_models":
		a.handleAvailableModels(msg)
	default:
		a.SendError(msg.Sender, fmt.Sprintf("Unknown action: %s", msg.Action()), msg.ID)
	}
	return nil
}

func (a *TextGeneration) handleGenerateText(msg core.Message) {
	var req generateTextRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid generate_text request: %s", err), msg.ID)
		return
	}
	if req.Prompt == "" {
		a.SendError(msg.Sender, "Missing prompt parameter", msg.ID)
		return
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = a.defaultProvider
	}
	provider, ok := a.providers[providerName]
	if !ok {
		a.SendError(msg.Sender, fmt.Sprintf("Provider %s not available", providerName), msg.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.callTimeout)
	defer cancel()

	start := time.Now()
	resp, err := provider.GenerateText(ctx, model.GenerateRequest{
		Prompt:        req.Prompt,
		Model:         req.Model,
		Temperature:   req.Temperature,
		MaxTokens:     req.MaxTokens,
		TopP:          req.TopP,
		StopSequences: req.StopSequences,
	})
	if err != nil {
		a.recordModelCall(providerName, req.Model, 0, start, false, err)
		a.Logger().Error("error generating text", "provider", providerName, "error", err.Error())
		a.SendError(msg.Sender, fmt.Sprintf("Error generating text: %s", err), msg.ID)
		return
	}
	a.recordModelCall(resp.Provider, resp.Model, resp.Usage.TotalTokens, start, true, nil)

	a.SendResponse(msg, map[string]any{
		"text":          resp.Text,
		"model":         resp.Model,
		"provider":      resp.Provider,
		"usage":         resp.Usage,
		"finish_reason": resp.FinishReason,
	})
}

// modelCallRecorder is the diagnostics surface of logging.IaraLogger. The
// agent upgrades to it when the configured logger provides it.
type modelCallRecorder interface {
	LogModelCall(provider, model string, tokens int, dur time.Duration, success bool, err error)
}

func (a *TextGeneration) recordModelCall(provider, modelID string, tokens int, start time.Time, success bool, err error) {
	if rec, ok := a.Logger().(modelCallRecorder); ok {
		rec.LogModelCall(provider, modelID, tokens, time.Since(start), success, err)
	}
}

func (a *TextGeneration) handleAvailableModels(msg core.Message) {
	var req availableModelsRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid get_available_models request: %s", err), msg.ID)
		return
	}

	if req.Provider != "" {
		provider, ok := a.providers[req.Provider]
		if !ok {
			a.SendError(msg.Sender, fmt.Sprintf("Provider %s not available", req.Provider), msg.ID)
			return
		}
		a.SendResponse(msg, map[string]any{"provider": req.Provider, "models": provider.AvailableModels()})
		return
	}

	all := make(map[string]any, len(a.providers))
	for name, p := range a.providers {
		all[name] = p.AvailableModels()
	}
	a.SendResponse(msg, map[string]any{"models": all})
}
