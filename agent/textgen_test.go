package agent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/model"
)

func TestTextGeneration_GenerateText(t *testing.T) {
	b := broker.New()
	mock := model.NewMockProvider("mock")
	mock.AddResponse("summarize this", "A concise summary.")
	llm := NewTextGeneration(b, []model.Provider{mock},
		func(o *TextGenerationOptions) { o.Logger = logging.NoOpLogger{} })
	llm.Start()
	defer llm.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "generate_text",
		map[string]any{"prompt": "summarize this"}), time.Second)
	require.NotNil(t, resp)
	require.Equal(t, core.MessageResponse, resp.Type)
	assert.Equal(t, "A concise summary.", resp.Content["text"])
	assert.Equal(t, "mock", resp.Content["provider"])
	assert.NotNil(t, resp.Content["usage"])
}

func TestTextGeneration_MissingPrompt(t *testing.T) {
	b := broker.New()
	llm := NewTextGeneration(b, []model.Provider{model.NewMockProvider("mock")},
		func(o *TextGenerationOptions) { o.Logger = logging.NoOpLogger{} })
	llm.Start()
	defer llm.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "generate_text", nil), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Missing prompt parameter", resp.ErrorText())
}

func TestTextGeneration_UnknownProvider(t *testing.T) {
	b := broker.New()
	llm := NewTextGeneration(b, []model.Provider{model.NewMockProvider("mock")},
		func(o *TextGenerationOptions) { o.Logger = logging.NoOpLogger{} })
	llm.Start()
	defer llm.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "generate_text",
		map[string]any{"prompt": "hi", "provider": "cohere"}), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Provider cohere not available", resp.ErrorText())
}

func TestTextGeneration_AvailableModels(t *testing.T) {
	b := broker.New()
	llm := NewTextGeneration(b, []model.Provider{model.NewMockProvider("mock")},
		func(o *TextGenerationOptions) { o.Logger = logging.NoOpLogger{} })
	llm.Start()
	defer llm.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "get_available_models",
		map[string]any{"provider": "mock"}), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, []string{"mock-1"}, resp.Content["models"])

	all := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "get_available_models", nil), time.Second)
	require.NotNil(t, all)
	models, ok := all.Content["models"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, models, "mock")
}

type recordingModelCallLogger struct {
	logging.NoOpLogger
	mu        sync.Mutex
	providers []string
	successes []bool
}

func (l *recordingModelCallLogger) LogModelCall(provider, model string, tokens int, dur time.Duration, success bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.providers = append(l.providers, provider)
	l.successes = append(l.successes, success)
}

func TestTextGeneration_ModelCallDiagnostics(t *testing.T) {
	rec := &recordingModelCallLogger{}
	b := broker.New()
	mock := model.NewMockProvider("mock")
	llm := NewTextGeneration(b, []model.Provider{mock},
		func(o *TextGenerationOptions) { o.Logger = rec })
	llm.Start()
	defer llm.Stop()

	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentLLM, "generate_text",
		map[string]any{"prompt": "hello"}), time.Second))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.successes, 1)
	assert.Equal(t, []string{"mock"}, rec.providers)
	assert.Equal(t, []bool{true}, rec.successes)
}
