package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderCannedResponse(t *testing.T) {
	p := NewMockProvider("mock")
	p.AddResponse("hello", "hi there")

	resp, err := p.GenerateText(context.Background(), GenerateRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "mock", resp.Provider)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockProviderFallbackEcho(t *testing.T) {
	p := NewMockProvider("")
	resp, err := p.GenerateText(context.Background(), GenerateRequest{Prompt: "unseen"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "unseen")
	assert.Equal(t, "mock", p.Name())
}

func TestMockProviderEmptyPrompt(t *testing.T) {
	p := NewMockProvider("mock")
	_, err := p.GenerateText(context.Background(), GenerateRequest{})
	assert.Error(t, err)
}

func TestMockProviderContextCancelled(t *testing.T) {
	p := NewMockProvider("mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GenerateText(ctx, GenerateRequest{Prompt: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
}
