package testutil

import (
	"github.com/DMIE-inteligencia/iara/core"
)

// MessageBuilder provides a fluent helper for constructing bus messages in
// tests. Example:
//
//	msg := NewMessageBuilder().From(core.AgentDialogue).To(core.AgentLLM).
//		Action("generate_text").With("prompt", "hi").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	sender        core.AgentType
	receiver      core.AgentType
	messageType   core.MessageType
	action        string
	content       map[string]any
	correlationID string
	priority      core.Priority
}

// NewMessageBuilder creates a builder defaulting to a medium-priority command.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		messageType: core.MessageCommand,
		content:     map[string]any{},
		priority:    core.PriorityMedium,
	}
}

// From sets the sender role (chainable).
func (b *MessageBuilder) From(a core.AgentType) *MessageBuilder { b.sender = a; return b }

// To sets the receiver role (chainable).
func (b *MessageBuilder) To(a core.AgentType) *MessageBuilder { b.receiver = a; return b }

// Type overrides the message type (chainable).
func (b *MessageBuilder) Type(t core.MessageType) *MessageBuilder { b.messageType = t; return b }

// Action sets the command action (chainable).
func (b *MessageBuilder) Action(a string) *MessageBuilder { b.action = a; return b }

// With adds a content field (chainable).
func (b *MessageBuilder) With(key string, value any) *MessageBuilder {
	b.content[key] = value
	return b
}

// Correlated sets the correlation id (chainable).
func (b *MessageBuilder) Correlated(id string) *MessageBuilder { b.correlationID = id; return b }

// Priority sets the advisory priority (chainable).
func (b *MessageBuilder) Priority(p core.Priority) *MessageBuilder { b.priority = p; return b }

// Build assembles the message.
func (b *MessageBuilder) Build() core.Message {
	if b.action != "" {
		b.content["action"] = b.action
	}
	msg := core.NewMessage(b.sender, b.receiver, b.messageType, b.content)
	msg.CorrelationID = b.correlationID
	msg.Priority = b.priority
	return msg
}

// ChunkBuilder assembles document chunks for index and retrieval tests.
type ChunkBuilder struct {
	chunk core.DocumentChunk
}

// NewChunkBuilder creates a builder for a chunk of the given document.
func NewChunkBuilder(documentID string) *ChunkBuilder {
	return &ChunkBuilder{chunk: core.DocumentChunk{
		ChunkID:    core.NewID(),
		DocumentID: documentID,
	}}
}

// Content sets the chunk text (chainable).
func (b *ChunkBuilder) Content(text string) *ChunkBuilder { b.chunk.Content = text; return b }

// Number sets the chunk ordinal (chainable).
func (b *ChunkBuilder) Number(n int) *ChunkBuilder { b.chunk.ChunkNumber = n; return b }

// Embedding sets the chunk vector (chainable).
func (b *ChunkBuilder) Embedding(v []float64) *ChunkBuilder { b.chunk.Embedding = v; return b }

// Build returns the assembled chunk.
func (b *ChunkBuilder) Build() core.DocumentChunk { return b.chunk }
