package core

import (
	"time"

	"github.com/google/uuid"
)

// AgentType identifies one of the fixed agent roles in the system. Every
// message is addressed from one role to another; the broker routes on the
// receiver role.
type AgentType string

const (
	// AgentOrchestrator coordinates all other agents and routes commands.
	AgentOrchestrator AgentType = "orchestrator"
	// AgentLLM generates text via external model providers.
	AgentLLM AgentType = "llm"
	// AgentDocumentProcessing loads, splits and embeds documents.
	AgentDocumentProcessing AgentType = "document_processing"
	// AgentInformationRetrieval owns the vector store and answers queries.
	AgentInformationRetrieval AgentType = "information_retrieval"
	// AgentDialogue manages chat sessions and user conversations.
	AgentDialogue AgentType = "dialogue"
	// AgentSecurity handles authentication and user management.
	AgentSecurity AgentType = "security"
)

// MessageType classifies a message's role in a conversation between agents.
type MessageType string

const (
	// MessageCommand requests that the receiver perform an action.
	MessageCommand MessageType = "command"
	// MessageResponse is the successful terminal answer to a command.
	MessageResponse MessageType = "response"
	// MessageError is the failing terminal answer to a command.
	MessageError MessageType = "error"
	// MessageEvent is a one-way notification with no expected answer.
	MessageEvent MessageType = "event"
	// MessageData carries bulk payloads outside the command/response flow.
	MessageData MessageType = "data"
)

// Priority is carried on the wire for compatibility. The broker does not
// reorder by priority.
type Priority string

const (
	// PriorityLow marks background traffic.
	PriorityLow Priority = "low"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks latency-sensitive traffic.
	PriorityHigh Priority = "high"
	// PriorityCritical marks traffic that must not be dropped by operators.
	PriorityCritical Priority = "critical"
)

// Message is the immutable unit of communication between agents. After
// construction it must not be mutated; responses are new messages whose
// CorrelationID references the original command's ID.
//
// Content is an open key/value payload whose shape is defined per
// (receiver, action) pair. Commands carry a required "action" string field
// inside Content; use DecodeContent to convert the payload into a typed
// request struct at the handler boundary.
type Message struct {
	ID            string         `json:"id"`
	Sender        AgentType      `json:"sender"`
	Receiver      AgentType      `json:"receiver"`
	Type          MessageType    `json:"type"`
	Priority      Priority       `json:"priority"`
	Content       map[string]any `json:"content"`
	Timestamp     time.Time      `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	ReplyTo       string         `json:"reply_to,omitempty"`
}

// NewID generates a unique identifier used for messages and correlation.
func NewID() string { return uuid.NewString() }

// NewMessage constructs a message of arbitrary type with a fresh ID and
// timestamp. Prefer the semantic constructors below.
func NewMessage(sender, receiver AgentType, mt MessageType, content map[string]any) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      mt,
		Priority:  PriorityMedium,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommand constructs a command message. The action becomes the required
// "action" field of the content payload.
func NewCommand(sender, receiver AgentType, action string, content map[string]any) Message {
	if content == nil {
		content = map[string]any{}
	}
	content["action"] = action
	return NewMessage(sender, receiver, MessageCommand, content)
}

// NewResponse constructs the successful terminal answer to the given command.
func NewResponse(original Message, content map[string]any) Message {
	m := NewMessage(original.Receiver, original.Sender, MessageResponse, content)
	m.CorrelationID = original.ID
	return m
}

// NewError constructs an error message addressed to receiver. The correlation
// id may be empty for uncorrelated failures.
func NewError(sender, receiver AgentType, description, correlationID string) Message {
	m := NewMessage(sender, receiver, MessageError, map[string]any{"error": description})
	m.CorrelationID = correlationID
	return m
}

// NewEvent constructs a one-way notification message.
func NewEvent(sender, receiver AgentType, eventType string, content map[string]any) Message {
	if content == nil {
		content = map[string]any{}
	}
	content["event_type"] = eventType
	return NewMessage(sender, receiver, MessageEvent, content)
}

// Action returns the "action" field of the content payload, or "" when absent.
func (m Message) Action() string {
	a, _ := m.Content["action"].(string)
	return a
}

// IsTerminal reports whether this message is a terminal answer (Response or
// Error) eligible for correlated delivery to a waiting caller.
func (m Message) IsTerminal() bool {
	return m.Type == MessageResponse || m.Type == MessageError
}

// ErrorText returns the "error" field of an Error message, or "" for other
// message types.
func (m Message) ErrorText() string {
	s, _ := m.Content["error"].(string)
	return s
}

// WithPriority returns a copy of the message carrying the given priority.
func (m Message) WithPriority(p Priority) Message {
	m.Priority = p
	return m
}
