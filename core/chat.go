package core

import "time"

// Citation points an assistant reply back at the chunk it was grounded on.
// Content holds a short excerpt, not the full chunk text.
type Citation struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Content    string `json:"content"`
}

// ChatMessage is a single conversational turn inside a chat session.
// Role is "user" or "assistant".
type ChatMessage struct {
	MessageID   string     `json:"message_id"`
	UserID      string     `json:"user_id"`
	SessionID   string     `json:"session_id"`
	Role        string     `json:"role"`
	Content     string     `json:"content"`
	Timestamp   time.Time  `json:"timestamp"`
	DocumentIDs []string   `json:"document_ids,omitempty"`
	Citations   []Citation `json:"citations,omitempty"`
}

// NewChatMessage constructs a chat message with a fresh id and timestamp.
func NewChatMessage(sessionID, userID, role, content string) ChatMessage {
	return ChatMessage{
		MessageID: NewID(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ChatSession is a conversation container owned by the dialogue agent's
// session store. It is a plain value; the store serializes access and hands
// out clones so callers can never mutate shared state.
type ChatSession struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	Title       string        `json:"title,omitempty"`
	ModelID     string        `json:"model_id"`
	DocumentIDs []string      `json:"document_ids,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewChatSession constructs a session with creation timestamps set.
func NewChatSession(sessionID, userID, modelID string) *ChatSession {
	now := time.Now().UTC()
	return &ChatSession{
		SessionID: sessionID,
		UserID:    userID,
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *ChatSession) Clone() *ChatSession {
	clone := *s
	clone.DocumentIDs = append([]string(nil), s.DocumentIDs...)
	clone.Messages = append([]ChatMessage(nil), s.Messages...)
	return &clone
}

// History returns up to the last n conversational turns.
func (s *ChatSession) History(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return append([]ChatMessage(nil), s.Messages...)
	}
	return append([]ChatMessage(nil), s.Messages[len(s.Messages)-n:]...)
}
