package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/prompt"
	"github.com/DMIE-inteligencia/iara/session"
)

const (
	// defaultModelID is the model assigned to sessions created without one.
	defaultModelID = "gpt-4o"
	// conversationWindow is how many trailing turns feed response generation.
	conversationWindow = 10
	// citationExcerptLen caps the excerpt stored in a citation.
	citationExcerptLen = 100
)

const (
	noContextReply  = "I don't have enough information in the documents to answer this question. Could you provide more context or ask something else about the documents?"
	modelErrorReply = "I'm sorry, I encountered an error while processing your question. Please try again."
)

type processUserMessageRequest struct {
	Message   core.ChatMessage `json:"message"`
	SessionID string           `json:"session_id"`
	UserID    string           `json:"user_id"`
	Documents []string         `json:"documents"`
}

type createSessionRequest struct {
	SessionID   string   `json:"session_id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	ModelID     string   `json:"model_id"`
	DocumentIDs []string `json:"document_ids"`
}

type sessionLookupRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type listSessionsRequest struct {
	UserID string `json:"user_id"`
}

type retrieveResponse struct {
	Results []core.RetrievalResult `json:"results"`
}

type generateTextResponse struct {
	Text string `json:"text"`
}

// Dialogue runs user conversations. For sessions with attached documents it
// retrieves relevant chunks and builds a grounded prompt; otherwise it asks
// the model for a plain conversational reply. Both hops are request/response
// exchanges over the bus, with graceful fallbacks when a hop fails.
type Dialogue struct {
	*BaseAgent

	sessions       session.Store
	requestTimeout time.Duration
}

// DialogueOptions configures a Dialogue agent.
type DialogueOptions struct {
	Logger logging.Logger
	// RequestTimeout bounds each retrieval and generation exchange.
	RequestTimeout time.Duration
}

// NewDialogue constructs the dialogue agent around a session store.
func NewDialogue(b *broker.Broker, sessions session.Store, optFns ...func(o *DialogueOptions)) *Dialogue {
	opts := DialogueOptions{
		Logger:         logging.NewDefaultSlogLogger(),
		RequestTimeout: DefaultRequestTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	d := &Dialogue{
		sessions:       sessions,
		requestTimeout: opts.RequestTimeout,
	}
	d.BaseAgent = NewBaseAgent(core.AgentDialogue, b, d, opts.Logger)
	return d
}

// HandleMessage implements MessageHandler.
func (d *Dialogue) HandleMessage(msg core.Message) error {
	if msg.Type != core.MessageCommand {
		return nil
	}
	switch msg.Action() {
	case "process_user_message":
		return d.handleProcessUserMessage(msg)
	case "create_session":
		d.handleCreateSession(msg)
	case "get_session":
		d.handleGetSession(msg)
	case "list_sessions":
		d.handleListSessions(msg)
	case "delete_session":
		d.handleDeleteSession(msg)
	default:
		d.SendError(msg.Sender, fmt.Sprintf("Unknown action: %s", msg.Action()), msg.ID)
	}
	return nil
}

func (d *Dialogue) handleProcessUserMessage(msg core.Message) error {
	var req processUserMessageRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("invalid process_user_message request: %s", err), msg.ID)
		return nil
	}
	if req.Message.Content == "" {
		d.SendError(msg.Sender, "Missing message parameter", msg.ID)
		return nil
	}
	if req.SessionID == "" {
		d.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return nil
	}

	sess, err := d.sessions.Get(req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		sess = core.NewChatSession(req.SessionID, req.UserID, defaultModelID)
		sess.DocumentIDs = req.Documents
		if err := d.sessions.Create(sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	userMsg := req.Message
	if userMsg.MessageID == "" {
		userMsg.MessageID = core.NewID()
	}
	userMsg.SessionID = sess.SessionID
	if userMsg.Timestamp.IsZero() {
		userMsg.Timestamp = time.Now().UTC()
	}
	if err := d.sessions.AppendMessage(sess.SessionID, userMsg); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	sess.Messages = append(sess.Messages, userMsg)

	reply := d.generateReply(userMsg, sess)
	if err := d.sessions.AppendMessage(sess.SessionID, reply); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}

	d.SendResponse(msg, map[string]any{
		"message":    reply,
		"session_id": sess.SessionID,
	})
	return nil
}

// generateReply produces the assistant turn. Sessions without documents go
// straight to the model; grounded sessions retrieve first and fall back to a
// plain reply when retrieval fails.
func (d *Dialogue) generateReply(userMsg core.ChatMessage, sess *core.ChatSession) core.ChatMessage {
	history := sess.History(conversationWindow)

	if len(sess.DocumentIDs) == 0 {
		return d.plainReply(userMsg, history, sess)
	}

	retrieveCmd := core.NewCommand(d.AgentType(), core.AgentInformationRetrieval, "retrieve", map[string]any{
		"query":       userMsg.Content,
		"filters":     map[string]any{"document_id": sess.DocumentIDs},
		"num_results": defaultNumResults,
	}).WithPriority(core.PriorityHigh)

	resp := d.SendAndWait(retrieveCmd, d.requestTimeout)
	if resp == nil || resp.Type == core.MessageError {
		d.Logger().Warn("document retrieval failed, falling back to plain reply",
			"session_id", sess.SessionID)
		return d.plainReply(userMsg, history, sess)
	}

	var retrieved retrieveResponse
	if err := core.DecodeContent(resp.Content, &retrieved); err != nil {
		d.Logger().Warn("could not decode retrieval results", "error", err.Error())
		return d.plainReply(userMsg, history, sess)
	}
	if len(retrieved.Results) == 0 {
		return assistantReply(userMsg, sess, noContextReply)
	}

	contexts := make([]string, 0, len(retrieved.Results))
	citations := make([]core.Citation, 0, len(retrieved.Results))
	docIDs := make(map[string]bool)
	for _, r := range retrieved.Results {
		contexts = append(contexts, r.Content)
		citations = append(citations, core.Citation{
			DocumentID: r.DocumentID,
			ChunkID:    r.ChunkID,
			Content:    excerpt(r.Content),
		})
		docIDs[r.DocumentID] = true
	}

	p := prompt.RAG(userMsg.Content, contexts, history)
	text, ok := d.generateText(p, sess.ModelID, core.PriorityHigh)
	if !ok {
		return assistantReply(userMsg, sess, modelErrorReply)
	}

	reply := assistantReply(userMsg, sess, text)
	for id := range docIDs {
		reply.DocumentIDs = append(reply.DocumentIDs, id)
	}
	reply.Citations = citations
	return reply
}

func (d *Dialogue) plainReply(userMsg core.ChatMessage, history []core.ChatMessage, sess *core.ChatSession) core.ChatMessage {
	p := prompt.Conversation(userMsg.Content, prompt.FormatHistory(history))
	text, ok := d.generateText(p, sess.ModelID, core.PriorityMedium)
	if !ok {
		return assistantReply(userMsg, sess, modelErrorReply)
	}
	return assistantReply(userMsg, sess, text)
}

// generateText runs one generate_text exchange against the llm agent.
func (d *Dialogue) generateText(p, modelID string, priority core.Priority) (string, bool) {
	cmd := core.NewCommand(d.AgentType(), core.AgentLLM, "generate_text", map[string]any{
		"prompt": p,
		"model":  modelID,
	}).WithPriority(priority)

	resp := d.SendAndWait(cmd, d.requestTimeout)
	if resp == nil || resp.Type == core.MessageError {
		return "", false
	}
	var gen generateTextResponse
	if err := core.DecodeContent(resp.Content, &gen); err != nil {
		return "", false
	}
	return gen.Text, true
}

func assistantReply(userMsg core.ChatMessage, sess *core.ChatSession, content string) core.ChatMessage {
	return core.NewChatMessage(sess.SessionID, userMsg.UserID, "assistant", content)
}

func excerpt(s string) string {
	if len(s) > citationExcerptLen {
		return s[:citationExcerptLen] + "..."
	}
	return s
}

func (d *Dialogue) handleCreateSession(msg core.Message) {
	var req createSessionRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("invalid create_session request: %s", err), msg.ID)
		return
	}
	if req.SessionID == "" {
		d.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return
	}
	if req.UserID == "" {
		d.SendError(msg.Sender, "Missing user_id parameter", msg.ID)
		return
	}
	if req.ModelID == "" {
		req.ModelID = defaultModelID
	}
	if req.Title == "" {
		req.Title = "New Chat"
	}

	sess := core.NewChatSession(req.SessionID, req.UserID, req.ModelID)
	sess.Title = req.Title
	sess.DocumentIDs = req.DocumentIDs
	if err := d.sessions.Create(sess); err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("Error creating session: %s", err), msg.ID)
		return
	}

	d.SendResponse(msg, map[string]any{
		"status":  "success",
		"session": sess,
	})
}

func (d *Dialogue) handleGetSession(msg core.Message) {
	var req sessionLookupRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.SessionID == "" {
		d.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return
	}

	sess, err := d.sessions.Get(req.SessionID)
	if err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("Session not found: %s", req.SessionID), msg.ID)
		return
	}
	if req.UserID != "" && sess.UserID != req.UserID {
		d.SendError(msg.Sender, "Permission denied: session belongs to another user", msg.ID)
		return
	}

	d.SendResponse(msg, map[string]any{
		"session":  sess,
		"messages": sess.Messages,
	})
}

func (d *Dialogue) handleListSessions(msg core.Message) {
	var req listSessionsRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.UserID == "" {
		d.SendError(msg.Sender, "Missing user_id parameter", msg.ID)
		return
	}

	sessions, err := d.sessions.List(req.UserID)
	if err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("Error listing sessions: %s", err), msg.ID)
		return
	}

	// Messages are stripped to keep the listing payload small.
	summaries := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, map[string]any{
			"session_id":   s.SessionID,
			"user_id":      s.UserID,
			"title":        s.Title,
			"model_id":     s.ModelID,
			"document_ids": s.DocumentIDs,
			"created_at":   s.CreatedAt,
			"updated_at":   s.UpdatedAt,
		})
	}
	d.SendResponse(msg, map[string]any{"sessions": summaries})
}

func (d *Dialogue) handleDeleteSession(msg core.Message) {
	var req sessionLookupRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.SessionID == "" {
		d.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return
	}

	sess, err := d.sessions.Get(req.SessionID)
	if err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("Session not found: %s", req.SessionID), msg.ID)
		return
	}
	if req.UserID != "" && sess.UserID != req.UserID {
		d.SendError(msg.Sender, "Permission denied: session belongs to another user", msg.ID)
		return
	}

	if err := d.sessions.Delete(req.SessionID); err != nil {
		d.SendError(msg.Sender, fmt.Sprintf("Session not found: %s", req.SessionID), msg.ID)
		return
	}
	d.SendResponse(msg, map[string]any{
		"status":     "success",
		"session_id": req.SessionID,
	})
}
