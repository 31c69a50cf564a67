package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/user"
)

// sessionLifetime is how long an authenticated session stays valid.
const sessionLifetime = 24 * time.Hour

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type getUserRequest struct {
	UserID string `json:"user_id"`
}

type updateUserRequest struct {
	UserID  string         `json:"user_id"`
	Updates map[string]any `json:"updates"`
}

type authSession struct {
	userID    string
	expiresAt time.Time
}

// Security handles authentication, registration and session validation. User
// accounts live in the injected store; auth sessions are kept in memory and
// expire after 24 hours.
type Security struct {
	*BaseAgent

	users user.Store

	mu       sync.Mutex
	sessions map[string]authSession
	now      func() time.Time
}

// SecurityOptions configures a Security agent.
type SecurityOptions struct {
	Logger logging.Logger
}

// NewSecurity constructs the security agent around a user store.
func NewSecurity(b *broker.Broker, users user.Store, optFns ...func(o *SecurityOptions)) *Security {
	opts := SecurityOptions{Logger: logging.NewDefaultSlogLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Security{
		users:    users,
		sessions: make(map[string]authSession),
		now:      time.Now,
	}
	s.BaseAgent = NewBaseAgent(core.AgentSecurity, b, s, opts.Logger)
	return s
}

// SetClock overrides the time source. Used by tests to exercise expiry.
func (s *Security) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// HashPassword returns the hex sha256 digest used for stored credentials.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// HandleMessage implements MessageHandler.
func (s *Security) HandleMessage(msg core.Message) error {
	if msg.Type != core.MessageCommand {
		return nil
	}
	switch msg.Action() {
	case "authenticate":
		s.handleAuthenticate(msg)
	case "register_user":
		s.handleRegister(msg)
	case "validate_session":
		s.handleValidateSession(msg)
	case "logout":
		s.handleLogout(msg)
	case "get_user":
		s.handleGetUser(msg)
	case "update_user":
		s.handleUpdateUser(msg)
	default:
		s.SendError(msg.Sender, fmt.Sprintf("Unknown action: %s", msg.Action()), msg.ID)
	}
	return nil
}

func (s *Security) handleAuthenticate(msg core.Message) {
	var req authRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.Username == "" || req.Password == "" {
		s.SendError(msg.Sender, "Missing username or password", msg.ID)
		return
	}

	u, err := s.users.GetByUsername(req.Username)
	if err != nil || u.PasswordHash != HashPassword(req.Password) {
		// Same answer for unknown user and wrong password.
		s.SendError(msg.Sender, "Invalid username or password", msg.ID)
		return
	}

	s.mu.Lock()
	sessionID := core.NewID()
	expiresAt := s.now().Add(sessionLifetime)
	s.sessions[sessionID] = authSession{userID: u.UserID, expiresAt: expiresAt}
	s.mu.Unlock()

	if _, err := s.users.Update(u.UserID, func(u *core.User) { u.LastLogin = time.Now().UTC() }); err != nil {
		s.Logger().Warn("failed to record last login", "user_id", u.UserID, "error", err.Error())
	}

	s.SendResponse(msg, map[string]any{
		"status":     "success",
		"user_id":    u.UserID,
		"session_id": sessionID,
		"username":   u.Username,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

func (s *Security) handleRegister(msg core.Message) {
	var req registerRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.Username == "" || req.Password == "" {
		s.SendError(msg.Sender, "Missing username or password", msg.ID)
		return
	}

	u, err := s.users.Create(req.Username, HashPassword(req.Password), req.Email)
	if err != nil {
		if err == user.ErrUsernameTaken {
			s.SendError(msg.Sender, "Username already exists", msg.ID)
			return
		}
		s.SendError(msg.Sender, fmt.Sprintf("Error registering user: %s", err), msg.ID)
		return
	}

	s.SendResponse(msg, map[string]any{
		"status":   "success",
		"user_id":  u.UserID,
		"username": u.Username,
	})
}

func (s *Security) handleValidateSession(msg core.Message) {
	var req sessionRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.SessionID == "" {
		s.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	if ok && s.now().After(sess.expiresAt) {
		delete(s.sessions, req.SessionID)
		s.mu.Unlock()
		s.SendError(msg.Sender, "Session expired", msg.ID)
		return
	}
	s.mu.Unlock()

	if !ok {
		s.SendError(msg.Sender, "Invalid session", msg.ID)
		return
	}

	u, err := s.users.GetByID(sess.userID)
	if err != nil {
		s.mu.Lock()
		delete(s.sessions, req.SessionID)
		s.mu.Unlock()
		s.SendError(msg.Sender, "Invalid user in session", msg.ID)
		return
	}

	s.SendResponse(msg, map[string]any{
		"status":     "valid",
		"user_id":    sess.userID,
		"username":   u.Username,
		"expires_at": sess.expiresAt.Format(time.RFC3339),
	})
}

func (s *Security) handleLogout(msg core.Message) {
	var req sessionRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.SessionID == "" {
		s.SendError(msg.Sender, "Missing session_id parameter", msg.ID)
		return
	}

	s.mu.Lock()
	delete(s.sessions, req.SessionID)
	s.mu.Unlock()

	s.SendResponse(msg, map[string]any{"status": "success"})
}

func (s *Security) handleGetUser(msg core.Message) {
	var req getUserRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.UserID == "" {
		s.SendError(msg.Sender, "Missing user_id parameter", msg.ID)
		return
	}

	u, err := s.users.GetByID(req.UserID)
	if err != nil {
		s.SendError(msg.Sender, fmt.Sprintf("User not found: %s", req.UserID), msg.ID)
		return
	}

	s.SendResponse(msg, map[string]any{"user": u.Public()})
}

func (s *Security) handleUpdateUser(msg core.Message) {
	var req updateUserRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.UserID == "" {
		s.SendError(msg.Sender, "Missing user_id parameter", msg.ID)
		return
	}
	if len(req.Updates) == 0 {
		s.SendError(msg.Sender, "Missing updates parameter", msg.ID)
		return
	}

	updated, err := s.users.Update(req.UserID, func(u *core.User) {
		if p, ok := req.Updates["password"].(string); ok && p != "" {
			u.PasswordHash = HashPassword(p)
		}
		if email, ok := req.Updates["email"].(string); ok {
			u.Email = email
		}
		if prefs, ok := req.Updates["preferences"].(map[string]any); ok {
			u.Preferences = prefs
		}
	})
	if err != nil {
		s.SendError(msg.Sender, fmt.Sprintf("User not found: %s", req.UserID), msg.ID)
		return
	}

	s.SendResponse(msg, map[string]any{"status": "success", "user": updated.Public()})
}
