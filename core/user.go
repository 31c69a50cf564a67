package core

import "time"

// User is an account record managed by the security agent's user store.
// PasswordHash must never appear in message payloads returned to callers.
type User struct {
	UserID       string         `json:"user_id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Email        string         `json:"email,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastLogin    time.Time      `json:"last_login,omitempty"`
	DocumentIDs  []string       `json:"document_ids,omitempty"`
	Preferences  map[string]any `json:"preferences,omitempty"`
}

// Clone returns a deep copy safe for independent mutation.
func (u *User) Clone() *User {
	clone := *u
	clone.DocumentIDs = append([]string(nil), u.DocumentIDs...)
	if u.Preferences != nil {
		clone.Preferences = make(map[string]any, len(u.Preferences))
		for k, v := range u.Preferences {
			clone.Preferences[k] = v
		}
	}
	return &clone
}

// Public returns the fields of the user that are safe to place in a message
// payload.
func (u *User) Public() map[string]any {
	m := map[string]any{
		"user_id":    u.UserID,
		"username":   u.Username,
		"created_at": u.CreatedAt,
	}
	if u.Email != "" {
		m["email"] = u.Email
	}
	if !u.LastLogin.IsZero() {
		m["last_login"] = u.LastLogin
	}
	return m
}
