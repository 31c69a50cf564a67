package iara

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DMIE-inteligencia/iara/core"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	r := New(func(o *Options) {
		o.RequestTimeout = 2 * time.Second
	})
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func TestRuntime_PingThroughOrchestrator(t *testing.T) {
	r := newTestRuntime(t)

	resp := r.Request(core.AgentOrchestrator, "ping", nil)
	require.NotNil(t, resp)
	assert.Equal(t, "ok", resp.Content["status"])
}

func TestRuntime_AgentStatusListsEveryRole(t *testing.T) {
	r := newTestRuntime(t)

	resp := r.Request(core.AgentOrchestrator, "get_agent_status", nil)
	require.NotNil(t, resp)
	agents, ok := resp.Content["agents"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, agents, 5)
}

func TestRuntime_RegisterAuthenticateChat(t *testing.T) {
	r := newTestRuntime(t)

	registered := r.Request(core.AgentSecurity, "register_user",
		map[string]any{"username": "alice", "password": "pw"})
	require.NotNil(t, registered)
	require.Equal(t, core.MessageResponse, registered.Type)

	auth := r.Request(core.AgentSecurity, "authenticate",
		map[string]any{"username": "alice", "password": "pw"})
	require.NotNil(t, auth)
	require.Equal(t, core.MessageResponse, auth.Type)

	chat := r.Request(core.AgentDialogue, "process_user_message", map[string]any{
		"session_id": "sess-1",
		"user_id":    "alice",
		"message":    map[string]any{"role": "user", "content": "hello", "user_id": "alice"},
	})
	require.NotNil(t, chat)
	require.Equal(t, core.MessageResponse, chat.Type)
	reply, ok := chat.Content["message"].(core.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "assistant", reply.Role)
}

func TestRuntime_DocumentLifecycleEndToEnd(t *testing.T) {
	r := newTestRuntime(t)

	path := filepath.Join(t.TempDir(), "manual.txt")
	body := strings.Repeat("the installation requires a license key. ", 15)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	processed := r.Request(core.AgentDocumentProcessing, "process_document", map[string]any{
		"file_path": path,
		"metadata":  map[string]any{"document_id": "doc-1", "filename": "manual.txt", "user_id": "alice"},
	})
	require.NotNil(t, processed)
	require.Equal(t, core.MessageResponse, processed.Type)

	// The index hand-off is async; query until the chunk is searchable.
	assert.Eventually(t, func() bool {
		resp := r.Request(core.AgentInformationRetrieval, "retrieve", map[string]any{
			"query":     "the installation requires a license key.",
			"use_cache": false,
		})
		if resp == nil || resp.Type != core.MessageResponse {
			return false
		}
		results, ok := resp.Content["results"].([]core.RetrievalResult)
		return ok && len(results) > 0
	}, 2*time.Second, 20*time.Millisecond)

	deleted := r.Request(core.AgentDocumentProcessing, "delete_document", map[string]any{
		"document_id": "doc-1",
		"user_id":     "alice",
	})
	require.NotNil(t, deleted)
	assert.Equal(t, "success", deleted.Content["status"])
}

func TestRuntime_OrchestratorDispatchesPrefixedActions(t *testing.T) {
	r := newTestRuntime(t)

	// A chat_ prefixed action lands on the dialogue agent via the
	// orchestrator without the caller naming a target.
	resp := r.Request(core.AgentOrchestrator, "chat_create", nil)
	require.NotNil(t, resp)
	// The dialogue agent rejects the unknown action itself, proving the
	// command crossed the orchestrator to the right role.
	assert.Equal(t, core.MessageError, resp.Type)
	assert.Contains(t, resp.ErrorText(), "Unknown action: chat_create")
}

func TestRuntime_StopIsIdempotent(t *testing.T) {
	r := New()
	r.Start()
	r.Stop()
	r.Stop()
}
