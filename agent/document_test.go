package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/document"
	"github.com/DMIE-inteligencia/iara/embedding"
	"github.com/DMIE-inteligencia/iara/logging"
)

func newTestDocumentProcessing(b *broker.Broker) *DocumentProcessing {
	return NewDocumentProcessing(b, document.NewInMemoryStore(), embedding.NewDeterministicGenerator(64),
		func(o *DocumentProcessingOptions) { o.Logger = logging.NoOpLogger{} })
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentProcessing_ProcessSplitsAndIndexes(t *testing.T) {
	b := broker.New()
	docs := newTestDocumentProcessing(b)
	docs.Start()
	defer docs.Stop()

	// A live retrieval agent receives the index_document hand-off.
	ret := newTestRetrieval(b)
	ret.Start()
	defer ret.Stop()

	body := strings.Repeat("alpha paragraph text. ", 20) + "\n\n" + strings.Repeat("beta paragraph text. ", 20)
	path := writeTestFile(t, "notes.txt", body)

	resp := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", map[string]any{
			"file_path": path,
			"metadata":  map[string]any{"document_id": "doc-1", "filename": "notes.txt", "user_id": "alice"},
		}), time.Second)
	require.NotNil(t, resp)
	require.Equal(t, core.MessageResponse, resp.Type)
	assert.Equal(t, "success", resp.Content["status"])
	assert.Equal(t, "doc-1", resp.Content["document_id"])

	// The index write is asynchronous; wait for the retrieval side to see it.
	assert.Eventually(t, func() bool {
		return ret.Retriever().DocumentCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDocumentProcessing_Validation(t *testing.T) {
	b := broker.New()
	docs := newTestDocumentProcessing(b)
	docs.Start()
	defer docs.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", nil), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Missing file_path parameter", resp.ErrorText())

	resp = awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", map[string]any{"file_path": "/nonexistent/file.txt"}), time.Second)
	require.NotNil(t, resp)
	assert.Contains(t, resp.ErrorText(), "File not found")

	path := writeTestFile(t, "report.pdf", "binary-ish")
	resp = awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", map[string]any{"file_path": path}), time.Second)
	require.NotNil(t, resp)
	assert.Contains(t, resp.ErrorText(), "unsupported file format")
}

func TestDocumentProcessing_GetDocument(t *testing.T) {
	b := broker.New()
	docs := newTestDocumentProcessing(b)
	docs.Start()
	defer docs.Stop()

	path := writeTestFile(t, "notes.txt", "short document body")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", map[string]any{
			"file_path": path,
			"metadata":  map[string]any{"document_id": "doc-1", "user_id": "alice"},
		}), time.Second))

	bare := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"get_document", map[string]any{"document_id": "doc-1"}), time.Second)
	require.NotNil(t, bare)
	require.Equal(t, core.MessageResponse, bare.Type)
	_, hasChunks := bare.Content["chunks"]
	assert.False(t, hasChunks)

	withChunks := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"get_document", map[string]any{"document_id": "doc-1", "include_chunks": true}), time.Second)
	require.NotNil(t, withChunks)
	chunks, ok := withChunks.Content["chunks"].([]core.DocumentChunk)
	require.True(t, ok)
	require.NotEmpty(t, chunks)
	// Embeddings are stripped unless explicitly requested.
	assert.Nil(t, chunks[0].Embedding)

	missing := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"get_document", map[string]any{"document_id": "ghost"}), time.Second)
	require.NotNil(t, missing)
	assert.Contains(t, missing.ErrorText(), "Document not found")
}

func TestDocumentProcessing_UserDocumentsAndDelete(t *testing.T) {
	b := broker.New()
	docs := newTestDocumentProcessing(b)
	docs.Start()
	defer docs.Stop()

	ret := newTestRetrieval(b)
	ret.Start()
	defer ret.Stop()

	path := writeTestFile(t, "a.txt", "document body for alice")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"process_document", map[string]any{
			"file_path": path,
			"metadata":  map[string]any{"document_id": "doc-a", "user_id": "alice"},
		}), time.Second))

	listed := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"get_user_documents", map[string]any{"user_id": "alice"}), time.Second)
	require.NotNil(t, listed)
	metas, ok := listed.Content["documents"].([]core.DocumentMetadata)
	require.True(t, ok)
	require.Len(t, metas, 1)
	assert.Equal(t, "doc-a", metas[0].DocumentID)

	denied := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"delete_document", map[string]any{"document_id": "doc-a", "user_id": "bob"}), time.Second)
	require.NotNil(t, denied)
	assert.Equal(t, "Permission denied: document belongs to another user", denied.ErrorText())

	deleted := awaitReply(b, core.NewCommand(core.AgentOrchestrator, core.AgentDocumentProcessing,
		"delete_document", map[string]any{"document_id": "doc-a", "user_id": "alice"}), time.Second)
	require.NotNil(t, deleted)
	assert.Equal(t, "success", deleted.Content["status"])

	// The retrieval index drops the document as the removal propagates.
	assert.Eventually(t, func() bool {
		return ret.Retriever().DocumentCount() == 0
	}, time.Second, 5*time.Millisecond)
}
