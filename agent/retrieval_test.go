package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/embedding"
	"github.com/DMIE-inteligencia/iara/internal/testutil"
	"github.com/DMIE-inteligencia/iara/logging"
)

func newTestRetrieval(b *broker.Broker) *InformationRetrieval {
	return NewInformationRetrieval(b, embedding.NewDeterministicGenerator(64),
		func(o *InformationRetrievalOptions) { o.Logger = logging.NoOpLogger{} })
}

func embedChunks(t *testing.T, texts []string, docID string) []map[string]any {
	t.Helper()
	gen := embedding.NewDeterministicGenerator(64)
	vectors, err := gen.Embed(t.Context(), texts)
	require.NoError(t, err)

	chunks := make([]map[string]any, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, map[string]any{
			"chunk_id":     core.NewID(),
			"document_id":  docID,
			"content":      text,
			"chunk_number": i,
			"embedding":    vectors[i],
		})
	}
	return chunks
}

func TestInformationRetrieval_IndexThenRetrieveTopK(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	chunks := embedChunks(t, []string{
		"the quick brown fox jumps over the lazy dog",
		"golang channels make concurrency manageable",
		"completely unrelated text about cooking pasta",
	}, "doc-1")

	indexed := awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": chunks}), time.Second)
	require.NotNil(t, indexed)
	require.Equal(t, core.MessageResponse, indexed.Type)
	assert.Equal(t, 3, indexed.Content["num_chunks_indexed"])

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve",
		map[string]any{"query": "golang channels make concurrency manageable", "num_results": 2}), time.Second)
	require.NotNil(t, resp)
	require.Equal(t, core.MessageResponse, resp.Type)

	results, ok := resp.Content["results"].([]core.RetrievalResult)
	require.True(t, ok)
	require.Len(t, results, 2)
	// The identical text embeds to the identical vector, so it ranks first.
	assert.Equal(t, "golang channels make concurrency manageable", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, false, resp.Content["cached"])
}

func TestInformationRetrieval_CacheHitAndRemoveClears(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	chunks := embedChunks(t, []string{"alpha text", "beta text"}, "doc-1")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": chunks}), time.Second))

	query := map[string]any{"query": "alpha text", "num_results": 2}
	first := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second)
	require.NotNil(t, first)
	assert.Equal(t, false, first.Content["cached"])

	second := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second)
	require.NotNil(t, second)
	assert.Equal(t, true, second.Content["cached"])

	removed := awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"remove_document", map[string]any{"document_id": "doc-1"}), time.Second)
	require.NotNil(t, removed)
	assert.Equal(t, 2, removed.Content["num_chunks_removed"])
	assert.Equal(t, 0, a.Cache().Len())

	// After removal the same query recomputes against an empty index.
	third := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second)
	require.NotNil(t, third)
	assert.Equal(t, false, third.Content["cached"])
	results, ok := third.Content["results"].([]core.RetrievalResult)
	require.True(t, ok)
	assert.Empty(t, results)
}

func TestInformationRetrieval_CacheBypass(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	chunks := embedChunks(t, []string{"some text"}, "doc-1")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": chunks}), time.Second))

	query := map[string]any{"query": "some text", "use_cache": false}
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second))

	second := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve",
		map[string]any{"query": "some text", "use_cache": false}), time.Second)
	require.NotNil(t, second)
	assert.Equal(t, false, second.Content["cached"])
}

func TestInformationRetrieval_ClearCache(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	chunks := embedChunks(t, []string{"first body", "second body"}, "doc-1")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": chunks}), time.Second))

	for _, q := range []string{"first body", "second body"} {
		require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve",
			map[string]any{"query": q}), time.Second))
	}

	partial := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "clear_cache",
		map[string]any{"query_pattern": "first"}), time.Second)
	require.NotNil(t, partial)
	assert.Equal(t, 1, partial.Content["num_entries_cleared"])

	full := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "clear_cache", nil), time.Second)
	require.NotNil(t, full)
	assert.Equal(t, 1, full.Content["num_entries_cleared"])
}

func TestInformationRetrieval_Validation(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", nil), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Missing query parameter", resp.ErrorText())

	resp = awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1"}), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Missing chunks parameter", resp.ErrorText())

	resp = awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "warp", nil), time.Second)
	require.NotNil(t, resp)
	assert.Equal(t, "Unknown action: warp", resp.ErrorText())
}

func TestInformationRetrieval_ScalarDocumentIDFilter(t *testing.T) {
	b := broker.New()
	a := newTestRetrieval(b)
	a.Start()
	defer a.Stop()

	gen := embedding.NewDeterministicGenerator(64)
	vectors, err := gen.Embed(t.Context(), []string{"notes on message routing"})
	require.NoError(t, err)
	chunk := testutil.NewChunkBuilder("doc-1").
		Content("notes on message routing").
		Number(0).
		Embedding(vectors[0]).
		Build()

	indexed := awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": []core.DocumentChunk{chunk}}), time.Second)
	require.NotNil(t, indexed)
	require.Equal(t, core.MessageResponse, indexed.Type)

	// A single document id may arrive as a plain string instead of a list.
	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve",
		map[string]any{"query": "notes on message routing", "filters": map[string]any{"document_id": "doc-1"}}), time.Second)
	require.NotNil(t, resp)
	require.Equal(t, core.MessageResponse, resp.Type)

	results, ok := resp.Content["results"].([]core.RetrievalResult)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].DocumentID)
}

type emptyEmbedder struct{}

func (emptyEmbedder) Embed(context.Context, []string) ([][]float64, error) { return nil, nil }

func TestInformationRetrieval_EmbedderReturnsNoVector(t *testing.T) {
	b := broker.New()
	a := NewInformationRetrieval(b, emptyEmbedder{},
		func(o *InformationRetrievalOptions) { o.Logger = logging.NoOpLogger{} })
	a.Start()
	defer a.Stop()

	resp := awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve",
		map[string]any{"query": "anything"}), time.Second)
	require.NotNil(t, resp)
	require.Equal(t, core.MessageError, resp.Type)
	assert.Contains(t, resp.ErrorText(), "generator returned no vector")
	assert.NotContains(t, resp.ErrorText(), "%!w")
}

type recordingRetrievalLogger struct {
	logging.NoOpLogger
	mu      sync.Mutex
	queries []string
	cached  []bool
}

func (l *recordingRetrievalLogger) LogRetrieval(query string, results int, cached bool, dur time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, query)
	l.cached = append(l.cached, cached)
}

func TestInformationRetrieval_RetrievalDiagnostics(t *testing.T) {
	rec := &recordingRetrievalLogger{}
	b := broker.New()
	a := NewInformationRetrieval(b, embedding.NewDeterministicGenerator(64),
		func(o *InformationRetrievalOptions) { o.Logger = rec })
	a.Start()
	defer a.Stop()

	chunks := embedChunks(t, []string{"diagnostics body"}, "doc-1")
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDocumentProcessing, core.AgentInformationRetrieval,
		"index_document", map[string]any{"document_id": "doc-1", "chunks": chunks}), time.Second))

	query := map[string]any{"query": "diagnostics body"}
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second))
	require.NotNil(t, awaitReply(b, core.NewCommand(core.AgentDialogue, core.AgentInformationRetrieval, "retrieve", query), time.Second))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.cached, 2)
	assert.Equal(t, []string{"diagnostics body", "diagnostics body"}, rec.queries)
	assert.Equal(t, []bool{false, true}, rec.cached)
}
