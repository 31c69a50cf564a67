package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/embedding"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/retrieval"
)

// defaultNumResults is used when a retrieve request omits num_results.
const defaultNumResults = 5

type retrieveRequest struct {
	Query      string            `json:"query"`
	Filters    retrieval.Filters `json:"filters"`
	NumResults int               `json:"num_results"`
	UseCache   *bool             `json:"use_cache"`
}

type indexDocumentRequest struct {
	DocumentID string               `json:"document_id"`
	Chunks     []core.DocumentChunk `json:"chunks"`
}

type removeDocumentRequest struct {
	DocumentID string `json:"document_id"`
}

type clearCacheRequest struct {
	QueryPattern string `json:"query_pattern"`
}

// InformationRetrieval owns the vector index and the query cache. Other
// agents reach both only through messages, so the index has a single writer
// path and the cache invalidation stays in one place.
type InformationRetrieval struct {
	*BaseAgent

	retriever *retrieval.VectorRetriever
	cache     *retrieval.QueryCache
	embedder  embedding.Generator
}

// InformationRetrievalOptions configures an InformationRetrieval agent.
type InformationRetrievalOptions struct {
	Logger logging.Logger
	// CacheTTL overrides the query-cache freshness window.
	CacheTTL time.Duration
}

// NewInformationRetrieval constructs the retrieval agent. The embedder turns
// query text into vectors; index writes arrive with precomputed embeddings.
func NewInformationRetrieval(b *broker.Broker, embedder embedding.Generator, optFns ...func(o *InformationRetrievalOptions)) *InformationRetrieval {
	opts := InformationRetrievalOptions{Logger: logging.NewDefaultSlogLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	a := &InformationRetrieval{
		retriever: retrieval.NewVectorRetriever(opts.Logger),
		cache:     retrieval.NewQueryCache(opts.CacheTTL),
		embedder:  embedder,
	}
	a.BaseAgent = NewBaseAgent(core.AgentInformationRetrieval, b, a, opts.Logger)
	return a
}

// Cache exposes the query cache for tests.
func (a *InformationRetrieval) Cache() *retrieval.QueryCache { return a.cache }

// Retriever exposes the vector index for tests.
func (a *InformationRetrieval) Retriever() *retrieval.VectorRetriever { return a.retriever }

// HandleMessage implements MessageHandler.
func (a *InformationRetrieval) HandleMessage(msg core.Message) error {
	if msg.Type != core.MessageCommand {
		return nil
	}
	switch msg.Action() {
	case "retrieve":
		return a.handleRetrieve(msg)
	case "index_document":
		a.handleIndexDocument(msg)
	case "remove_document":
		a.handleRemoveDocument(msg)
	case "clear_cache":
		a.handleClearCache(msg)
	default:
		a.SendError(msg.Sender, fmt.Sprintf("Unknown action: %s", msg.Action()), msg.ID)
	}
	return nil
}

func (a *InformationRetrieval) handleRetrieve(msg core.Message) error {
	var req retrieveRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid retrieve request: %s", err), msg.ID)
		return nil
	}
	if req.Query == "" {
		a.SendError(msg.Sender, "Missing query parameter", msg.ID)
		return nil
	}
	if req.NumResults <= 0 {
		req.NumResults = defaultNumResults
	}
	useCache := req.UseCache == nil || *req.UseCache

	start := time.Now()
	key := retrieval.CacheKey(req.Query, req.Filters, req.NumResults)
	if useCache {
		if results, ok := a.cache.Get(key); ok {
			a.Logger().Info("using cached results", "query", req.Query)
			a.recordRetrieval(req.Query, len(results), true, start)
			a.SendResponse(msg, map[string]any{"results": results, "cached": true})
			return nil
		}
	}

	vectors, err := a.embedder.Embed(context.Background(), []string{req.Query})
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return errors.New("embed query: generator returned no vector")
	}

	results := a.retriever.Retrieve(vectors[0], req.Filters, req.NumResults)
	a.cache.Put(key, results)
	a.recordRetrieval(req.Query, len(results), false, start)
	a.SendResponse(msg, map[string]any{"results": results, "cached": false})
	return nil
}

// retrievalRecorder is the diagnostics surface of logging.IaraLogger. The
// agent upgrades to it when the configured logger provides it.
type retrievalRecorder interface {
	LogRetrieval(query string, results int, cached bool, dur time.Duration)
}

func (a *InformationRetrieval) recordRetrieval(query string, results int, cached bool, start time.Time) {
	if rec, ok := a.Logger().(retrievalRecorder); ok {
		rec.LogRetrieval(query, results, cached, time.Since(start))
	}
}

func (a *InformationRetrieval) handleIndexDocument(msg core.Message) {
	var req indexDocumentRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid index_document request: %s", err), msg.ID)
		return
	}
	if req.DocumentID == "" {
		a.SendError(msg.Sender, "Missing document_id parameter", msg.ID)
		return
	}
	if len(req.Chunks) == 0 {
		a.SendError(msg.Sender, "Missing chunks parameter", msg.ID)
		return
	}

	a.retriever.Add(req.Chunks)
	a.SendResponse(msg, map[string]any{
		"status":             "success",
		"document_id":        req.DocumentID,
		"num_chunks_indexed": len(req.Chunks),
	})
}

// handleRemoveDocument drops the document from the index and clears the whole
// query cache. Clearing everything keeps stale hits impossible without
// tracking which cached queries touched the removed document.
func (a *InformationRetrieval) handleRemoveDocument(msg core.Message) {
	var req removeDocumentRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.DocumentID == "" {
		a.SendError(msg.Sender, "Missing document_id parameter", msg.ID)
		return
	}

	removed := a.retriever.Remove(req.DocumentID)
	a.cache.Clear()

	a.SendResponse(msg, map[string]any{
		"status":             "success",
		"document_id":        req.DocumentID,
		"num_chunks_removed": removed,
	})
}

func (a *InformationRetrieval) handleClearCache(msg core.Message) {
	var req clearCacheRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid clear_cache request: %s", err), msg.ID)
		return
	}

	var cleared int
	if req.QueryPattern != "" {
		cleared = a.cache.Invalidate(req.QueryPattern)
	} else {
		cleared = a.cache.Clear()
	}
	a.SendResponse(msg, map[string]any{
		"status":              "success",
		"num_entries_cleared": cleared,
	})
}
