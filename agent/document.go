package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/document"
	"github.com/DMIE-inteligencia/iara/embedding"
	"github.com/DMIE-inteligencia/iara/logging"
)

type processDocumentRequest struct {
	FilePath string                `json:"file_path"`
	Metadata core.DocumentMetadata `json:"metadata"`
}

type getDocumentRequest struct {
	DocumentID        string `json:"document_id"`
	IncludeChunks     bool   `json:"include_chunks"`
	IncludeEmbeddings bool   `json:"include_embeddings"`
}

type userDocumentsRequest struct {
	UserID string `json:"user_id"`
}

type deleteDocumentRequest struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
}

// DocumentProcessing ingests files: load, split, embed, store, then hand the
// chunks to the retrieval agent for indexing. Index and removal notifications
// are fire-and-forget; the retrieval agent owns the searchable copy.
type DocumentProcessing struct {
	*BaseAgent

	loader   *document.Loader
	splitter *document.TextSplitter
	embedder embedding.Generator
	store    document.Store
}

// DocumentProcessingOptions configures a DocumentProcessing agent.
type DocumentProcessingOptions struct {
	Logger   logging.Logger
	Splitter *document.TextSplitter
}

// NewDocumentProcessing constructs the document agent around its store and
// embedder.
func NewDocumentProcessing(b *broker.Broker, store document.Store, embedder embedding.Generator, optFns ...func(o *DocumentProcessingOptions)) *DocumentProcessing {
	opts := DocumentProcessingOptions{Logger: logging.NewDefaultSlogLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Splitter == nil {
		opts.Splitter = document.NewTextSplitter()
	}
	a := &DocumentProcessing{
		loader:   document.NewLoader(func(o *document.LoaderOptions) { o.Logger = opts.Logger }),
		splitter: opts.Splitter,
		embedder: embedder,
		store:    store,
	}
	a.BaseAgent = NewBaseAgent(core.AgentDocumentProcessing, b, a, opts.Logger)
	return a
}

// HandleMessage implements MessageHandler.
func (a *DocumentProcessing) HandleMessage(msg core.Message) error {
	if msg.Type != core.MessageCommand {
		return nil
	}
	switch msg.Action() {
	case "process_document":
		a.handleProcessDocument(msg)
	case "get_document":
		a.handleGetDocument(msg)
	case "get_user_documents":
		a.handleGetUserDocuments(msg)
	case "delete_document":
		a.handleDeleteDocument(msg)
	default:
		a.SendError(msg.Sender, fmt.Sprintf("Unknown action: %s", msg.Action()), msg.ID)
	}
	return nil
}

func (a *DocumentProcessing) handleProcessDocument(msg core.Message) {
	var req processDocumentRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("invalid process_document request: %s", err), msg.ID)
		return
	}
	if req.FilePath == "" {
		a.SendError(msg.Sender, "Missing file_path parameter", msg.ID)
		return
	}
	if _, err := os.Stat(req.FilePath); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("File not found: %s", req.FilePath), msg.ID)
		return
	}

	meta := req.Metadata
	if meta.DocumentID == "" {
		meta.DocumentID = core.NewID()
	}
	if meta.UploadTimestamp.IsZero() {
		meta.UploadTimestamp = time.Now().UTC()
	}

	text, err := a.loader.Load(req.FilePath)
	if err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("Error processing document: %s", err), msg.ID)
		return
	}

	pieces := a.splitter.Split(text)
	chunks := make([]core.DocumentChunk, 0, len(pieces))
	texts := make([]string, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, core.DocumentChunk{
			ChunkID:     fmt.Sprintf("chunk_%s", core.NewID()),
			DocumentID:  meta.DocumentID,
			Content:     content,
			ChunkNumber: i,
		})
		texts = append(texts, content)
	}

	if len(texts) > 0 {
		vectors, err := a.embedder.Embed(context.Background(), texts)
		if err != nil {
			a.SendError(msg.Sender, fmt.Sprintf("Error processing document: %s", err), msg.ID)
			return
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	meta.NumChunks = len(chunks)
	if err := a.store.Put(meta, chunks); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("Error processing document: %s", err), msg.ID)
		return
	}

	// Hand the chunks to the retrieval agent. The index write is not awaited;
	// retrieval readiness lags the processing response by one hop.
	a.Send(core.NewCommand(a.AgentType(), core.AgentInformationRetrieval, "index_document", map[string]any{
		"document_id": meta.DocumentID,
		"chunks":      chunks,
	}))

	a.SendResponse(msg, map[string]any{
		"status":      "success",
		"document_id": meta.DocumentID,
		"metadata": map[string]any{
			"num_chunks": meta.NumChunks,
			"num_pages":  meta.NumPages,
		},
	})
}

func (a *DocumentProcessing) handleGetDocument(msg core.Message) {
	var req getDocumentRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.DocumentID == "" {
		a.SendError(msg.Sender, "Missing document_id parameter", msg.ID)
		return
	}

	meta, chunks, err := a.store.Get(req.DocumentID)
	if err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("Document not found: %s", req.DocumentID), msg.ID)
		return
	}

	response := map[string]any{"document": meta}
	if req.IncludeChunks {
		if !req.IncludeEmbeddings {
			for i := range chunks {
				chunks[i].Embedding = nil
			}
		}
		response["chunks"] = chunks
	}
	a.SendResponse(msg, response)
}

func (a *DocumentProcessing) handleGetUserDocuments(msg core.Message) {
	var req userDocumentsRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.UserID == "" {
		a.SendError(msg.Sender, "Missing user_id parameter", msg.ID)
		return
	}

	docs := a.store.ListByUser(req.UserID)
	if docs == nil {
		docs = []core.DocumentMetadata{}
	}
	a.SendResponse(msg, map[string]any{"documents": docs})
}

func (a *DocumentProcessing) handleDeleteDocument(msg core.Message) {
	var req deleteDocumentRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil || req.DocumentID == "" {
		a.SendError(msg.Sender, "Missing document_id parameter", msg.ID)
		return
	}

	meta, _, err := a.store.Get(req.DocumentID)
	if err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("Document not found: %s", req.DocumentID), msg.ID)
		return
	}
	if req.UserID != "" && meta.UserID != req.UserID {
		a.SendError(msg.Sender, "Permission denied: document belongs to another user", msg.ID)
		return
	}

	if err := a.store.Delete(req.DocumentID); err != nil {
		a.SendError(msg.Sender, fmt.Sprintf("Document not found: %s", req.DocumentID), msg.ID)
		return
	}

	a.Send(core.NewCommand(a.AgentType(), core.AgentInformationRetrieval, "remove_document", map[string]any{
		"document_id": req.DocumentID,
	}))

	a.SendResponse(msg, map[string]any{
		"status":      "success",
		"document_id": req.DocumentID,
	})
}
