package core

import "time"

// DocumentMetadata describes an ingested document. NumChunks and NumPages are
// filled in by the document-processing agent once the file has been split.
type DocumentMetadata struct {
	DocumentID      string    `json:"document_id"`
	Filename        string    `json:"filename"`
	FileType        string    `json:"file_type"`
	UserID          string    `json:"user_id"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	NumPages        int       `json:"num_pages,omitempty"`
	NumChunks       int       `json:"num_chunks,omitempty"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	Description     string    `json:"description,omitempty"`
}

// DocumentChunk is one indexed piece of a document. Embedding may be nil for
// chunks that were stored without a vector; such chunks are kept but never
// returned by similarity search.
type DocumentChunk struct {
	ChunkID     string         `json:"chunk_id"`
	DocumentID  string         `json:"document_id"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Embedding   []float64      `json:"embedding,omitempty"`
	PageNumber  int            `json:"page_number,omitempty"`
	ChunkNumber int            `json:"chunk_number"`
}

// RetrievalResult is one ranked hit from a similarity search.
type RetrievalResult struct {
	DocumentID string         `json:"document_id"`
	ChunkID    string         `json:"chunk_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Score      float64        `json:"score"`
}
