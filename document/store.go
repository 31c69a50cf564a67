package document

import (
	"errors"
	"sync"

	"github.com/DMIE-inteligencia/iara/core"
)

// ErrNotFound is returned when a document id is unknown to the store.
var ErrNotFound = errors.New("document not found")

// Store holds document metadata and the split chunks for the
// document-processing agent. The retrieval index owns the searchable copy of
// the chunks; this store is the system of record for ownership and listing.
type Store interface {
	Put(metadata core.DocumentMetadata, chunks []core.DocumentChunk) error
	Get(documentID string) (core.DocumentMetadata, []core.DocumentChunk, error)
	ListByUser(userID string) []core.DocumentMetadata
	Delete(documentID string) error
}

// InMemoryStore is a volatile Store backed by process-local maps.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[string]core.DocumentMetadata
	chunks    map[string][]core.DocumentChunk
}

// NewInMemoryStore constructs an empty document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[string]core.DocumentMetadata),
		chunks:    make(map[string][]core.DocumentChunk),
	}
}

// Put records a document and its chunks, replacing any previous version under
// the same document id.
func (s *InMemoryStore) Put(metadata core.DocumentMetadata, chunks []core.DocumentChunk) error {
	if metadata.DocumentID == "" {
		return errors.New("document id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[metadata.DocumentID] = metadata
	s.chunks[metadata.DocumentID] = append([]core.DocumentChunk(nil), chunks...)
	return nil
}

// Get returns the metadata and chunks for a document, or ErrNotFound.
func (s *InMemoryStore) Get(documentID string) (core.DocumentMetadata, []core.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.documents[documentID]
	if !ok {
		return core.DocumentMetadata{}, nil, ErrNotFound
	}
	return meta, append([]core.DocumentChunk(nil), s.chunks[documentID]...), nil
}

// ListByUser returns metadata for every document owned by the user.
func (s *InMemoryStore) ListByUser(userID string) []core.DocumentMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.DocumentMetadata
	for _, meta := range s.documents {
		if meta.UserID == userID {
			out = append(out, meta)
		}
	}
	return out
}

// Delete removes a document and its chunks, or returns ErrNotFound.
func (s *InMemoryStore) Delete(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return ErrNotFound
	}
	delete(s.documents, documentID)
	delete(s.chunks, documentID)
	return nil
}
