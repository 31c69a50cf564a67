package retrieval

import (
	"encoding/json"
	"math"
	"sort"
	"sync"

	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
)

// Filters narrows the candidate set of a similarity search. An empty filter
// set searches every indexed document; DocumentIDs restricts the search to
// exactly those ids that exist in the store.
type Filters struct {
	DocumentIDs []string `json:"document_id,omitempty"`
}

// UnmarshalJSON accepts document_id as either a single string or a list of
// strings, normalizing the scalar form to a one-element list.
func (f *Filters) UnmarshalJSON(data []byte) error {
	var raw struct {
		DocumentIDs json.RawMessage `json:"document_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.DocumentIDs) == 0 || string(raw.DocumentIDs) == "null" {
		f.DocumentIDs = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(raw.DocumentIDs, &single); err == nil {
		f.DocumentIDs = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw.DocumentIDs, &many); err != nil {
		return err
	}
	f.DocumentIDs = many
	return nil
}

// VectorRetriever stores embedded document chunks and answers nearest
// neighbor queries by brute-force cosine similarity. It is safe for
// concurrent use; in this system it is owned by the information-retrieval
// agent and reached only through the broker.
type VectorRetriever struct {
	mu        sync.RWMutex
	documents map[string][]core.DocumentChunk
	vectors   map[string]map[string][]float64 // document id -> chunk id -> embedding
	logger    logging.Logger
}

// NewVectorRetriever constructs an empty retriever.
func NewVectorRetriever(logger logging.Logger) *VectorRetriever {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &VectorRetriever{
		documents: make(map[string][]core.DocumentChunk),
		vectors:   make(map[string]map[string][]float64),
		logger:    logger,
	}
}

// Add appends chunks to their owning documents. Chunks carrying an embedding
// are recorded in the vector table; chunks without one are stored but will
// never be returned by Retrieve.
func (r *VectorRetriever) Add(chunks []core.DocumentChunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.documents[chunk.DocumentID] = append(r.documents[chunk.DocumentID], chunk)
		if chunk.Embedding == nil {
			r.logger.Warn("chunk has no embedding", "chunk_id", chunk.ChunkID, "document_id", chunk.DocumentID)
			continue
		}
		if _, ok := r.vectors[chunk.DocumentID]; !ok {
			r.vectors[chunk.DocumentID] = make(map[string][]float64)
		}
		r.vectors[chunk.DocumentID][chunk.ChunkID] = chunk.Embedding
	}
}

// Remove deletes every chunk and vector belonging to the document and
// returns how many chunks existed.
func (r *VectorRetriever) Remove(documentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.documents[documentID])
	delete(r.documents, documentID)
	delete(r.vectors, documentID)
	return n
}

// DocumentCount reports how many documents are currently indexed.
func (r *VectorRetriever) DocumentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents)
}

// Retrieve scores every embedded chunk in the candidate set against the
// query vector and returns the top k results ordered by descending cosine
// similarity. Ties keep their scan order (stable sort), so repeated calls on
// an unchanged index return identical orderings.
func (r *VectorRetriever) Retrieve(queryVector []float64, filters Filters, k int) []core.RetrievalResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	documentIDs := r.candidateDocumentsLocked(filters)
	if len(documentIDs) == 0 {
		return []core.RetrievalResult{}
	}

	var results []core.RetrievalResult
	for _, docID := range documentIDs {
		chunksByID := make(map[string]core.DocumentChunk, len(r.documents[docID]))
		for _, chunk := range r.documents[docID] {
			chunksByID[chunk.ChunkID] = chunk
		}
		// Iterate chunks in insertion order so result order is deterministic.
		for _, chunk := range r.documents[docID] {
			embedding, ok := r.vectors[docID][chunk.ChunkID]
			if !ok {
				continue
			}
			results = append(results, core.RetrievalResult{
				DocumentID: docID,
				ChunkID:    chunk.ChunkID,
				Content:    chunksByID[chunk.ChunkID].Content,
				Metadata:   chunk.Metadata,
				Score:      CosineSimilarity(queryVector, embedding),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// candidateDocumentsLocked resolves the document ids matched by the filters
// in deterministic (sorted) order. Caller must hold at least a read lock.
func (r *VectorRetriever) candidateDocumentsLocked(filters Filters) []string {
	if len(filters.DocumentIDs) > 0 {
		ids := make([]string, 0, len(filters.DocumentIDs))
		for _, id := range filters.DocumentIDs {
			if _, ok := r.documents[id]; ok {
				ids = append(ids, id)
			}
		}
		return ids
	}
	ids := make([]string, 0, len(r.documents))
	for id := range r.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// The similarity of a zero-magnitude vector with anything is defined as 0,
// avoiding division by zero. Vectors of different lengths compare over the
// shorter prefix.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
