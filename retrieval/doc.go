// Package retrieval implements the in-memory vector store behind the
// information-retrieval agent: per-document chunk lists, a parallel embedding
// table, brute-force cosine similarity search with stable descending
// ordering, and a short-TTL query cache with coarse invalidation.
package retrieval
