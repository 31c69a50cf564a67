// Package embedding turns text into vectors for similarity search. The
// Generator interface hides the provider; the OpenAI implementation calls the
// embeddings API and the deterministic generator produces seed-stable vectors
// for tests and offline use.
package embedding

import "context"

// Generator produces one embedding vector per input text, in input order.
type Generator interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
