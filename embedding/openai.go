package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIOptions configures the OpenAI embedding generator.
type OpenAIOptions struct {
	Model     openai.EmbeddingModel
	BatchSize int
}

// OpenAIGenerator implements Generator on top of the OpenAI embeddings API.
// Inputs are sent in batches to stay under request size limits.
type OpenAIGenerator struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAIGenerator creates a generator using the default client (API key
// from the environment).
func NewOpenAIGenerator(optFns ...func(o *OpenAIOptions)) *OpenAIGenerator {
	client := openai.NewClient()
	return NewOpenAIGeneratorFromClient(&client, optFns...)
}

// NewOpenAIGeneratorFromClient creates a generator from an existing client.
func NewOpenAIGeneratorFromClient(client *openai.Client, optFns ...func(o *OpenAIOptions)) *OpenAIGenerator {
	opts := OpenAIOptions{
		Model:     openai.EmbeddingModelTextEmbedding3Small,
		BatchSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAIGenerator{client: client, opts: opts}
}

// Embed implements Generator.
func (g *OpenAIGenerator) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += g.opts.BatchSize {
		end := start + g.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := g.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[start:end]},
			Model: g.opts.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		for _, item := range resp.Data {
			vectors = append(vectors, item.Embedding)
		}
	}
	return vectors, nil
}
