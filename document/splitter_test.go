package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSplitter_EmptyInput(t *testing.T) {
	splitter := NewTextSplitter()

	assert.Nil(t, splitter.Split(""))
	assert.Nil(t, splitter.Split("   \n\n  \t "))
}

func TestTextSplitter_SingleSmallParagraph(t *testing.T) {
	splitter := NewTextSplitter()

	chunks := splitter.Split("Just one short paragraph.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short paragraph.", chunks[0])
}

func TestTextSplitter_CollapsesWhitespace(t *testing.T) {
	splitter := NewTextSplitter()

	chunks := splitter.Split("a  sentence\twith   messy\nspacing")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a sentence with messy spacing", chunks[0])
}

func TestTextSplitter_SplitsOnChunkSize(t *testing.T) {
	splitter := NewTextSplitter(func(o *SplitterOptions) {
		o.ChunkSize = 50
		o.ChunkOverlap = 0
	})

	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 30)
	p3 := strings.Repeat("c", 30)
	chunks := splitter.Split(p1 + "\n\n" + p2 + "\n\n" + p3)

	require.Len(t, chunks, 3)
	assert.Equal(t, p1, chunks[0])
	assert.Equal(t, p2, chunks[1])
	assert.Equal(t, p3, chunks[2])
}

func TestTextSplitter_OverlapCarriesTrailingParagraph(t *testing.T) {
	splitter := NewTextSplitter(func(o *SplitterOptions) {
		o.ChunkSize = 50
		o.ChunkOverlap = 30
	})

	p1 := strings.Repeat("a", 30)
	p2 := strings.Repeat("b", 20)
	p3 := strings.Repeat("c", 40)
	chunks := splitter.Split(p1 + "\n\n" + p2 + "\n\n" + p3)

	require.Len(t, chunks, 2)
	assert.Equal(t, p1+" "+p2, chunks[0])
	// p2 fits in the overlap budget and seeds the second chunk.
	assert.Equal(t, p2+" "+p3, chunks[1])
}

func TestTextSplitter_OversizedParagraphKeptWhole(t *testing.T) {
	splitter := NewTextSplitter(func(o *SplitterOptions) {
		o.ChunkSize = 50
		o.ChunkOverlap = 10
	})

	big := strings.Repeat("x", 200)
	chunks := splitter.Split(big)

	require.Len(t, chunks, 1)
	assert.Equal(t, big, chunks[0])
}
