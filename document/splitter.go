package document

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of trailing characters carried from
	// one chunk into the next.
	DefaultChunkOverlap = 200
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	paragraphRe  = regexp.MustCompile(`\n\s*\n|\r\n\s*\r\n`)
)

// TextSplitter cuts document text into overlapping chunks sized for
// embedding. Paragraphs are the unit of splitting; a paragraph is never cut
// mid-sentence, so chunks may exceed ChunkSize when a single paragraph does.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// SplitterOptions configures a TextSplitter.
type SplitterOptions struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewTextSplitter creates a TextSplitter, applying any option functions.
func NewTextSplitter(optFns ...func(o *SplitterOptions)) *TextSplitter {
	opts := SplitterOptions{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TextSplitter{chunkSize: opts.ChunkSize, chunkOverlap: opts.ChunkOverlap}
}

// Split breaks text into chunks. Empty or whitespace-only input yields nil.
func (s *TextSplitter) Split(text string) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}
	return s.merge(paragraphs)
}

// splitParagraphs separates text on blank lines and collapses internal
// whitespace within each paragraph.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphRe.Split(text, -1) {
		p = strings.TrimSpace(whitespaceRe.ReplaceAllString(p, " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge joins paragraphs into chunks no larger than chunkSize where possible,
// seeding each new chunk with trailing paragraphs from the previous one until
// chunkOverlap characters are reached.
func (s *TextSplitter) merge(paragraphs []string) []string {
	var chunks []string
	var current []string
	size := 0

	for _, p := range paragraphs {
		if size+len(p) > s.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			var overlap []string
			overlapSize := 0
			for i := len(current) - 1; i >= 0; i-- {
				if overlapSize+len(current[i]) > s.chunkOverlap {
					break
				}
				overlap = append([]string{current[i]}, overlap...)
				overlapSize += len(current[i])
			}
			current = overlap
			size = overlapSize
		}
		current = append(current, p)
		size += len(p)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
