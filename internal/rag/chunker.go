package rag

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// ChunkerConfig holds chunking configuration.
type ChunkerConfig struct {
	ChunkSize    int      // Maximum chunk length (default: 1000)
	ChunkOverlap int      // Overlap carried between chunks (default: 100)
	MinPageChars int      // Pages with at most this many characters are dropped (default: 10)
	Separators   []string // Split boundaries, tried in order
	ByTokens     bool     // Measure size and overlap in tokens instead of characters
}

// Chunker splits page texts into chunks.
type Chunker interface {
	// ChunkPages splits per-page text into ordered chunks.
	ChunkPages(pages []string) ([]models.Chunk, error)

	// CountTokens returns the token count for text.
	CountTokens(text string) int
}

// recursiveChunker splits text recursively on a separator hierarchy:
// paragraph breaks first, then lines, sentences, words, and finally bare
// characters. Pieces are re-merged greedily up to the chunk size with a
// trailing overlap carried into the next chunk.
type recursiveChunker struct {
	config ChunkerConfig

	// The encoding tables are fetched on first use. When they cannot be
	// loaded, token counts fall back to a character estimate.
	encOnce  sync.Once
	encoding *tiktoken.Tiktoken
}

// NewChunker creates a new chunker.
func NewChunker(config ChunkerConfig) Chunker {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 100
	}
	if config.MinPageChars == 0 {
		config.MinPageChars = 10
	}
	if len(config.Separators) == 0 {
		config.Separators = []string{"\n\n", "\n", ". ", " ", ""}
	}

	return &recursiveChunker{config: config}
}

// ChunkPages splits per-page text into ordered chunks. Pages that carry
// almost no text (page numbers, stray glyphs from scans) are dropped before
// splitting; chunks that trim to nothing are dropped after.
func (c *recursiveChunker) ChunkPages(pages []string) ([]models.Chunk, error) {
	var valid []string
	for _, page := range pages {
		if utf8.RuneCountInString(strings.TrimSpace(page)) > c.config.MinPageChars {
			valid = append(valid, page)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable text content in document")
	}

	var chunks []models.Chunk
	for _, page := range valid {
		for _, piece := range c.splitText(page, c.config.Separators) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Index:  len(chunks),
				Text:   piece,
				Tokens: c.CountTokens(piece),
			})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from document text")
	}

	return chunks, nil
}

// splitText splits on the first separator present in the text, merges the
// pieces back up to the chunk size, and recurses with the remaining
// separators for any piece still too large.
func (c *recursiveChunker) splitText(text string, separators []string) []string {
	if len(separators) == 0 {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			sep = ""
			next = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			next = separators[i+1:]
			break
		}
	}

	var splits []string
	for _, s := range strings.Split(text, sep) {
		if s != "" {
			splits = append(splits, s)
		}
	}

	var final []string
	var good []string
	for _, s := range splits {
		if c.length(s) < c.config.ChunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.mergeSplits(good, sep)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.splitText(s, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.mergeSplits(good, sep)...)
	}

	return final
}

// mergeSplits packs pieces into chunks up to the chunk size. When a chunk
// closes, leading pieces are shed until what remains fits the overlap
// budget and carries into the next chunk.
func (c *recursiveChunker) mergeSplits(splits []string, sep string) []string {
	sepLen := c.length(sep)

	var docs []string
	var current []string
	total := 0

	for _, d := range splits {
		dLen := c.length(d)

		join := 0
		if len(current) > 0 {
			join = sepLen
		}
		if total+dLen+join > c.config.ChunkSize && len(current) > 0 {
			if doc := joinSplits(current, sep); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 {
				stillOver := total+dLen+sepLen > c.config.ChunkSize && total > 0
				if total <= c.config.ChunkOverlap && !stillOver {
					break
				}
				drop := c.length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}

		current = append(current, d)
		if len(current) > 1 {
			total += sepLen
		}
		total += dLen
	}

	if doc := joinSplits(current, sep); doc != "" {
		docs = append(docs, doc)
	}

	return docs
}

func joinSplits(parts []string, sep string) string {
	return strings.TrimSpace(strings.Join(parts, sep))
}

// length measures a piece in the configured unit.
func (c *recursiveChunker) length(s string) int {
	if c.config.ByTokens {
		return c.CountTokens(s)
	}
	return utf8.RuneCountInString(s)
}

// CountTokens returns the token count for text, or a character-based
// estimate when the encoding tables are unavailable.
func (c *recursiveChunker) CountTokens(text string) int {
	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			c.encoding = enc
		}
	})

	if c.encoding == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(c.encoding.Encode(text, nil, nil))
}
