// Package preview builds the best available preview for a validated
// document by walking a fixed fallback order: inline content, structural
// metadata, a text snippet, then bare file facts. Earlier tiers give richer
// previews but have size and decodability requirements; the last tier only
// restates facts already known, so the chain as a whole cannot fail.
package preview

import (
	"encoding/base64"
	"log/slog"
	"unicode/utf8"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
)

// Config carries the tier thresholds. InlineLimit must stay below
// MetadataLimit for the tier order to mean anything.
type Config struct {
	// InlineLimit is the raw size bound for inline previews.
	InlineLimit int64
	// EncodedLimit bounds the base64 payload actually shipped to the
	// client. Encoding expands content by about a third, so this is
	// checked against the encoded length, not the raw one.
	EncodedLimit int64
	// MetadataLimit is the raw size bound for metadata previews.
	MetadataLimit int64
	// SnippetChars caps the snippet length in characters.
	SnippetChars int
	// SnippetPages bounds how many pages the snippet tier reads.
	SnippetPages int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		InlineLimit:   5 << 20,
		EncodedLimit:  10 << 20,
		MetadataLimit: 50 << 20,
		SnippetChars:  500,
		SnippetPages:  10,
	}
}

// Chain walks the tiers in forward order, each attempted at most once.
// Failures inside a tier are logged and drive the transition to the next
// tier; they never reach the caller.
type Chain struct {
	cfg Config
	log *slog.Logger
}

func NewChain(cfg Config, log *slog.Logger) *Chain {
	return &Chain{cfg: cfg, log: log}
}

// Build produces the preview artifact for a document that already passed
// validation. The data slice is read only; no reference to it survives the
// call beyond the returned artifact.
func (c *Chain) Build(data []byte, doc *pdf.Result) *models.PreviewArtifact {
	if art := c.tryInline(data, doc); art != nil {
		return art
	}
	if art := c.tryMetadata(data, doc); art != nil {
		return art
	}
	if art := c.trySnippet(data, doc); art != nil {
		return art
	}
	return &models.PreviewArtifact{
		Tier:  models.TierBasic,
		Basic: &models.BasicInfo{Filename: doc.Filename, Size: doc.Size},
	}
}

// tryInline ships the full document as a base64 payload. Encrypted
// documents are skipped since the client cannot decode their content
// without a password.
func (c *Chain) tryInline(data []byte, doc *pdf.Result) *models.PreviewArtifact {
	if doc.Encrypted {
		c.log.Debug("inline preview skipped, document is encrypted", "file", doc.Filename)
		return nil
	}
	if doc.Size > c.cfg.InlineLimit {
		c.log.Debug("inline preview skipped, document too large",
			"file", doc.Filename, "size", doc.Size, "limit", c.cfg.InlineLimit)
		return nil
	}

	encodedSize := int64(base64.StdEncoding.EncodedLen(len(data)))
	if c.cfg.EncodedLimit > 0 && encodedSize > c.cfg.EncodedLimit {
		err := &EncodingError{EncodedSize: encodedSize, Limit: c.cfg.EncodedLimit}
		c.log.Warn("inline preview failed", "file", doc.Filename, "error", err)
		return nil
	}

	return &models.PreviewArtifact{
		Tier: models.TierInline,
		Inline: &models.InlinePreview{
			ContentType: "application/pdf",
			Data:        base64.StdEncoding.EncodeToString(data),
			EncodedSize: encodedSize,
		},
	}
}

// tryMetadata reads the information dictionary. Fields fail individually,
// so whatever was readable is still surfaced. For encrypted documents the
// reader refuses to open at all, but the encryption flag itself is metadata
// worth showing, so the tier still succeeds with just that.
func (c *Chain) tryMetadata(data []byte, doc *pdf.Result) *models.PreviewArtifact {
	if doc.Size > c.cfg.MetadataLimit {
		c.log.Debug("metadata preview skipped, document too large",
			"file", doc.Filename, "size", doc.Size, "limit", c.cfg.MetadataLimit)
		return nil
	}

	meta, err := pdf.ExtractMetadata(data)
	if err != nil {
		if !doc.Encrypted {
			c.log.Warn("metadata preview failed", "file", doc.Filename, "error", err)
			return nil
		}
		c.log.Debug("metadata limited to encryption flag", "file", doc.Filename, "error", err)
		meta = &models.MetadataSummary{}
	}
	meta.Encrypted = doc.Encrypted

	return &models.PreviewArtifact{Tier: models.TierMetadata, Metadata: meta}
}

func (c *Chain) trySnippet(data []byte, doc *pdf.Result) *models.PreviewArtifact {
	if doc.Encrypted {
		c.log.Debug("snippet preview skipped, document is encrypted", "file", doc.Filename)
		return nil
	}

	text, pages, err := pdf.ExtractText(data, c.cfg.SnippetPages, c.cfg.SnippetChars)
	if err != nil {
		c.log.Warn("snippet preview failed", "file", doc.Filename, "error", err)
		return nil
	}
	if text == "" {
		c.log.Debug("snippet preview skipped, no extractable text", "file", doc.Filename)
		return nil
	}

	snippet, truncated := truncateRunes(text, c.cfg.SnippetChars)
	return &models.PreviewArtifact{
		Tier: models.TierSnippet,
		Snippet: &models.TextSnippet{
			Text:      snippet,
			Truncated: truncated,
			PagesRead: pages,
		},
	}
}

func truncateRunes(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
