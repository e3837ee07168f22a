package models

// PreviewTier identifies which rung of the fallback chain produced an artifact.
type PreviewTier string

const (
	TierInline   PreviewTier = "inline"   // tier 1: full content, base64-encoded
	TierMetadata PreviewTier = "metadata" // tier 2: document properties only
	TierSnippet  PreviewTier = "snippet"  // tier 3: bounded text excerpt
	TierBasic    PreviewTier = "basic"    // tier 4: filename and size
)

// PreviewArtifact is the tagged result of the preview fallback chain. Exactly
// one payload field matching Tier is populated.
type PreviewArtifact struct {
	Tier     PreviewTier      `json:"tier"`
	Inline   *InlinePreview   `json:"inline,omitempty"`
	Metadata *MetadataSummary `json:"metadata,omitempty"`
	Snippet  *TextSnippet     `json:"snippet,omitempty"`
	Basic    *BasicInfo       `json:"basic,omitempty"`
}

// InlinePreview carries the full document encoded for inline display.
type InlinePreview struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"` // base64-encoded document bytes
	EncodedSize int64  `json:"encodedSize"`
}

// MetadataSummary carries document properties without any page content.
// Fields that could not be extracted are left empty; extraction failure is
// per-field, not per-document.
type MetadataSummary struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`
	PageCount    int    `json:"pageCount,omitempty"`
	Encrypted    bool   `json:"encrypted"`
}

// TextSnippet carries a bounded excerpt from the first pages.
type TextSnippet struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	PagesRead int    `json:"pagesRead"`
}

// BasicInfo carries the facts known without parsing anything.
type BasicInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
