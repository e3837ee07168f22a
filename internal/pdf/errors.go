// errors.go - Typed failure kinds for PDF validation and extraction
package pdf

import "fmt"

// ValidationKind identifies why an upload was rejected before any preview
// tier ran.
type ValidationKind string

const (
	KindWrongExtension ValidationKind = "wrong_extension"
	KindEmptyFile      ValidationKind = "empty_file"
	KindBadSignature   ValidationKind = "bad_signature"
	KindTooLarge       ValidationKind = "too_large"
)

// ValidationError reports a structural check failure. It is surfaced to the
// caller directly; the preview chain never runs for these.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}

// CorruptionError reports that the document's internal structure cannot be
// opened by the parser.
type CorruptionError struct {
	Reason string
	Err    error
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupted document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupted document: %s", e.Reason)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// ExtractionError reports a metadata or text extraction failure. These drive
// tier fallback and are never fatal on their own.
type ExtractionError struct {
	Op  string // "metadata" or "text"
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
