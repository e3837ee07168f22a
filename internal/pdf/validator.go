// validator.go - Structural validation for uploaded PDFs
package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Signature is the PDF magic the header must start with.
var Signature = []byte("%PDF-")

const (
	// eofScanWindow bounds where the %%EOF marker is expected, matching the
	// trailer layout common PDF writers produce.
	eofScanWindow = 1024
	// encryptScanWindow bounds the tail scan for the trailer's /Encrypt entry.
	encryptScanWindow = 2048
)

// Limits carries the validator's size bounds.
type Limits struct {
	// HardCap is the absolute size in bytes beyond which validation fails
	// outright. Zero disables the check.
	HardCap int64
}

// Result is the outcome of a successful validation pass. Pure value,
// discarded after use.
type Result struct {
	Filename  string
	Size      int64
	Encrypted bool
}

// Validate runs the structural checks over raw document bytes, cheapest
// first: extension, empty-file, header signature, size cap, then the full
// structural parse. It returns a typed error for the first failing check.
// Encryption is recorded as a flag, never an error; the deep parse is skipped
// for encrypted documents since it cannot complete without a password.
func Validate(data []byte, filename string, limits Limits) (*Result, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".pdf" {
		return nil, &ValidationError{
			Kind:    KindWrongExtension,
			Message: fmt.Sprintf("expected a .pdf file, got %q", filepath.Base(filename)),
		}
	}

	if len(data) == 0 {
		return nil, &ValidationError{
			Kind:    KindEmptyFile,
			Message: "file is empty",
		}
	}

	if !bytes.HasPrefix(data, Signature) {
		return nil, &ValidationError{
			Kind:    KindBadSignature,
			Message: "file header does not match the PDF signature",
		}
	}

	if limits.HardCap > 0 && int64(len(data)) > limits.HardCap {
		return nil, &ValidationError{
			Kind:    KindTooLarge,
			Message: fmt.Sprintf("file is %d bytes, cap is %d", len(data), limits.HardCap),
		}
	}

	if !hasEOFMarker(data) {
		return nil, &CorruptionError{Reason: "missing %%EOF marker in file tail"}
	}

	result := &Result{
		Filename:  filepath.Base(filename),
		Size:      int64(len(data)),
		Encrypted: hasEncryptDict(data),
	}

	if !result.Encrypted {
		if err := validateStructure(data); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// hasEOFMarker reports whether the end-of-file marker appears within the
// final window of the document.
func hasEOFMarker(data []byte) bool {
	tail := data
	if len(tail) > eofScanWindow {
		tail = tail[len(tail)-eofScanWindow:]
	}
	return bytes.Contains(tail, []byte("%%EOF"))
}

// hasEncryptDict reports whether the trailer region references an encryption
// dictionary. The trailer sits at the end of the file, so a bounded tail scan
// is sufficient.
func hasEncryptDict(data []byte) bool {
	tail := data
	if len(tail) > encryptScanWindow {
		tail = tail[len(tail)-encryptScanWindow:]
	}
	return bytes.Contains(tail, []byte("/Encrypt"))
}

// validateStructure opens the document's object structure. Relaxed mode
// tolerates the malformed output common PDF producers emit.
func validateStructure(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return &CorruptionError{Reason: "cannot read document structure", Err: err}
	}

	if err := api.ValidateContext(ctx); err != nil {
		return &CorruptionError{Reason: "document structure is invalid", Err: err}
	}

	return nil
}
