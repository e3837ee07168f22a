// metadata.go - Document information dictionary extraction
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// ExtractMetadata reads the document information dictionary and page count.
// Individual fields are recovered independently, so a malformed entry drops
// that field instead of failing the whole summary. The returned summary's
// Encrypted flag is left for the caller, which knows it from validation.
func ExtractMetadata(data []byte) (meta *models.MetadataSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = &ExtractionError{Op: "metadata", Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	r, openErr := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, &ExtractionError{Op: "metadata", Err: openErr}
	}

	meta = &models.MetadataSummary{
		PageCount: pageCount(r),
	}

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta, nil
	}

	meta.Title = infoField(info, "Title")
	meta.Author = infoField(info, "Author")
	meta.Subject = infoField(info, "Subject")
	meta.Creator = infoField(info, "Creator")
	meta.Producer = infoField(info, "Producer")
	meta.CreationDate = infoField(info, "CreationDate")
	meta.ModDate = infoField(info, "ModDate")

	return meta, nil
}

// infoField reads one text entry from the information dictionary. Malformed
// entries drop to empty rather than failing the summary.
func infoField(info pdflib.Value, key string) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

func pageCount(r *pdflib.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return r.NumPage()
}
