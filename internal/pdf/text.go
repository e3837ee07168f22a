// text.go - Plain text extraction
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text from the document page by page. maxPages
// bounds how many pages are read and maxChars stops reading once at least
// that many characters have accumulated; zero disables either bound. Pages
// that fail to decode are skipped, so pagesRead counts only pages that
// contributed text. An empty result with a nil error means the document
// simply has no extractable text.
func ExtractText(data []byte, maxPages, maxChars int) (text string, pagesRead int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pagesRead = "", 0
			err = &ExtractionError{Op: "text", Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	r, openErr := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return "", 0, &ExtractionError{Op: "text", Err: openErr}
	}

	total := r.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	var b strings.Builder
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := pageText(page)
		if perr != nil {
			continue
		}
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
		pagesRead++
		if maxChars > 0 && utf8.RuneCountInString(b.String()) >= maxChars {
			break
		}
	}

	return b.String(), pagesRead, nil
}

// ExtractPages returns the text of each page as its own element, in page
// order, including pages that decode to nothing. maxPages bounds how many
// pages are read; zero reads them all. Callers that chunk per page depend
// on the slice index matching the page position.
func ExtractPages(data []byte, maxPages int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ExtractionError{Op: "pages", Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	r, openErr := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		return nil, &ExtractionError{Op: "pages", Err: openErr}
	}

	total := r.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, perr := pageText(page)
		if perr != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}

	return pages, nil
}

// pageText decodes one page. The decoder panics on some malformed content
// streams, so the recovery here turns that into a skippable error.
func pageText(p pdflib.Page) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = ""
			err = fmt.Errorf("page decode panic: %v", r)
		}
	}()
	return p.GetPlainText(nil)
}
