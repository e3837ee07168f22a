// Package testutil provides shared test fixtures.
package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// pdfOptions collects the knobs for MinimalPDF.
type pdfOptions struct {
	pageTexts     []string
	title         string
	author        string
	producer      string
	padding       int
	encryptMarker bool
}

// PDFOption customizes a generated document.
type PDFOption func(*pdfOptions)

// WithText puts the given text on a single page.
func WithText(text string) PDFOption {
	return func(o *pdfOptions) { o.pageTexts = []string{text} }
}

// WithPageTexts builds one page per entry, each carrying its text.
func WithPageTexts(texts ...string) PDFOption {
	return func(o *pdfOptions) { o.pageTexts = texts }
}

// WithTitle sets the information dictionary title.
func WithTitle(title string) PDFOption {
	return func(o *pdfOptions) { o.title = title }
}

// WithAuthor sets the information dictionary author.
func WithAuthor(author string) PDFOption {
	return func(o *pdfOptions) { o.author = author }
}

// WithProducer sets the information dictionary producer.
func WithProducer(producer string) PDFOption {
	return func(o *pdfOptions) { o.producer = producer }
}

// WithPadding inflates the file by n bytes via an unreferenced stream
// object, for exercising size thresholds without real content.
func WithPadding(n int) PDFOption {
	return func(o *pdfOptions) { o.padding = n }
}

// WithEncryptMarker adds a standard security handler reference to the
// trailer. The handler's password hashes are garbage, so readers treat the
// document as encrypted with an unknown password.
func WithEncryptMarker() PDFOption {
	return func(o *pdfOptions) { o.encryptMarker = true }
}

// MinimalPDF builds a small but structurally complete document: catalog,
// page tree, per-page content streams, a Helvetica font and a cross
// reference table with exact offsets. The output passes strict parsers,
// which is what makes it useful for validation tests.
func MinimalPDF(opts ...PDFOption) []byte {
	o := pdfOptions{pageTexts: []string{"Hello"}}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.pageTexts) == 0 {
		o.pageTexts = []string{""}
	}

	n := len(o.pageTexts)
	pageNum := func(i int) int { return 3 + i }
	contentNum := func(i int) int { return 3 + n + i }
	fontNum := 3 + 2*n

	next := fontNum + 1
	infoNum := 0
	if o.title != "" || o.author != "" || o.producer != "" {
		infoNum = next
		next++
	}
	encryptNum := 0
	if o.encryptMarker {
		encryptNum = next
		next++
	}
	padNum := 0
	if o.padding > 0 {
		padNum = next
		next++
	}
	size := next

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, size-1)
	writeObj := func(format string, args ...any) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, format, args...)
	}

	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", pageNum(i))
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), n)

	for i := 0; i < n; i++ {
		writeObj("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageNum(i), fontNum, contentNum(i))
	}
	for i := 0; i < n; i++ {
		stream := contentStream(o.pageTexts[i])
		writeObj("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentNum(i), len(stream), stream)
	}

	writeObj("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica "+
		"/Encoding /WinAnsiEncoding >>\nendobj\n", fontNum)

	if infoNum > 0 {
		var entries []string
		if o.title != "" {
			entries = append(entries, fmt.Sprintf("/Title (%s)", escapeText(o.title)))
		}
		if o.author != "" {
			entries = append(entries, fmt.Sprintf("/Author (%s)", escapeText(o.author)))
		}
		if o.producer != "" {
			entries = append(entries, fmt.Sprintf("/Producer (%s)", escapeText(o.producer)))
		}
		writeObj("%d 0 obj\n<< %s >>\nendobj\n", infoNum, strings.Join(entries, " "))
	}
	if encryptNum > 0 {
		hash := strings.Repeat("a", 32)
		writeObj("%d 0 obj\n<< /Filter /Standard /V 1 /R 2 /O (%s) /U (%s) /P -1 >>\nendobj\n",
			encryptNum, hash, hash)
	}
	if padNum > 0 {
		pad := strings.Repeat("0", o.padding)
		writeObj("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			padNum, len(pad), pad)
	}

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	buf.WriteString("trailer\n<< ")
	fmt.Fprintf(&buf, "/Size %d /Root 1 0 R", size)
	if infoNum > 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoNum)
	}
	if encryptNum > 0 {
		fmt.Fprintf(&buf, " /Encrypt %d 0 R", encryptNum)
	}
	buf.WriteString(" >>\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOffset)
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}

// GarbagePDF returns bytes with a valid header and tail marker but no
// object structure, so only a deep parse rejects it.
func GarbagePDF() []byte {
	return []byte("%PDF-1.4\nnot an object stream in any meaningful sense\n%%EOF\n")
}

func contentStream(text string) string {
	ops := []string{"BT /F1 12 Tf 72 720 Td"}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			ops = append(ops, "0 -14 Td")
		}
		ops = append(ops, fmt.Sprintf("(%s) Tj", escapeText(line)))
	}
	ops = append(ops, "ET")
	return strings.Join(ops, " ")
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
