// Package pdftext extracts plain text from PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF parses successfully but yields no
// extractable text (e.g. a scanned, image-only document).
var ErrNoText = errors.New("no extractable text in PDF")

// Extractor turns a PDF byte stream into plain text plus a page count.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (text string, pageCount int, err error)
}

// Ensure Reader implements Extractor interface.
var _ Extractor = (*Reader)(nil)

// Reader extracts text with the ledongthuc/pdf parser.
type Reader struct{}

// NewReader creates a new PDF text reader.
func NewReader() *Reader {
	return &Reader{}
}

// Extract parses the PDF and concatenates the text of every page, each
// prefixed with a page marker. Malformed input yields an error; callers
// treat any failure as "no usable text".
func (r *Reader) Extract(ctx context.Context, data []byte) (text string, pageCount int, err error) {
	// The parser panics on some malformed files; convert that into a
	// normal extraction error instead of killing the request goroutine.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to parse PDF: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount = doc.NumPage()
	var b strings.Builder
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		b.WriteString(pageText)
	}

	text = b.String()
	if strings.TrimSpace(text) == "" {
		return "", pageCount, ErrNoText
	}
	return text, pageCount, nil
}
