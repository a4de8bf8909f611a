// Package pdftext reads the text layer of PDF documents.
package pdftext

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/port"
)

type extractor struct{}

// NewExtractor returns a TextExtractor that reads PDF text row by row.
func NewExtractor() port.TextExtractor {
	return &extractor{}
}

// Extract returns the text of every page in order. Words of a row are joined
// with a single space and every page ends with a line break.
func (e *extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			b.WriteString("\n")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", domain.ErrUnreadablePDF, i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
