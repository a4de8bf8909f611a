package port

import (
	"context"
	"io"
)

// TextExtractor returns the text layer of a document, pages in order, each
// page followed by a line break.
type TextExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}
