package extract

import (
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of an uploaded document.
type Extractor interface {
	ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (PDFExtractor) ExtractText(_ context.Context, r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
