// Package native extracts plain text with a pure-Go PDF reader. It is the
// fallback when the pdfplumber helper is unavailable: no tables, but enough
// text for bank identification and field regexes.
package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (r *Reader) Parse(_ context.Context, pdfBytes []byte, password string) (*domain.ParsedDocument, error) {
	// The reader retries the password callback until it returns "";
	// offer the supplied password exactly once.
	offered := false
	pw := func() string {
		if offered || password == "" {
			return ""
		}
		offered = true
		return password
	}

	reader, err := pdf.NewReaderEncrypted(bytes.NewReader(pdfBytes), int64(len(pdfBytes)), pw)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			if password == "" {
				return nil, domain.WrapError(domain.ErrPDFEncrypted, "open pdf", err)
			}
			return nil, domain.WrapError(domain.ErrDecryptionFailed, "open pdf", err)
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &domain.ParsedDocument{PageCount: reader.NumPage()}
	var full strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		full.WriteString(text)
		full.WriteString("\n")
		doc.Pages = append(doc.Pages, domain.ParsedPage{
			PageNumber: i,
			Text:       text,
		})
	}

	doc.FullText = strings.TrimSpace(full.String())
	if doc.FullText == "" {
		return nil, fmt.Errorf("pdf contains no extractable text")
	}
	return doc, nil
}
