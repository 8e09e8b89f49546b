// Package chain tries document parsers in order, returning the first
// structured result. Encryption errors are definitive and short-circuit;
// other failures degrade to the next parser.
package chain

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

type Parser struct {
	parsers []ports.DocumentParser
}

func New(parsers ...ports.DocumentParser) *Parser {
	return &Parser{parsers: parsers}
}

func (c *Parser) Parse(ctx context.Context, pdfBytes []byte, password string) (*domain.ParsedDocument, error) {
	var lastErr error
	for _, p := range c.parsers {
		doc, err := p.Parse(ctx, pdfBytes, password)
		if err == nil {
			return doc, nil
		}
		if domain.IsKind(err, domain.ErrPDFEncrypted) || domain.IsKind(err, domain.ErrDecryptionFailed) {
			return nil, err
		}
		slog.Debug("document_parser_fallback", "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no document parsers configured")
	}
	return nil, lastErr
}
