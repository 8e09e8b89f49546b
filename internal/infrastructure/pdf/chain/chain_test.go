package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

type stubParser struct {
	doc   *domain.ParsedDocument
	err   error
	calls int
}

var _ ports.DocumentParser = (*stubParser)(nil)

func (s *stubParser) Parse(context.Context, []byte, string) (*domain.ParsedDocument, error) {
	s.calls++
	return s.doc, s.err
}

func TestParseFirstSuccessWins(t *testing.T) {
	primary := &stubParser{doc: &domain.ParsedDocument{FullText: "primary"}}
	secondary := &stubParser{doc: &domain.ParsedDocument{FullText: "secondary"}}

	doc, err := New(primary, secondary).Parse(context.Background(), []byte("%PDF"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FullText != "primary" || secondary.calls != 0 {
		t.Fatalf("expected primary result without fallback, got %q (secondary calls %d)", doc.FullText, secondary.calls)
	}
}

func TestParseFallsBackOnFailure(t *testing.T) {
	primary := &stubParser{err: errors.New("helper missing")}
	secondary := &stubParser{doc: &domain.ParsedDocument{FullText: "secondary"}}

	doc, err := New(primary, secondary).Parse(context.Background(), []byte("%PDF"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FullText != "secondary" || primary.calls != 1 {
		t.Fatalf("expected fallback result, got %q", doc.FullText)
	}
}

func TestParseEncryptionShortCircuits(t *testing.T) {
	for _, kind := range []error{domain.ErrPDFEncrypted, domain.ErrDecryptionFailed} {
		t.Run(kind.Error(), func(t *testing.T) {
			primary := &stubParser{err: domain.WrapError(kind, "parse", fmt.Errorf("locked"))}
			secondary := &stubParser{doc: &domain.ParsedDocument{FullText: "secondary"}}

			_, err := New(primary, secondary).Parse(context.Background(), []byte("%PDF"), "")
			if !domain.IsKind(err, kind) {
				t.Fatalf("expected %s to surface, got %v", kind, err)
			}
			if secondary.calls != 0 {
				t.Fatal("encryption errors must not fall through to the next parser")
			}
		})
	}
}

func TestParseAllFailReturnsLastError(t *testing.T) {
	first := &stubParser{err: errors.New("first down")}
	second := &stubParser{err: errors.New("second down")}

	_, err := New(first, second).Parse(context.Background(), []byte("%PDF"), "")
	if err == nil || err.Error() != "second down" {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestParseNoParsersConfigured(t *testing.T) {
	if _, err := New().Parse(context.Background(), []byte("%PDF"), ""); err == nil {
		t.Fatal("expected error with no parsers")
	}
}
