package usecase

import (
	"testing"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

func TestIdentifyBankPrefersTemplatePattern(t *testing.T) {
	text := "Statement issued by First Example Bank N.A.\nAccount Number: 1234"
	patterns := &domain.TemplatePatterns{BankName: `issued by ([A-Za-z ]+Bank)`}

	got := IdentifyBank(text, patterns)
	if got == nil || *got != "First Example Bank" {
		t.Fatalf("expected template pattern match, got %v", got)
	}
}

func TestIdentifyBankFallsBackOnMalformedPattern(t *testing.T) {
	text := "CHASE BANK\nStatement of Account"
	patterns := &domain.TemplatePatterns{BankName: `([unclosed`}

	got := IdentifyBank(text, patterns)
	if got == nil || *got != "CHASE" {
		t.Fatalf("expected known-bank fallback, got %v", got)
	}
}

func TestIdentifyBankScansOnlyLeadingLines(t *testing.T) {
	text := "line\nline\nline\nline\nline\nline\nline\nline\nline\nline\nWELLS FARGO"

	got := IdentifyBank(text, nil)
	if got == nil || *got == "WELLS FARGO" {
		t.Fatalf("known bank beyond the scan window must not match, got %v", got)
	}
	// Falls through to the first plausible line instead.
	if *got != "line" {
		t.Fatalf("expected first-line fallback, got %q", *got)
	}
}

func TestIdentifyBankFirstLineFallbackSkipsImplausibleLengths(t *testing.T) {
	text := "ab\nSecurity Trust & Savings\nmore text"

	got := IdentifyBank(text, nil)
	if got == nil || *got != "Security Trust & Savings" {
		t.Fatalf("expected second line, got %v", got)
	}
}

func TestIdentifyBankEmptyText(t *testing.T) {
	if got := IdentifyBank("   \n  ", nil); got != nil {
		t.Fatalf("expected nil for blank text, got %q", *got)
	}
}
