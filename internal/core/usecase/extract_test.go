package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

type fakeParser struct {
	doc *domain.ParsedDocument
	err error
}

func (p fakeParser) Parse(context.Context, []byte, string) (*domain.ParsedDocument, error) {
	return p.doc, p.err
}

type fakeVision struct {
	result *ports.VisionResult
	err    error
	calls  int
}

func (v *fakeVision) Extract(context.Context, []byte, string) (*ports.VisionResult, error) {
	v.calls++
	return v.result, v.err
}

func visionStatement(bank string) *ports.VisionResult {
	amount := 500.0
	desc := "Payroll"
	return &ports.VisionResult{
		Statement: &domain.ExtractedStatement{
			BankName:       &bank,
			OpeningBalance: 1000,
			TotalCredits:   500,
			ClosingBalance: 1500,
			Transactions: []domain.ExtractedTransaction{
				{Description: &desc, Amount: &amount, Type: domain.TransactionCredit, Confidence: 0.9},
			},
		},
		Patterns: domain.TemplatePatterns{BankName: `(?m)^EXAMPLE BANK$`},
		Mapping:  domain.ColumnMapping{Date: 0, Description: 1, Amount: 2, Balance: 3},
	}
}

func newTestExtractUC(parser ports.DocumentParser, repo *memTemplateRepo, vision ports.VisionExtractor) *ExtractUseCase {
	return NewExtractUseCase(parser, NewTemplateManager(repo), NewTemplateExtractor(), NewValidator(), vision)
}

func TestExtractUsesTemplateWithoutVisionCall(t *testing.T) {
	repo := newMemTemplateRepo()
	ctx := context.Background()
	if _, err := NewTemplateManager(repo).Save(ctx, "CHASE", "", domain.TemplatePatterns{}, domain.ColumnMapping{}); err != nil {
		t.Fatal(err)
	}
	vision := &fakeVision{}
	uc := newTestExtractUC(fakeParser{doc: sampleDocument()}, repo, vision)

	result := uc.Extract(ctx, []byte("%PDF"), "jan.pdf", "")

	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if result.ExtractionMethod != domain.MethodTemplate {
		t.Fatalf("expected template method, got %q", result.ExtractionMethod)
	}
	if vision.calls != 0 {
		t.Fatalf("vision must not be called on a template hit, got %d calls", vision.calls)
	}
	if result.TemplateID == "" {
		t.Fatal("expected template id in result")
	}
	if result.Statement == nil || len(result.Statement.Transactions) != 2 {
		t.Fatalf("unexpected statement: %+v", result.Statement)
	}
	if result.Statement.RawText != "" {
		t.Fatal("raw text must never leave the pipeline")
	}
	if repo.templates[result.TemplateID].TimesUsed != 1 {
		t.Fatal("template usage must be recorded")
	}
	if result.Validation == nil || !result.Validation.Balance.Passed {
		t.Fatalf("expected passing balance check: %+v", result.Validation)
	}
}

func TestExtractFallsBackToVisionAndLearnsTemplate(t *testing.T) {
	repo := newMemTemplateRepo()
	vision := &fakeVision{result: visionStatement("Example Bank")}
	uc := newTestExtractUC(fakeParser{doc: sampleDocument()}, repo, vision)

	result := uc.Extract(context.Background(), []byte("%PDF"), "unknown.pdf", "")

	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if result.ExtractionMethod != domain.MethodVLM {
		t.Fatalf("expected vlm method, got %q", result.ExtractionMethod)
	}
	if vision.calls != 1 {
		t.Fatalf("expected one vision call, got %d", vision.calls)
	}
	if repo.upserts != 1 || len(repo.templates) != 1 {
		t.Fatalf("exactly one template must be learned, upserts=%d stored=%d", repo.upserts, len(repo.templates))
	}
	if result.TemplateID == "" {
		t.Fatal("learned template id must be reported")
	}
	if repo.templates[result.TemplateID].BankName != "EXAMPLE BANK" {
		t.Fatalf("learned template must use the normalized bank name, got %q", repo.templates[result.TemplateID].BankName)
	}
}

func TestExtractEscalatesOnImplausibleTemplateYield(t *testing.T) {
	repo := newMemTemplateRepo()
	ctx := context.Background()
	if _, err := NewTemplateManager(repo).Save(ctx, "CHASE", "", domain.TemplatePatterns{}, domain.ColumnMapping{}); err != nil {
		t.Fatal(err)
	}

	// Substantial text, but no parsable transaction table.
	doc := sampleDocument()
	doc.Pages[0].Tables = nil
	doc.FullText += strings.Repeat("filler text ", 30)
	doc.Pages[0].Text = doc.FullText

	vision := &fakeVision{result: visionStatement("Chase")}
	uc := newTestExtractUC(fakeParser{doc: doc}, repo, vision)

	result := uc.Extract(ctx, []byte("%PDF"), "jan.pdf", "")
	if result.ExtractionMethod != domain.MethodVLM {
		t.Fatalf("zero transactions on substantial text must escalate, got %q", result.ExtractionMethod)
	}
	if vision.calls != 1 {
		t.Fatalf("expected one vision call, got %d", vision.calls)
	}
}

func TestExtractReportsEncryptedPDF(t *testing.T) {
	parseErr := domain.WrapError(domain.ErrPDFEncrypted, "check pdf encryption", errors.New("password required"))
	vision := &fakeVision{result: visionStatement("Chase")}
	uc := newTestExtractUC(fakeParser{err: parseErr}, newMemTemplateRepo(), vision)

	result := uc.Extract(context.Background(), []byte("%PDF"), "locked.pdf", "")
	if result.Success {
		t.Fatal("encrypted pdf without a password must fail")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "PDF_ENCRYPTED") {
		t.Fatalf("expected PDF_ENCRYPTED error, got %v", result.Errors)
	}
	if vision.calls != 0 {
		t.Fatal("encrypted pdf must not reach the vision model")
	}
}

func TestExtractReportsWrongPassword(t *testing.T) {
	parseErr := domain.WrapError(domain.ErrDecryptionFailed, "decrypt pdf", errors.New("invalid password"))
	uc := newTestExtractUC(fakeParser{err: parseErr}, newMemTemplateRepo(), &fakeVision{})

	result := uc.Extract(context.Background(), []byte("%PDF"), "locked.pdf", "wrong")
	if result.Success || len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "DECRYPTION_FAILED") {
		t.Fatalf("expected DECRYPTION_FAILED, got %+v", result)
	}
}

func TestExtractDegradesToVisionOnParserFailure(t *testing.T) {
	vision := &fakeVision{result: visionStatement("Example Bank")}
	uc := newTestExtractUC(fakeParser{err: errors.New("helper crashed")}, newMemTemplateRepo(), vision)

	result := uc.Extract(context.Background(), []byte("%PDF"), "odd.pdf", "")
	if !result.Success || result.ExtractionMethod != domain.MethodVLM {
		t.Fatalf("parser failure must degrade to vision, got %+v", result)
	}
}

func TestExtractFailsWhenVisionExhausted(t *testing.T) {
	vision := &fakeVision{err: errors.New("all models exhausted")}
	uc := newTestExtractUC(fakeParser{doc: sampleDocument()}, newMemTemplateRepo(), vision)

	result := uc.Extract(context.Background(), []byte("%PDF"), "unknown.pdf", "")
	if result.Success {
		t.Fatal("expected failure when vision is exhausted")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "extraction failed") {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.ElapsedMS < 0 {
		t.Fatalf("elapsed must be set, got %d", result.ElapsedMS)
	}
}

func TestExtractConvertsPanicToFailureResult(t *testing.T) {
	uc := newTestExtractUC(fakeParser{doc: sampleDocument()}, newMemTemplateRepo(), nil) // nil vision panics

	result := uc.Extract(context.Background(), []byte("%PDF"), "panic.pdf", "")
	if result == nil || result.Success {
		t.Fatalf("panic must become a failure result, got %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "internal error") {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}
