package ports

import (
	"context"
	"io"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

// TemplateRepository persists learned bank templates. Upserts on the same
// (bank, account type) key converge last-write-wins.
type TemplateRepository interface {
	Find(ctx context.Context, bankName, accountType string) (*domain.Template, error)
	FindByBank(ctx context.Context, bankName string) ([]domain.Template, error)
	ListAll(ctx context.Context) ([]domain.Template, error)
	Upsert(ctx context.Context, bankName, accountType string, patterns domain.TemplatePatterns, mapping domain.ColumnMapping) (*domain.Template, error)
	UpdateStats(ctx context.Context, id string, success bool) error
	Delete(ctx context.Context, id string) error
}

// FeedbackRepository persists user feedback reports.
type FeedbackRepository interface {
	Create(ctx context.Context, report *domain.FeedbackReport) error
	GetByID(ctx context.Context, id string) (*domain.FeedbackReport, error)
	List(ctx context.Context) ([]domain.FeedbackReport, error)
	SaveProposal(ctx context.Context, id, bankName, accountType string, patterns domain.TemplatePatterns, mapping domain.ColumnMapping, notes string) error
	UpdateStatus(ctx context.Context, id string, status domain.FeedbackStatus, notes string) error
	Delete(ctx context.Context, id string) error
}

// DocumentParser converts raw PDF bytes into text and per-page tables.
// A provider failure means "no structured data available", never a hard
// pipeline failure; encrypted PDFs surface domain.ErrPDFEncrypted and a wrong
// password domain.ErrDecryptionFailed.
type DocumentParser interface {
	Parse(ctx context.Context, pdfBytes []byte, password string) (*domain.ParsedDocument, error)
}

// VisionResult is the VLM's combined answer: a statement plus the template it
// inferred while reading the document.
type VisionResult struct {
	Statement *domain.ExtractedStatement
	Patterns  domain.TemplatePatterns
	Mapping   domain.ColumnMapping
}

// VisionExtractor submits PDF bytes to a vision-capable generative model.
// feedbackHint, when non-empty, is appended to the prompt for re-analysis of a
// disputed extraction. Exhausting all models and retries returns
// (nil, nil): a terminal miss the orchestrator converts into a failure.
type VisionExtractor interface {
	Extract(ctx context.Context, pdfBytes []byte, feedbackHint string) (*VisionResult, error)
}

// JobQueue carries feedback-analysis jobs from the API to the worker.
type JobQueue interface {
	PublishFeedbackAnalysis(ctx context.Context, reportID string) error
	SubscribeFeedbackAnalysis(ctx context.Context, handler func(context.Context, string) error) error
}

// ReportStore holds feedback PDFs until the report is resolved or dismissed.
type ReportStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
