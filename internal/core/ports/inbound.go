package ports

import (
	"context"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

// StatementExtractor is the inbound contract for one extraction cycle.
type StatementExtractor interface {
	Extract(ctx context.Context, pdfBytes []byte, fileName, password string) *domain.ExtractionResult
}

// BatchFile is one file of a bulk extraction request.
type BatchFile struct {
	FileName string
	PDFBytes []byte
}

// BulkExtractor runs the orchestrator over many files and annotates
// cross-statement continuity per account.
type BulkExtractor interface {
	ExtractBatch(ctx context.Context, files []BatchFile, password string) *domain.BatchResult
}

// TemplateAdmin is the administrative surface over stored templates.
type TemplateAdmin interface {
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// FeedbackService drives the feedback-to-template refinement loop.
type FeedbackService interface {
	Submit(ctx context.Context, fileName, issue string, pdfBytes []byte) (*domain.FeedbackReport, error)
	List(ctx context.Context) ([]domain.FeedbackReport, error)
	RequestAnalysis(ctx context.Context, id string) error
	Analyze(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) (*domain.Template, error)
	Dismiss(ctx context.Context, id string) error
}
