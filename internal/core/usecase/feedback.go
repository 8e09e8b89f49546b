package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

// FeedbackUseCase turns production extraction errors into template
// corrections: a user files a report with the original PDF, an admin requests
// an AI re-analysis, and resolving the report commits the proposed patterns
// as a template upsert. The PDF is kept only until the report leaves PENDING.
type FeedbackUseCase struct {
	reports   ports.FeedbackRepository
	store     ports.ReportStore
	queue     ports.JobQueue
	vision    ports.VisionExtractor
	templates *TemplateManager
}

func NewFeedbackUseCase(
	reports ports.FeedbackRepository,
	store ports.ReportStore,
	queue ports.JobQueue,
	vision ports.VisionExtractor,
	templates *TemplateManager,
) *FeedbackUseCase {
	return &FeedbackUseCase{
		reports:   reports,
		store:     store,
		queue:     queue,
		vision:    vision,
		templates: templates,
	}
}

func (uc *FeedbackUseCase) Submit(ctx context.Context, fileName, issue string, pdfBytes []byte) (*domain.FeedbackReport, error) {
	if strings.TrimSpace(issue) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit feedback", fmt.Errorf("issue description is required"))
	}
	if len(pdfBytes) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit feedback", fmt.Errorf("pdf content is required"))
	}

	now := time.Now().UTC()
	report := &domain.FeedbackReport{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Issue:     issue,
		Status:    domain.FeedbackPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	report.StorageKey = fmt.Sprintf("feedback_%s.pdf", report.ID)

	if err := uc.store.Save(ctx, report.StorageKey, bytes.NewReader(pdfBytes)); err != nil {
		return nil, fmt.Errorf("store feedback pdf: %w", err)
	}
	if err := uc.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create feedback report: %w", err)
	}
	return report, nil
}

func (uc *FeedbackUseCase) List(ctx context.Context) ([]domain.FeedbackReport, error) {
	return uc.reports.List(ctx)
}

// RequestAnalysis enqueues a re-analysis job; the worker picks it up and
// calls Analyze.
func (uc *FeedbackUseCase) RequestAnalysis(ctx context.Context, id string) error {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Status != domain.FeedbackPending {
		return domain.WrapError(domain.ErrInvalidInput, "request analysis",
			fmt.Errorf("report %s is %s", id, report.Status))
	}
	if err := uc.queue.PublishFeedbackAnalysis(ctx, id); err != nil {
		return fmt.Errorf("enqueue feedback analysis: %w", err)
	}
	return nil
}

// Analyze re-runs the VLM over the disputed PDF with the user's issue text as
// guidance and stores the inferred patterns on the report for admin review.
func (uc *FeedbackUseCase) Analyze(ctx context.Context, id string) error {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}

	reader, err := uc.store.Open(ctx, report.StorageKey)
	if err != nil {
		return fmt.Errorf("open feedback pdf: %w", err)
	}
	defer reader.Close()
	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read feedback pdf: %w", err)
	}

	vis, err := uc.vision.Extract(ctx, pdfBytes, report.Issue)
	if err != nil {
		return fmt.Errorf("analyze feedback: %w", err)
	}
	if vis == nil || vis.Statement == nil {
		return domain.WrapError(domain.ErrExtractionFailed, "analyze feedback",
			fmt.Errorf("vision models exhausted for report %s", id))
	}

	bankName := ""
	if vis.Statement.BankName != nil {
		bankName = domain.NormalizeBankName(*vis.Statement.BankName)
	}
	accountType := ""
	if vis.Statement.AccountType != nil {
		accountType = *vis.Statement.AccountType
	}
	notes := fmt.Sprintf("analysis completed at %s", time.Now().UTC().Format(time.RFC3339))
	if err := uc.reports.SaveProposal(ctx, id, bankName, accountType, vis.Patterns, vis.Mapping, notes); err != nil {
		return fmt.Errorf("save analysis proposal: %w", err)
	}
	return nil
}

// Resolve commits the analyzed patterns as a template upsert, marks the
// report RESOLVED, and discards the stored PDF.
func (uc *FeedbackUseCase) Resolve(ctx context.Context, id string) (*domain.Template, error) {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ProposedPatterns == nil || report.ProposedMapping == nil || report.BankName == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve feedback",
			fmt.Errorf("report %s has no analysis proposal", id))
	}

	tpl, err := uc.templates.Save(ctx, report.BankName, report.AccountType, *report.ProposedPatterns, *report.ProposedMapping)
	if err != nil {
		return nil, fmt.Errorf("commit proposed template: %w", err)
	}

	if err := uc.reports.UpdateStatus(ctx, id, domain.FeedbackResolved, "template "+tpl.ID+" updated"); err != nil {
		return nil, fmt.Errorf("mark feedback resolved: %w", err)
	}
	uc.discardPDF(ctx, report)
	return tpl, nil
}

// Dismiss rejects the report and discards its PDF.
func (uc *FeedbackUseCase) Dismiss(ctx context.Context, id string) error {
	report, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.reports.UpdateStatus(ctx, id, domain.FeedbackDismissed, ""); err != nil {
		return fmt.Errorf("mark feedback dismissed: %w", err)
	}
	uc.discardPDF(ctx, report)
	return nil
}

func (uc *FeedbackUseCase) discardPDF(ctx context.Context, report *domain.FeedbackReport) {
	if report.StorageKey == "" {
		return
	}
	if err := uc.store.Delete(ctx, report.StorageKey); err != nil {
		slog.Warn("feedback_pdf_delete_failed", "report_id", report.ID, "error", err)
	}
}
