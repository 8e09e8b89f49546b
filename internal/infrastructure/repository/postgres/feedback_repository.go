package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082602)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS feedback_reports (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	issue TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	status TEXT NOT NULL,
	bank_name TEXT NOT NULL DEFAULT '',
	account_type TEXT NOT NULL DEFAULT '',
	proposed_patterns JSONB,
	proposed_mapping JSONB,
	admin_notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_reports_status ON feedback_reports(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const feedbackColumns = `id, file_name, issue, storage_key, status, bank_name, account_type, proposed_patterns, proposed_mapping, admin_notes, created_at, updated_at`

func (r *FeedbackRepository) Create(ctx context.Context, report *domain.FeedbackReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback_reports (id, file_name, issue, storage_key, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, report.ID, report.FileName, report.Issue, report.StorageKey, string(report.Status), report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback report: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (*domain.FeedbackReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+feedbackColumns+`
FROM feedback_reports
WHERE id = $1
`, id)

	report, err := scanFeedbackRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFeedbackNotFound, "get feedback report", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get feedback report: %w", err)
	}
	return report, nil
}

func (r *FeedbackRepository) List(ctx context.Context) ([]domain.FeedbackReport, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+feedbackColumns+`
FROM feedback_reports
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list feedback reports: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FeedbackReport, 0)
	for rows.Next() {
		report, err := scanFeedbackRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback report: %w", err)
		}
		out = append(out, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback reports: %w", err)
	}
	return out, nil
}

func (r *FeedbackRepository) SaveProposal(ctx context.Context, id, bankName, accountType string, patterns domain.TemplatePatterns, mapping domain.ColumnMapping, notes string) error {
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("marshal proposed patterns: %w", err)
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal proposed mapping: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE feedback_reports
SET bank_name = $2, account_type = $3, proposed_patterns = $4, proposed_mapping = $5, admin_notes = $6, updated_at = $7
WHERE id = $1
`, id, bankName, accountType, patternsJSON, mappingJSON, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save feedback proposal: %w", err)
	}
	return requireFeedbackRow(result, "save feedback proposal", id)
}

func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id string, status domain.FeedbackStatus, notes string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE feedback_reports
SET status = $2, admin_notes = $3, updated_at = $4
WHERE id = $1
`, id, string(status), notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update feedback status: %w", err)
	}
	return requireFeedbackRow(result, "update feedback status", id)
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback report: %w", err)
	}
	return requireFeedbackRow(result, "delete feedback report", id)
}

func requireFeedbackRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrFeedbackNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

func scanFeedbackRow(row rowScanner) (*domain.FeedbackReport, error) {
	var report domain.FeedbackReport
	var status string
	var patternsRaw, mappingRaw []byte

	err := row.Scan(
		&report.ID, &report.FileName, &report.Issue, &report.StorageKey, &status,
		&report.BankName, &report.AccountType, &patternsRaw, &mappingRaw,
		&report.AdminNotes, &report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	report.Status = domain.FeedbackStatus(status)

	if len(patternsRaw) > 0 {
		var patterns domain.TemplatePatterns
		if err := json.Unmarshal(patternsRaw, &patterns); err != nil {
			return nil, fmt.Errorf("unmarshal proposed patterns: %w", err)
		}
		report.ProposedPatterns = &patterns
	}
	if len(mappingRaw) > 0 {
		var mapping domain.ColumnMapping
		if err := json.Unmarshal(mappingRaw, &mapping); err != nil {
			return nil, fmt.Errorf("unmarshal proposed mapping: %w", err)
		}
		report.ProposedMapping = &mapping
	}
	return &report, nil
}
