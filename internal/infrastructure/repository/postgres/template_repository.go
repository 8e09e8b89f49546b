package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TemplateRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS bank_templates (
	id TEXT PRIMARY KEY,
	bank_name TEXT NOT NULL,
	account_type TEXT NOT NULL DEFAULT '',
	patterns JSONB NOT NULL DEFAULT '{}'::jsonb,
	column_mapping JSONB NOT NULL DEFAULT '{}'::jsonb,
	times_used INTEGER NOT NULL DEFAULT 0,
	success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (bank_name, account_type)
);

CREATE INDEX IF NOT EXISTS idx_bank_templates_bank_name ON bank_templates(bank_name);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const templateColumns = `id, bank_name, account_type, patterns, column_mapping, times_used, success_rate, created_at, updated_at`

func (r *TemplateRepository) Find(ctx context.Context, bankName, accountType string) (*domain.Template, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+templateColumns+`
FROM bank_templates
WHERE bank_name = $1 AND account_type = $2
`, bankName, accountType)

	tpl, err := scanTemplateRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTemplateNotFound, "find template",
				fmt.Errorf("bank=%s type=%q", bankName, accountType))
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return tpl, nil
}

func (r *TemplateRepository) FindByBank(ctx context.Context, bankName string) ([]domain.Template, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+templateColumns+`
FROM bank_templates
WHERE bank_name = $1
ORDER BY times_used DESC
`, bankName)
	if err != nil {
		return nil, fmt.Errorf("find templates by bank: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *TemplateRepository) ListAll(ctx context.Context) ([]domain.Template, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+templateColumns+`
FROM bank_templates
ORDER BY bank_name, account_type
`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// Upsert creates or overwrites the template for (bank, account type) in a
// single statement, so concurrent saves for the same key converge
// last-write-wins without duplicating rows.
func (r *TemplateRepository) Upsert(ctx context.Context, bankName, accountType string, patterns domain.TemplatePatterns, mapping domain.ColumnMapping) (*domain.Template, error) {
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return nil, fmt.Errorf("marshal patterns: %w", err)
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("marshal column mapping: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
INSERT INTO bank_templates (id, bank_name, account_type, patterns, column_mapping, times_used, success_rate, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $6)
ON CONFLICT (bank_name, account_type) DO UPDATE
SET patterns = EXCLUDED.patterns,
    column_mapping = EXCLUDED.column_mapping,
    updated_at = EXCLUDED.updated_at
RETURNING `+templateColumns+`
`, uuid.NewString(), bankName, accountType, patternsJSON, mappingJSON, time.Now().UTC())

	tpl, err := scanTemplateRow(row)
	if err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}
	return tpl, nil
}

// UpdateStats folds one observation into the running success-rate mean and
// bumps the usage counter atomically; both expressions read the pre-update
// column values.
func (r *TemplateRepository) UpdateStats(ctx context.Context, id string, success bool) error {
	s := 0.0
	if success {
		s = 1.0
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE bank_templates
SET success_rate = (success_rate * times_used + $2) / (times_used + 1),
    times_used = times_used + 1
WHERE id = $1
`, id, s)
	if err != nil {
		return fmt.Errorf("update template stats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update template stats rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrTemplateNotFound, "update template stats", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bank_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrTemplateNotFound, "delete template", fmt.Errorf("id=%s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplateRow(row rowScanner) (*domain.Template, error) {
	var tpl domain.Template
	var patternsRaw, mappingRaw []byte

	err := row.Scan(
		&tpl.ID, &tpl.BankName, &tpl.AccountType, &patternsRaw, &mappingRaw,
		&tpl.TimesUsed, &tpl.SuccessRate, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patternsRaw, &tpl.Patterns); err != nil {
		return nil, fmt.Errorf("unmarshal patterns: %w", err)
	}
	if err := json.Unmarshal(mappingRaw, &tpl.ColumnMapping); err != nil {
		return nil, fmt.Errorf("unmarshal column mapping: %w", err)
	}
	return &tpl, nil
}

func collectTemplates(rows *sql.Rows) ([]domain.Template, error) {
	out := make([]domain.Template, 0)
	for rows.Next() {
		tpl, err := scanTemplateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}
