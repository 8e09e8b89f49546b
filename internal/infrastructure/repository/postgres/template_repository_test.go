package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

func newTemplateRepoWithMock(t *testing.T) (*TemplateRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &TemplateRepository{db: db}, mock, func() { _ = db.Close() }
}

func templateRows(id string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "bank_name", "account_type", "patterns", "column_mapping",
		"times_used", "success_rate", "created_at", "updated_at",
	}).AddRow(id, "CHASE", "", []byte(`{"bankName":"^CHASE"}`), []byte(`{"date":0,"description":1,"amount":2,"balance":3}`), 4, 0.75, now, now)
}

func TestFindReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, bank_name, account_type").
		WithArgs("CHASE", "").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "CHASE", "")
	if !domain.IsKind(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindDecodesJSONBColumns(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, bank_name, account_type").
		WithArgs("CHASE", "").
		WillReturnRows(templateRows("tpl-1"))

	tpl, err := repo.Find(context.Background(), "CHASE", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Patterns.BankName != "^CHASE" {
		t.Fatalf("patterns not decoded: %+v", tpl.Patterns)
	}
	if tpl.ColumnMapping.Amount != 2 || tpl.ColumnMapping.Balance != 3 {
		t.Fatalf("column mapping not decoded: %+v", tpl.ColumnMapping)
	}
	if tpl.TimesUsed != 4 || tpl.SuccessRate != 0.75 {
		t.Fatalf("stats not decoded: %+v", tpl)
	}
}

func TestUpsertSendsJSONAndReturnsRow(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO bank_templates").
		WithArgs(sqlmock.AnyArg(), "CHASE", "checking", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(templateRows("tpl-1"))

	tpl, err := repo.Upsert(context.Background(), "CHASE", "checking",
		domain.TemplatePatterns{BankName: "^CHASE"}, domain.ColumnMapping{Amount: 2, Balance: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.ID != "tpl-1" {
		t.Fatalf("expected returned row, got %+v", tpl)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatsFoldsObservationInSQL(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectExec(`UPDATE bank_templates`).
		WithArgs("tpl-1", 1.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStats(context.Background(), "tpl-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatsReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectExec(`UPDATE bank_templates`).
		WithArgs("missing", 0.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStats(context.Background(), "missing", false)
	if !domain.IsKind(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestDeleteReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM bank_templates").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestFindByBankOrdersByUsage(t *testing.T) {
	repo, mock, done := newTemplateRepoWithMock(t)
	defer done()

	mock.ExpectQuery("ORDER BY times_used DESC").
		WithArgs("CHASE").
		WillReturnRows(templateRows("tpl-1"))

	templates, err := repo.FindByBank(context.Background(), "CHASE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "tpl-1" {
		t.Fatalf("unexpected templates: %+v", templates)
	}
}
