package excel

import (
	"testing"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

func strPtr(s string) *string        { return &s }
func f64Ptr(f float64) *float64      { return &f }
func datePtr(t time.Time) *time.Time { return &t }

func sampleBatch() *domain.BatchResult {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	txDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	return &domain.BatchResult{
		Results: []domain.ExtractionResult{
			{
				Success:          true,
				FileName:         "jan.pdf",
				ExtractionMethod: domain.MethodTemplate,
				Statement: &domain.ExtractedStatement{
					BankName:        strPtr("CHASE"),
					AccountNumber:   strPtr("****1234"),
					StatementPeriod: domain.StatementPeriod{From: datePtr(from), To: datePtr(to)},
					OpeningBalance:  1000,
					ClosingBalance:  1300,
					TotalCredits:    500,
					TotalDebits:     200,
					Transactions: []domain.ExtractedTransaction{
						{
							Date:        datePtr(txDate),
							Description: strPtr("PAYROLL DEPOSIT"),
							Amount:      f64Ptr(500),
							Balance:     f64Ptr(1500),
							Type:        domain.TransactionCredit,
							Confidence:  0.85,
						},
						{
							Date:        datePtr(txDate),
							Description: strPtr("CARD PURCHASE"),
							Amount:      f64Ptr(-200),
							Type:        domain.TransactionDebit,
							Confidence:  0.85,
						},
					},
				},
				Validation: &domain.ValidationNotes{Valid: true},
			},
			{
				Success:  false,
				FileName: "broken.pdf",
				Errors:   []string{"extraction failed", "no text layer"},
			},
		},
		Succeeded: 1,
		Failed:    1,
	}
}

func TestBuildWorkbookLayout(t *testing.T) {
	f, err := BuildWorkbook(sampleBatch())
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	defer f.Close()

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", sheet, ref, err)
		}
		return v
	}

	if got := cell(summarySheet, "A1"); got != "File" {
		t.Fatalf("summary header: got %q", got)
	}
	if got := cell(summarySheet, "B2"); got != "CHASE" {
		t.Fatalf("summary bank: got %q", got)
	}
	if got := cell(summarySheet, "D2"); got != "2024-01-01" {
		t.Fatalf("summary period from: got %q", got)
	}
	if got := cell(summarySheet, "G2"); got != "1300" {
		t.Fatalf("summary closing: got %q", got)
	}
	if got := cell(summarySheet, "L2"); got != "yes" {
		t.Fatalf("summary valid flag: got %q", got)
	}

	if got := cell(summarySheet, "A3"); got != "broken.pdf" {
		t.Fatalf("failed row file: got %q", got)
	}
	if got := cell(summarySheet, "M3"); got != "extraction failed; no text layer" {
		t.Fatalf("failed row errors: got %q", got)
	}

	if got := cell(transactionsSheet, "C2"); got != "PAYROLL DEPOSIT" {
		t.Fatalf("transaction description: got %q", got)
	}
	if got := cell(transactionsSheet, "D3"); got != "-200" {
		t.Fatalf("transaction amount: got %q", got)
	}
	if got := cell(transactionsSheet, "E3"); got != "" {
		t.Fatalf("nil balance must leave the cell empty, got %q", got)
	}
	if got := cell(transactionsSheet, "F2"); got != "credit" {
		t.Fatalf("transaction type: got %q", got)
	}
}

func TestBuildWorkbookEmptyBatch(t *testing.T) {
	f, err := BuildWorkbook(&domain.BatchResult{})
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(transactionsSheet, "A1"); got != "File" {
		t.Fatalf("expected headers even with no results, got %q", got)
	}
	if got, _ := f.GetCellValue(summarySheet, "A2"); got != "" {
		t.Fatalf("expected no data rows, got %q", got)
	}
}
