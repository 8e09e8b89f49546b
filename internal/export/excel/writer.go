// Package excel renders batch extraction results as an XLSX workbook. The
// workbook is built in memory and streamed in the HTTP response; nothing is
// written to disk.
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
	dateLayout        = "2006-01-02"
)

var summaryHeader = []any{
	"File", "Bank", "Account", "Period From", "Period To",
	"Opening", "Closing", "Credits", "Debits", "Transactions",
	"Method", "Valid", "Errors",
}

var transactionsHeader = []any{
	"File", "Date", "Description", "Amount", "Balance", "Type", "Confidence",
}

// BuildWorkbook produces a two-sheet workbook: one summary row per file and
// one transactions row per extracted transaction. The caller owns the file
// and must Close it.
func BuildWorkbook(batch *domain.BatchResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return nil, fmt.Errorf("create transactions sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, summaryHeader); err != nil {
		return nil, err
	}
	if err := writeRow(f, transactionsSheet, 1, transactionsHeader); err != nil {
		return nil, err
	}

	summaryRow := 2
	txRow := 2
	for _, res := range batch.Results {
		if err := writeRow(f, summarySheet, summaryRow, summaryValues(res)); err != nil {
			return nil, err
		}
		summaryRow++

		if res.Statement == nil {
			continue
		}
		for _, tx := range res.Statement.Transactions {
			values := []any{
				res.FileName,
				formatDate(tx.Date),
				stringOrEmpty(tx.Description),
				floatOrNil(tx.Amount),
				floatOrNil(tx.Balance),
				string(tx.Type),
				tx.Confidence,
			}
			if err := writeRow(f, transactionsSheet, txRow, values); err != nil {
				return nil, err
			}
			txRow++
		}
	}

	return f, nil
}

func summaryValues(res domain.ExtractionResult) []any {
	values := []any{res.FileName}
	if res.Statement != nil {
		values = append(values,
			stringOrEmpty(res.Statement.BankName),
			stringOrEmpty(res.Statement.AccountNumber),
			formatDate(res.Statement.StatementPeriod.From),
			formatDate(res.Statement.StatementPeriod.To),
			res.Statement.OpeningBalance,
			res.Statement.ClosingBalance,
			res.Statement.TotalCredits,
			res.Statement.TotalDebits,
			len(res.Statement.Transactions),
		)
	} else {
		values = append(values, "", "", "", "", nil, nil, nil, nil, 0)
	}
	values = append(values, string(res.ExtractionMethod), validFlag(res))
	values = append(values, joinErrors(res.Errors))
	return values
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func validFlag(res domain.ExtractionResult) string {
	if res.Validation == nil {
		return ""
	}
	if res.Validation.Valid {
		return "yes"
	}
	return "no"
}

func joinErrors(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
