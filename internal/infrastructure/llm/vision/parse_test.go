package vision

import (
	"testing"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

const sampleVisionJSON = `{
  "bankName": "Example Bank",
  "accountNumber": "****1234",
  "statementPeriod": {"from": "2024-01-01", "to": "2024-01-31"},
  "openingBalance": 1000,
  "closingBalance": 1300,
  "totalCredits": 500,
  "totalDebits": 200,
  "transactions": [
    {"date": "2024-01-05", "description": "Payroll", "amount": 500, "balance": 1500},
    {"date": "2024-01-20", "description": "Groceries", "amount": -200, "balance": 1300, "type": "debit"}
  ],
  "template": {
    "patterns": {"bankName": "^Example Bank"},
    "columnMapping": {"date": 0, "description": 1, "amount": 2, "balance": 3}
  }
}`

func TestParseVisionResponseRawJSON(t *testing.T) {
	result, err := parseVisionResponse(sampleVisionJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := result.Statement
	if st.BankName == nil || *st.BankName != "Example Bank" {
		t.Fatalf("unexpected bank: %v", st.BankName)
	}
	if st.StatementPeriod.From == nil || st.StatementPeriod.From.Day() != 1 {
		t.Fatalf("period not parsed: %+v", st.StatementPeriod)
	}
	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(st.Transactions))
	}
	if st.Transactions[0].Type != domain.TransactionCredit {
		t.Fatalf("positive amount without a type must be a credit: %+v", st.Transactions[0])
	}
	if st.Transactions[1].Type != domain.TransactionDebit {
		t.Fatalf("explicit type must win: %+v", st.Transactions[1])
	}
	for i, tx := range st.Transactions {
		if tx.SortOrder != i {
			t.Fatalf("sortOrder must follow response order, got %d at %d", tx.SortOrder, i)
		}
		if tx.Confidence != 0.9 {
			t.Fatalf("expected confidence 0.9, got %v", tx.Confidence)
		}
	}
	if result.Patterns.BankName != "^Example Bank" {
		t.Fatalf("template patterns missing: %+v", result.Patterns)
	}
	if result.Mapping.Amount != 2 {
		t.Fatalf("column mapping missing: %+v", result.Mapping)
	}
}

func TestParseVisionResponseFencedBlock(t *testing.T) {
	raw := "Here is the extraction:\n```json\n" + sampleVisionJSON + "\n```\nDone."
	result, err := parseVisionResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Statement.ClosingBalance != 1300 {
		t.Fatalf("unexpected closing balance: %v", result.Statement.ClosingBalance)
	}
}

func TestParseVisionResponseProseWrappedJSON(t *testing.T) {
	raw := "The statement contains: " + sampleVisionJSON + " as requested."
	if _, err := parseVisionResponse(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseVisionResponseRejectsNonJSON(t *testing.T) {
	if _, err := parseVisionResponse("I could not read this document."); err == nil {
		t.Fatal("expected error for a response without JSON")
	}
}

func TestParseVisionResponseKeepsNullFields(t *testing.T) {
	raw := `{"bankName": null, "transactions": [{"date": null, "description": "Fee", "amount": -5}]}`
	result, err := parseVisionResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Statement.BankName != nil {
		t.Fatalf("null bank must stay nil, got %v", result.Statement.BankName)
	}
	tx := result.Statement.Transactions[0]
	if tx.Date != nil {
		t.Fatalf("null date must stay nil, got %v", tx.Date)
	}
	if tx.Type != domain.TransactionDebit {
		t.Fatalf("negative amount must infer debit, got %q", tx.Type)
	}
}
