package usecase

import (
	"testing"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }
func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleDocument() *domain.ParsedDocument {
	text := "CHASE BANK\n" +
		"Account Holder: Jane Doe\n" +
		"Account Number: ****1234\n" +
		"January 1, 2024 - January 31, 2024\n" +
		"Opening Balance: $1,000.00\n" +
		"Closing Balance: $1,300.00\n" +
		"Total Credits: $500.00\n" +
		"Total Debits: $200.00\n"
	return &domain.ParsedDocument{
		FullText: text,
		Pages: []domain.ParsedPage{
			{
				PageNumber: 1,
				Text:       text,
				Tables: []domain.Table{
					{
						{"Date", "Description", "Amount", "Balance"},
						{"01/05/2024", "Payroll", "500.00", "1,500.00"},
						{"", "", "", ""},
						{"01/20/2024", "Groceries", "-200.00", "1,300.00"},
					},
				},
			},
		},
		PageCount: 1,
	}
}

func TestTemplateExtractorReadsFullStatement(t *testing.T) {
	st := NewTemplateExtractor().Extract(sampleDocument(), &domain.Template{BankName: "CHASE"})

	if st.BankName == nil || *st.BankName != "CHASE" {
		t.Fatalf("expected bank CHASE, got %v", st.BankName)
	}
	if st.AccountHolder == nil || *st.AccountHolder != "Jane Doe" {
		t.Fatalf("expected account holder Jane Doe, got %v", st.AccountHolder)
	}
	if st.AccountNumber == nil || *st.AccountNumber != "****1234" {
		t.Fatalf("expected masked account number, got %v", st.AccountNumber)
	}
	if st.StatementPeriod.From == nil || !st.StatementPeriod.From.Equal(*datePtr(2024, time.January, 1)) {
		t.Fatalf("unexpected period start: %v", st.StatementPeriod.From)
	}
	if st.StatementPeriod.To == nil || !st.StatementPeriod.To.Equal(*datePtr(2024, time.January, 31)) {
		t.Fatalf("unexpected period end: %v", st.StatementPeriod.To)
	}
	if st.OpeningBalance != 1000 || st.ClosingBalance != 1300 || st.TotalCredits != 500 || st.TotalDebits != 200 {
		t.Fatalf("unexpected summary values: %+v", st)
	}

	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 transactions (blank row skipped), got %d", len(st.Transactions))
	}
	first, second := st.Transactions[0], st.Transactions[1]
	if first.Amount == nil || *first.Amount != 500 || first.Type != domain.TransactionCredit {
		t.Fatalf("unexpected first transaction: %+v", first)
	}
	if second.Amount == nil || *second.Amount != -200 || second.Type != domain.TransactionDebit {
		t.Fatalf("debit must carry a negative amount: %+v", second)
	}
	if second.Balance == nil || *second.Balance != 1300 {
		t.Fatalf("unexpected balance: %+v", second)
	}
	for i, tx := range st.Transactions {
		if tx.SortOrder != i {
			t.Fatalf("sortOrder must be monotonic, got %d at %d", tx.SortOrder, i)
		}
		if tx.Confidence != 0.85 {
			t.Fatalf("expected confidence 0.85, got %v", tx.Confidence)
		}
	}
}

func TestSortOrderRunsAcrossTables(t *testing.T) {
	doc := sampleDocument()
	doc.Pages = append(doc.Pages, domain.ParsedPage{
		PageNumber: 2,
		Tables: []domain.Table{
			{
				{"Date", "Description", "Amount"},
				{"01/25/2024", "Refund", "50.00"},
			},
		},
	})
	doc.PageCount = 2

	st := NewTemplateExtractor().Extract(doc, &domain.Template{BankName: "CHASE"})
	if len(st.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(st.Transactions))
	}
	if st.Transactions[2].SortOrder != 2 {
		t.Fatalf("sortOrder must continue across tables, got %d", st.Transactions[2].SortOrder)
	}
}

func TestResolveColumnsIgnoresUnsetTemplateMapping(t *testing.T) {
	// A zero-value mapping (everything 0) must not pin all fields to column 0.
	header := []string{"date", "description", "amount", "balance"}
	cols := resolveColumns(header, &domain.Template{})
	if cols.description != 1 || cols.amount != 2 || cols.balance != 3 {
		t.Fatalf("expected auto-detected columns, got %+v", cols)
	}
}

func TestResolveColumnsUsesTemplateMappingWhenItFits(t *testing.T) {
	header := []string{"balance", "date", "detail", "amount"}
	tpl := &domain.Template{ColumnMapping: domain.ColumnMapping{Date: 1, Description: 2, Amount: 3, Balance: 0}}
	cols := resolveColumns(header, tpl)
	if cols.date != 1 || cols.description != 2 || cols.amount != 3 || cols.balance != 0 {
		t.Fatalf("expected template mapping, got %+v", cols)
	}
}

func TestResolveAmountPrefersSeparateColumns(t *testing.T) {
	cols := resolvedColumns{date: 0, description: 1, credit: intPtr(2), debit: intPtr(3), balance: 4}

	amount, txType := resolveAmount([]string{"01/05/2024", "Deposit", "250.00", "", "1,250.00"}, cols, "")
	if amount == nil || *amount != 250 || txType != domain.TransactionCredit {
		t.Fatalf("expected credit 250, got %v %v", amount, txType)
	}

	amount, txType = resolveAmount([]string{"01/06/2024", "ATM", "", "40.00", "1,210.00"}, cols, "")
	if amount == nil || *amount != -40 || txType != domain.TransactionDebit {
		t.Fatalf("expected debit -40, got %v %v", amount, txType)
	}
}

func TestParseSignedAmountVariants(t *testing.T) {
	cases := []struct {
		raw       string
		indicator domain.DebitIndicator
		want      float64
		wantType  domain.TransactionType
	}{
		{"1,234.56", "", 1234.56, domain.TransactionCredit},
		{"-45.00", "", -45, domain.TransactionDebit},
		{"(45.00)", domain.DebitIndicatorParentheses, -45, domain.TransactionDebit},
		{"$99.10", "", 99.10, domain.TransactionCredit},
		{"45.00-", domain.DebitIndicatorMinus, -45, domain.TransactionDebit},
	}
	for _, tc := range cases {
		got, gotType := parseSignedAmount(tc.raw, tc.indicator)
		if got == nil || *got != tc.want || gotType != tc.wantType {
			t.Fatalf("%q: expected (%v, %v), got (%v, %v)", tc.raw, tc.want, tc.wantType, got, gotType)
		}
	}

	if got, gotType := parseSignedAmount("pending", ""); got != nil || gotType != "" {
		t.Fatalf("unparseable amount must yield nil, got %v %v", got, gotType)
	}
}

func TestTableWithoutTransactionHeaderIsSkipped(t *testing.T) {
	doc := sampleDocument()
	doc.Pages[0].Tables = []domain.Table{
		{
			{"Branch", "Phone"},
			{"Downtown", "555-0100"},
		},
	}

	st := NewTemplateExtractor().Extract(doc, &domain.Template{BankName: "CHASE"})
	if len(st.Transactions) != 0 {
		t.Fatalf("expected no transactions from a non-transaction table, got %d", len(st.Transactions))
	}
}
