package domain

import (
	"strings"
	"time"
)

// DebitIndicator describes how a bank marks debits in its amount column.
type DebitIndicator string

const (
	DebitIndicatorMinus          DebitIndicator = "minus"
	DebitIndicatorParentheses    DebitIndicator = "parentheses"
	DebitIndicatorSeparateColumn DebitIndicator = "separate_column"
)

// TemplatePatterns is a learned set of regex patterns for one bank layout.
// All fields are optional; a missing or malformed pattern falls back to the
// built-in defaults during extraction.
type TemplatePatterns struct {
	BankName         string         `json:"bankName,omitempty"`
	AccountNumber    string         `json:"accountNumber,omitempty"`
	AccountHolder    string         `json:"accountHolder,omitempty"`
	StatementPeriod  string         `json:"statementPeriod,omitempty"`
	TransactionTable string         `json:"transactionTable,omitempty"`
	HeaderRow        string         `json:"headerRow,omitempty"`
	DateFormat       string         `json:"dateFormat,omitempty"`
	AmountFormat     string         `json:"amountFormat,omitempty"`
	DebitIndicator   DebitIndicator `json:"debitIndicator,omitempty"`
	PageNumber       string         `json:"pageNumber,omitempty"`
	TotalPages       string         `json:"totalPages,omitempty"`
}

// ColumnMapping assigns table column indices to semantic fields. Credit and
// Debit are set only for layouts with separate credit/debit columns.
type ColumnMapping struct {
	Date        int  `json:"date"`
	Description int  `json:"description"`
	Amount      int  `json:"amount"`
	Balance     int  `json:"balance"`
	Credit      *int `json:"credit,omitempty"`
	Debit       *int `json:"debit,omitempty"`
}

// Template is a persisted, bank-specific extraction recipe. Only structural
// data lives here: regex patterns and column indices, never statement content.
type Template struct {
	ID            string           `json:"id"`
	BankName      string           `json:"bankName"`
	AccountType   string           `json:"accountType,omitempty"`
	Patterns      TemplatePatterns `json:"patterns"`
	ColumnMapping ColumnMapping    `json:"columnMapping"`
	TimesUsed     int              `json:"timesUsed"`
	SuccessRate   float64          `json:"successRate"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NormalizeBankName produces the canonical lookup key for a bank name.
func NormalizeBankName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
