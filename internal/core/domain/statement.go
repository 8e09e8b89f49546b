package domain

import "time"

// TransactionType marks a transaction as money in or money out.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// ExtractedTransaction is one statement line. Amount is signed: credits
// positive, debits negative. SortOrder reflects original document order and
// is monotonically increasing across the whole document scan.
type ExtractedTransaction struct {
	Date        *time.Time      `json:"date"`
	Description *string         `json:"description"`
	Amount      *float64        `json:"amount"`
	Balance     *float64        `json:"balance"`
	Type        TransactionType `json:"type,omitempty"`
	Confidence  float64         `json:"confidence"`
	SortOrder   int             `json:"sortOrder"`
}

// StatementPeriod is the declared from/to range of a statement.
type StatementPeriod struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// ExtractedStatement is the per-request extraction result. RawText is kept
// only while the pipeline runs and is stripped before any response leaves the
// service; it is never persisted.
type ExtractedStatement struct {
	BankName        *string                `json:"bankName"`
	AccountNumber   *string                `json:"accountNumber"`
	AccountHolder   *string                `json:"accountHolder"`
	AccountType     *string                `json:"accountType"`
	StatementPeriod StatementPeriod        `json:"statementPeriod"`
	OpeningBalance  float64                `json:"openingBalance"`
	ClosingBalance  float64                `json:"closingBalance"`
	TotalCredits    float64                `json:"totalCredits"`
	TotalDebits     float64                `json:"totalDebits"`
	Transactions    []ExtractedTransaction `json:"transactions"`
	RawText         string                 `json:"-"`
}

// ExtractionMethod names which extraction path produced a statement.
type ExtractionMethod string

const (
	MethodTemplate ExtractionMethod = "template"
	MethodVLM      ExtractionMethod = "vlm"
)

// ExtractionResult is the response for one file.
type ExtractionResult struct {
	Success          bool                `json:"success"`
	FileName         string              `json:"fileName,omitempty"`
	Statement        *ExtractedStatement `json:"statement,omitempty"`
	Validation       *ValidationNotes    `json:"validation,omitempty"`
	ExtractionMethod ExtractionMethod    `json:"extractionMethod,omitempty"`
	TemplateID       string              `json:"templateId,omitempty"`
	ElapsedMS        int64               `json:"elapsedMs"`
	Errors           []string            `json:"errors"`
}

// AccountGroup keys statements that belong to the same account.
type AccountGroup struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	Count         int    `json:"count"`
}

// BatchResult aggregates per-file results of a bulk extraction.
type BatchResult struct {
	Results   []ExtractionResult `json:"results"`
	Groups    []AccountGroup     `json:"groups"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}
