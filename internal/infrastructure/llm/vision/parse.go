package vision

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

const visionConfidence = 0.9

type visionPayload struct {
	BankName        *string `json:"bankName"`
	AccountNumber   *string `json:"accountNumber"`
	AccountHolder   *string `json:"accountHolder"`
	AccountType     *string `json:"accountType"`
	StatementPeriod struct {
		From *string `json:"from"`
		To   *string `json:"to"`
	} `json:"statementPeriod"`
	OpeningBalance float64 `json:"openingBalance"`
	ClosingBalance float64 `json:"closingBalance"`
	TotalCredits   float64 `json:"totalCredits"`
	TotalDebits    float64 `json:"totalDebits"`
	Transactions   []struct {
		Date        *string  `json:"date"`
		Description *string  `json:"description"`
		Amount      *float64 `json:"amount"`
		Balance     *float64 `json:"balance"`
		Type        string   `json:"type"`
	} `json:"transactions"`
	Template struct {
		Patterns      domain.TemplatePatterns `json:"patterns"`
		ColumnMapping domain.ColumnMapping    `json:"columnMapping"`
	} `json:"template"`
}

// parseVisionResponse tolerates a fenced code block around the JSON, or raw
// JSON embedded in surrounding prose. Anything else is an explicit failure.
func parseVisionResponse(raw string) (*ports.VisionResult, error) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("parse vision json: %w", err)
	}

	st := &domain.ExtractedStatement{
		BankName:       payload.BankName,
		AccountNumber:  payload.AccountNumber,
		AccountHolder:  payload.AccountHolder,
		AccountType:    payload.AccountType,
		OpeningBalance: payload.OpeningBalance,
		ClosingBalance: payload.ClosingBalance,
		TotalCredits:   payload.TotalCredits,
		TotalDebits:    payload.TotalDebits,
		StatementPeriod: domain.StatementPeriod{
			From: parseISODate(payload.StatementPeriod.From),
			To:   parseISODate(payload.StatementPeriod.To),
		},
		Transactions: make([]domain.ExtractedTransaction, 0, len(payload.Transactions)),
	}

	for i, tx := range payload.Transactions {
		st.Transactions = append(st.Transactions, domain.ExtractedTransaction{
			Date:        parseISODate(tx.Date),
			Description: tx.Description,
			Amount:      tx.Amount,
			Balance:     tx.Balance,
			Type:        normalizeTxType(tx.Type, tx.Amount),
			Confidence:  visionConfidence,
			SortOrder:   i,
		})
	}

	return &ports.VisionResult{
		Statement: st,
		Patterns:  payload.Template.Patterns,
		Mapping:   payload.Template.ColumnMapping,
	}, nil
}

// extractJSONObject strips one fenced block if present, then falls back to
// the first-to-last-brace substring.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			raw = rest[:end]
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func parseISODate(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}

func normalizeTxType(raw string, amount *float64) domain.TransactionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "credit":
		return domain.TransactionCredit
	case "debit":
		return domain.TransactionDebit
	}
	if amount != nil {
		if *amount < 0 {
			return domain.TransactionDebit
		}
		return domain.TransactionCredit
	}
	return ""
}
