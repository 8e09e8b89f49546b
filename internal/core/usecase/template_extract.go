package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

// Built-in fallback patterns tuned for common statement phrasing. A template
// pattern, when present and well-formed, always wins over these.
var (
	defaultAccountNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Account\s+Number\s*:?\s*([*Xx\d][-*Xx\d\s]*\d)`),
		regexp.MustCompile(`(?i)Account\s+No\.?\s*:?\s*([*Xx\d][-*Xx\d\s]*\d)`),
		regexp.MustCompile(`(?i)Acct\s*#\s*:?\s*([*Xx\d][-*Xx\d\s]*\d)`),
	}
	defaultAccountHolderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Account\s+Holder\s*:\s*([A-Za-z][A-Za-z .'-]+)`),
		regexp.MustCompile(`(?i)Customer\s*:\s*([A-Za-z][A-Za-z .'-]+)`),
		regexp.MustCompile(`(?i)Name\s*:\s*([A-Za-z][A-Za-z .'-]+)`),
	}
	// Ordered generic date-range shapes; the first matching pattern wins and
	// no further patterns are tried.
	defaultPeriodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Za-z]+\s+\d{1,2},?\s+\d{4})\s*(?:[-\x{2013}]|to)\s*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})\s*(?:[-\x{2013}]|to)\s*(\d{1,2}/\d{1,2}/\d{4})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*(?:[-\x{2013}]|to)\s*(\d{4}-\d{2}-\d{2})`),
	}
	summaryPatterns = map[string]*regexp.Regexp{
		"opening": regexp.MustCompile(`(?i)Opening\s+Balance[^\d$\x{20ac}\x{a3}-]*[$\x{20ac}\x{a3}]?\s*(-?[\d,]+\.?\d*)`),
		"closing": regexp.MustCompile(`(?i)Closing\s+Balance[^\d$\x{20ac}\x{a3}-]*[$\x{20ac}\x{a3}]?\s*(-?[\d,]+\.?\d*)`),
		"credits": regexp.MustCompile(`(?i)Total\s+Credits[^\d$\x{20ac}\x{a3}]*[$\x{20ac}\x{a3}]?\s*([\d,]+\.?\d*)`),
		"debits":  regexp.MustCompile(`(?i)Total\s+Debits[^\d$\x{20ac}\x{a3}]*[$\x{20ac}\x{a3}]?\s*([\d,]+\.?\d*)`),
	}
	numericToken = regexp.MustCompile(`[\d,]+\.?\d*`)
)

const templateConfidence = 0.85

// TemplateExtractor parses statement fields and transaction rows out of
// provider output using a learned template, without any AI call.
type TemplateExtractor struct{}

func NewTemplateExtractor() *TemplateExtractor {
	return &TemplateExtractor{}
}

// Extract never fails hard: malformed template patterns fall back to the
// built-in defaults per field, and an unusable table is simply skipped. A
// zero-transaction result is the caller's signal to escalate.
func (e *TemplateExtractor) Extract(doc *domain.ParsedDocument, tpl *domain.Template) *domain.ExtractedStatement {
	st := &domain.ExtractedStatement{
		RawText:      doc.FullText,
		Transactions: []domain.ExtractedTransaction{},
	}

	st.BankName = IdentifyBank(doc.FullText, &tpl.Patterns)
	st.AccountNumber = extractField(doc.FullText, tpl.Patterns.AccountNumber, defaultAccountNumberPatterns)
	st.AccountHolder = extractField(doc.FullText, tpl.Patterns.AccountHolder, defaultAccountHolderPatterns)
	if tpl.AccountType != "" {
		at := tpl.AccountType
		st.AccountType = &at
	}
	st.StatementPeriod = extractPeriod(doc.FullText, tpl.Patterns.StatementPeriod)

	st.OpeningBalance = extractSummaryValue(doc.FullText, summaryPatterns["opening"])
	st.ClosingBalance = extractSummaryValue(doc.FullText, summaryPatterns["closing"])
	st.TotalCredits = extractSummaryValue(doc.FullText, summaryPatterns["credits"])
	st.TotalDebits = extractSummaryValue(doc.FullText, summaryPatterns["debits"])

	// sortOrder runs across the whole document scan, not per table.
	sortOrder := 0
	for _, page := range doc.Pages {
		for _, table := range page.Tables {
			st.Transactions = append(st.Transactions, parseTransactionTable(table, tpl, &sortOrder)...)
		}
	}
	return st
}

func extractField(text, templatePattern string, fallbacks []*regexp.Regexp) *string {
	if templatePattern != "" {
		if re, err := regexp.Compile("(?i)" + templatePattern); err == nil {
			if v := firstGroupOrWhole(re, text); v != nil {
				return v
			}
		}
	}
	for _, re := range fallbacks {
		if v := firstGroupOrWhole(re, text); v != nil {
			return v
		}
	}
	return nil
}

func firstGroupOrWhole(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := m[0]
	if len(m) > 1 && m[1] != "" {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func extractPeriod(text, templatePattern string) domain.StatementPeriod {
	if templatePattern != "" {
		if re, err := regexp.Compile("(?i)" + templatePattern); err == nil {
			if m := re.FindStringSubmatch(text); len(m) >= 3 {
				return domain.StatementPeriod{
					From: parseFlexibleDate(m[1]),
					To:   parseFlexibleDate(m[2]),
				}
			}
		}
	}
	for _, re := range defaultPeriodPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return domain.StatementPeriod{
				From: parseFlexibleDate(m[1]),
				To:   parseFlexibleDate(m[2]),
			}
		}
	}
	return domain.StatementPeriod{}
}

func extractSummaryValue(text string, re *regexp.Regexp) float64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// resolvedColumns holds table column indices after template/auto resolution.
type resolvedColumns struct {
	date        int
	description int
	amount      int
	balance     int
	credit      *int
	debit       *int
}

func parseTransactionTable(table domain.Table, tpl *domain.Template, sortOrder *int) []domain.ExtractedTransaction {
	if len(table) < 2 {
		return nil
	}
	header := lowerCells(table[0])
	if !looksLikeTransactionHeader(header) {
		return nil
	}
	cols := resolveColumns(header, tpl)

	var out []domain.ExtractedTransaction
	for _, row := range table[1:] {
		if isBlankRow(row) {
			continue
		}
		tx := parseTransactionRow(row, cols, tpl)
		if tx == nil {
			continue
		}
		tx.SortOrder = *sortOrder
		*sortOrder++
		out = append(out, *tx)
	}
	return out
}

func looksLikeTransactionHeader(header []string) bool {
	hasDate := false
	hasAmount := false
	for _, h := range header {
		if strings.Contains(h, "date") {
			hasDate = true
		}
		if strings.Contains(h, "amount") || strings.Contains(h, "debit") || strings.Contains(h, "credit") {
			hasAmount = true
		}
	}
	return hasDate || hasAmount
}

// resolveColumns prefers the template's stored mapping when its date and
// amount indices fit the header width; otherwise it auto-detects by header
// keywords, defaulting to positions 0-3.
func resolveColumns(header []string, tpl *domain.Template) resolvedColumns {
	m := tpl.ColumnMapping
	if m.Date >= 0 && m.Date < len(header) && m.Amount >= 0 && m.Amount < len(header) && (m.Date != 0 || m.Amount != 0) {
		return resolvedColumns{
			date:        m.Date,
			description: m.Description,
			amount:      m.Amount,
			balance:     m.Balance,
			credit:      m.Credit,
			debit:       m.Debit,
		}
	}
	return autoDetectColumns(header)
}

func autoDetectColumns(header []string) resolvedColumns {
	cols := resolvedColumns{date: 0, description: 1, amount: 2, balance: 3}
	matched := false
	for i, h := range header {
		switch {
		case strings.Contains(h, "date"):
			cols.date = i
			matched = true
		case strings.Contains(h, "description") || strings.Contains(h, "particular") || strings.Contains(h, "narration"):
			cols.description = i
			matched = true
		case strings.Contains(h, "credit") || strings.Contains(h, "deposit"):
			idx := i
			cols.credit = &idx
			matched = true
		case strings.Contains(h, "debit") || strings.Contains(h, "withdrawal"):
			idx := i
			cols.debit = &idx
			matched = true
		case strings.Contains(h, "amount"):
			cols.amount = i
			matched = true
		case strings.Contains(h, "balance"):
			cols.balance = i
			matched = true
		}
	}
	if !matched {
		return resolvedColumns{date: 0, description: 1, amount: 2, balance: 3}
	}
	return cols
}

func parseTransactionRow(row []string, cols resolvedColumns, tpl *domain.Template) *domain.ExtractedTransaction {
	tx := &domain.ExtractedTransaction{Confidence: templateConfidence}

	tx.Date = parseFlexibleDate(cellAt(row, cols.date))
	if desc := strings.TrimSpace(cellAt(row, cols.description)); desc != "" {
		tx.Description = &desc
	}

	amount, txType := resolveAmount(row, cols, tpl.Patterns.DebitIndicator)
	tx.Amount = amount
	tx.Type = txType

	if bal := parsePlainNumber(cellAt(row, cols.balance)); bal != nil {
		tx.Balance = bal
	}

	if tx.Date == nil && tx.Description == nil {
		return nil
	}
	return tx
}

// resolveAmount prefers distinct credit/debit columns when mapped, then falls
// through to single-amount parsing with the template's debit indicator.
func resolveAmount(row []string, cols resolvedColumns, indicator domain.DebitIndicator) (*float64, domain.TransactionType) {
	if cols.credit != nil {
		if v := parsePlainNumber(cellAt(row, *cols.credit)); v != nil && *v > 0 {
			return v, domain.TransactionCredit
		}
	}
	if cols.debit != nil {
		if v := parsePlainNumber(cellAt(row, *cols.debit)); v != nil && *v > 0 {
			neg := -*v
			return &neg, domain.TransactionDebit
		}
	}
	return parseSignedAmount(cellAt(row, cols.amount), indicator)
}

// parseSignedAmount parses a single amount cell. Sign is debit when the raw
// string starts with '-' or '(', or when the template declares a minus debit
// indicator and the string contains '-'. Returns (nil, "") for unparseable text.
func parseSignedAmount(raw string, indicator domain.DebitIndicator) (*float64, domain.TransactionType) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	isDebit := strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "(")
	if !isDebit && indicator == domain.DebitIndicatorMinus && strings.Contains(raw, "-") {
		isDebit = true
	}

	m := numericToken.FindString(raw)
	if m == "" {
		return nil, ""
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil, ""
	}
	if isDebit {
		v = -v
		return &v, domain.TransactionDebit
	}
	return &v, domain.TransactionCredit
}

func parsePlainNumber(raw string) *float64 {
	m := numericToken.FindString(raw)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "-") {
		v = -v
	}
	return &v
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func lowerCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
