package usecase

import (
	"regexp"
	"strings"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

var knownBankNames = []string{
	"CHASE",
	"WELLS FARGO",
	"BANK OF AMERICA",
	"CITIBANK",
	"CAPITAL ONE",
	"TD BANK",
	"PNC",
	"US BANK",
	"HSBC",
	"BARCLAYS",
	"SANTANDER",
	"FIFTH THIRD",
	"TRUIST",
	"ALLY BANK",
}

const bankIdentLines = 10

// IdentifyBank guesses the issuing bank from raw statement text. A learned
// template pattern takes precedence over the generic heuristics, so accuracy
// improves as templates accumulate.
func IdentifyBank(text string, patterns *domain.TemplatePatterns) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if patterns != nil && patterns.BankName != "" {
		if name := matchBankPattern(text, patterns.BankName); name != nil {
			return name
		}
	}

	lines := splitNonEmptyLines(text)
	limit := len(lines)
	if limit > bankIdentLines {
		limit = bankIdentLines
	}
	for _, line := range lines[:limit] {
		upper := strings.ToUpper(line)
		for _, bank := range knownBankNames {
			if strings.Contains(upper, bank) {
				name := bank
				return &name
			}
		}
	}

	// Best-effort: first line of plausible length.
	for _, line := range lines {
		if len(line) >= 3 && len(line) < 60 {
			name := line
			return &name
		}
	}
	return nil
}

func matchBankPattern(text, pattern string) *string {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		// Malformed learned pattern: ignore it and fall through to heuristics.
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	candidate := m[0]
	if len(m) > 1 && m[1] != "" {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil
	}
	return &candidate
}

func splitNonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
