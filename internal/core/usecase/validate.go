package usecase

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

// One-cent tolerance absorbs float rounding in currency arithmetic.
const balanceTolerance = 0.01

// Inclusive day-count thresholds; the highest matching band wins.
const (
	gapLowDays    = 7
	gapMediumDays = 14
	gapHighDays   = 30
)

// Ordered page-marker shapes: "Page X of Y", "Page X", "X / Y", "- X -",
// and a bare number alone on a line.
var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Page\s+(\d+)\s+of\s+\d+`),
	regexp.MustCompile(`(?i)Page\s+(\d+)`),
	regexp.MustCompile(`(?m)^\s*(\d+)\s*/\s*\d+\s*$`),
	regexp.MustCompile(`(?m)^\s*-\s*(\d+)\s*-\s*$`),
	regexp.MustCompile(`(?m)^\s*(\d+)\s*$`),
}

// Validator computes independent, composable checks over a completed
// statement. Check failures are data, never errors.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all three checks. Overall validity requires the balance
// equation to hold and no high-severity date gap; page continuity is
// informational only.
func (v *Validator) Validate(st *domain.ExtractedStatement, pageCount int) *domain.ValidationNotes {
	notes := &domain.ValidationNotes{
		Balance:        v.VerifyBalance(st),
		DateContinuity: v.CheckDateGaps(st),
		PageContinuity: v.CheckPageContinuity(st.RawText, pageCount),
	}
	notes.Valid = notes.Balance.Passed && notes.DateContinuity.Passed
	return notes
}

// VerifyBalance checks opening + credits - debits against closing.
func (v *Validator) VerifyBalance(st *domain.ExtractedStatement) domain.BalanceCheck {
	expected := st.OpeningBalance + st.TotalCredits - st.TotalDebits
	diff := expected - st.ClosingBalance
	return domain.BalanceCheck{
		Passed:     math.Abs(diff) <= balanceTolerance,
		Expected:   roundCents(expected),
		Actual:     roundCents(st.ClosingBalance),
		Difference: roundCents(diff),
	}
}

// CheckDateGaps sorts dated transactions ascending and classifies the gap of
// each consecutive pair. A declared statement period also yields a
// medium-severity boundary gap when the first transaction starts more than 7
// days after period start or the last ends more than 7 days before period end.
func (v *Validator) CheckDateGaps(st *domain.ExtractedStatement) domain.DateGapCheck {
	var dates []time.Time
	for _, tx := range st.Transactions {
		if tx.Date != nil {
			dates = append(dates, *tx.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	check := domain.DateGapCheck{Passed: true, Gaps: []domain.DateGap{}}
	for i := 1; i < len(dates); i++ {
		days := daysBetween(dates[i-1], dates[i])
		if sev, ok := classifyGap(days); ok {
			check.Gaps = append(check.Gaps, domain.DateGap{
				From:     dates[i-1],
				To:       dates[i],
				Days:     days,
				Severity: sev,
			})
		}
	}

	if len(dates) > 0 {
		if from := st.StatementPeriod.From; from != nil {
			if days := daysBetween(*from, dates[0]); days > gapLowDays {
				check.Gaps = append(check.Gaps, domain.DateGap{
					From: *from, To: dates[0], Days: days, Severity: domain.GapMedium,
				})
			}
		}
		if to := st.StatementPeriod.To; to != nil {
			if days := daysBetween(dates[len(dates)-1], *to); days > gapLowDays {
				check.Gaps = append(check.Gaps, domain.DateGap{
					From: dates[len(dates)-1], To: *to, Days: days, Severity: domain.GapMedium,
				})
			}
		}
	}

	for _, g := range check.Gaps {
		if g.Severity == domain.GapHigh {
			check.Passed = false
			break
		}
	}
	return check
}

// CheckPageContinuity infers missing pages from page-number markers in raw
// text. With no markers found anywhere the check passes vacuously: absence of
// gaps cannot be proven.
func (v *Validator) CheckPageContinuity(rawText string, totalPages int) domain.PageContinuityCheck {
	detected := map[int]bool{}
	for _, re := range pageNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(rawText, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if n >= 1 && (totalPages <= 0 || n <= totalPages) {
				detected[n] = true
			}
		}
	}

	check := domain.PageContinuityCheck{Passed: true, DetectedPages: []int{}, MissingPages: []int{}}
	if len(detected) == 0 {
		return check
	}

	maxPage := 0
	for n := range detected {
		check.DetectedPages = append(check.DetectedPages, n)
		if n > maxPage {
			maxPage = n
		}
	}
	sort.Ints(check.DetectedPages)

	for n := 1; n <= maxPage; n++ {
		if !detected[n] {
			check.MissingPages = append(check.MissingPages, n)
		}
	}
	check.Passed = len(check.MissingPages) == 0
	return check
}

// CheckGroupContinuity flags discontinuities across statements of one
// account, sorted by period start. It compares previous closing balance to
// the CURRENT CLOSING balance, mirroring the behavior this service replaces;
// see DESIGN.md for why that comparison is kept as-is. It also flags
// inter-statement gaps of more than one day.
func (v *Validator) CheckGroupContinuity(group []*domain.ExtractedStatement) []domain.ContinuityIssue {
	sorted := sortByPeriodStart(group)

	var issues []domain.ContinuityIssue
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if math.Abs(prev.ClosingBalance-cur.ClosingBalance) > balanceTolerance {
			issues = append(issues, domain.ContinuityIssue{
				PreviousClosing: prev.ClosingBalance,
				Current:         cur.ClosingBalance,
				Message: fmt.Sprintf("closing balance %.2f does not carry over (previous closing %.2f)",
					cur.ClosingBalance, prev.ClosingBalance),
			})
		}
		if prev.StatementPeriod.To != nil && cur.StatementPeriod.From != nil {
			if days := daysBetween(*prev.StatementPeriod.To, *cur.StatementPeriod.From); days > 1 {
				issues = append(issues, domain.ContinuityIssue{
					PreviousClosing: prev.ClosingBalance,
					Current:         cur.ClosingBalance,
					GapDays:         days,
					Message:         fmt.Sprintf("%d day gap between statements", days),
				})
			}
		}
	}
	return issues
}

func sortByPeriodStart(group []*domain.ExtractedStatement) []*domain.ExtractedStatement {
	sorted := make([]*domain.ExtractedStatement, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].StatementPeriod.From, sorted[j].StatementPeriod.From
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return sorted
}

// daysBetween is the ceiling of the elapsed time between two dates in days.
func daysBetween(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}

func classifyGap(days int) (domain.GapSeverity, bool) {
	switch {
	case days >= gapHighDays:
		return domain.GapHigh, true
	case days >= gapMediumDays:
		return domain.GapMedium, true
	case days >= gapLowDays:
		return domain.GapLow, true
	default:
		return "", false
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
