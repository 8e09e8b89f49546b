package domain

import "time"

// GapSeverity classifies a date gap by its day count.
type GapSeverity string

const (
	GapLow    GapSeverity = "low"
	GapMedium GapSeverity = "medium"
	GapHigh   GapSeverity = "high"
)

// BalanceCheck reports whether opening + credits - debits matches closing
// within one cent.
type BalanceCheck struct {
	Passed     bool    `json:"passed"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
}

// DateGap is one suspicious interval between consecutive transaction dates,
// or between the statement period boundary and the first/last transaction.
type DateGap struct {
	From     time.Time   `json:"from"`
	To       time.Time   `json:"to"`
	Days     int         `json:"days"`
	Severity GapSeverity `json:"severity"`
}

// DateGapCheck passes when no gap reaches high severity.
type DateGapCheck struct {
	Passed bool      `json:"passed"`
	Gaps   []DateGap `json:"gaps"`
}

// PageContinuityCheck reports page numbers detected in the raw text and any
// page missing from the detected sequence. Passes vacuously when the text
// carries no page markers at all.
type PageContinuityCheck struct {
	Passed        bool  `json:"passed"`
	DetectedPages []int `json:"detectedPageNumbers"`
	MissingPages  []int `json:"missingPages"`
}

// ValidationNotes bundles the three independent statement checks. Overall
// validity is gated by the balance check and the absence of high-severity
// gaps; page continuity is informational.
type ValidationNotes struct {
	Balance        BalanceCheck        `json:"balance"`
	DateContinuity DateGapCheck        `json:"dateContinuity"`
	PageContinuity PageContinuityCheck `json:"pageContinuity"`
	Valid          bool                `json:"valid"`
}

// ContinuityIssue flags a mismatch between adjacent statements of one account.
type ContinuityIssue struct {
	PreviousClosing float64 `json:"previousClosing"`
	Current         float64 `json:"current"`
	GapDays         int     `json:"gapDays,omitempty"`
	Message         string  `json:"message"`
}
