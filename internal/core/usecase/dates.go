package usecase

import (
	"strings"
	"time"
)

// Layouts tried in order. Numeric slash dates are always read as MM/DD/YYYY,
// never DD/MM/YYYY; non-US statements with day > 12 will misparse. Known
// limitation, kept deliberately.
var flexibleDateLayouts = []string{
	"January 2 2006",
	"Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
}

// parseFlexibleDate parses the date shapes seen on bank statements, trying a
// textual month first, then MM/DD/YYYY, then ISO. Returns nil when nothing
// parses as a valid calendar date.
func parseFlexibleDate(s string) *time.Time {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ","))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2 January 2006", s); err == nil {
		return &t
	}
	return nil
}
