package domain

import "time"

type FeedbackStatus string

const (
	FeedbackPending   FeedbackStatus = "PENDING"
	FeedbackResolved  FeedbackStatus = "RESOLVED"
	FeedbackDismissed FeedbackStatus = "DISMISSED"
)

// FeedbackReport is a user-submitted extraction issue. The original PDF is
// kept in transient storage (StorageKey) only until the report is resolved or
// dismissed. ProposedPatterns/ProposedMapping hold the AI-suggested template
// fix produced by the analysis worker; they carry structural data only.
type FeedbackReport struct {
	ID               string            `json:"id"`
	FileName         string            `json:"fileName"`
	Issue            string            `json:"issue"`
	StorageKey       string            `json:"-"`
	Status           FeedbackStatus    `json:"status"`
	BankName         string            `json:"bankName,omitempty"`
	AccountType      string            `json:"accountType,omitempty"`
	ProposedPatterns *TemplatePatterns `json:"proposedPatterns,omitempty"`
	ProposedMapping  *ColumnMapping    `json:"proposedMapping,omitempty"`
	AdminNotes       string            `json:"adminNotes,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
