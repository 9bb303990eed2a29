package finaid

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus tracks a financial aid application through review.
type ApplicationStatus string

const (
	// StatusCreated marks a freshly submitted application.
	StatusCreated ApplicationStatus = "created"
	// StatusPendingDocs means the learner still has to send income documents.
	StatusPendingDocs ApplicationStatus = "pending-docs"
	// StatusDocsSent means documents were mailed and await review.
	StatusDocsSent ApplicationStatus = "docs-sent"
	// StatusPendingManualApproval means staff review is in progress.
	StatusPendingManualApproval ApplicationStatus = "pending-manual-approval"
	// StatusApproved marks a staff-approved application.
	StatusApproved ApplicationStatus = "approved"
	// StatusAutoApproved marks an application approved without review.
	StatusAutoApproved ApplicationStatus = "auto-approved"
	// StatusSkipped means the learner declined to apply and pays full price.
	StatusSkipped ApplicationStatus = "skipped"
	// StatusReset means staff reset the application for resubmission.
	StatusReset ApplicationStatus = "reset"
)

var pendingStatuses = map[ApplicationStatus]bool{
	StatusCreated:               true,
	StatusPendingDocs:           true,
	StatusDocsSent:              true,
	StatusPendingManualApproval: true,
}

// State is a learner's financial aid standing within one program.
type State struct {
	ProgramID         int64             `json:"program_id"`
	HasUserApplied    bool              `json:"has_user_applied"`
	ApplicationStatus ApplicationStatus `json:"application_status,omitempty"`
	MinPossibleCost   decimal.Decimal   `json:"min_possible_cost"`
	MaxPossibleCost   decimal.Decimal   `json:"max_possible_cost"`
	DateDocumentsSent *time.Time        `json:"date_documents_sent,omitempty"`
}

// Pending reports whether the application is still moving through review.
// While pending, the learner sees a price-calculation prompt instead of a
// payment prompt.
func (s State) Pending() bool {
	return s.HasUserApplied && pendingStatuses[s.ApplicationStatus]
}
