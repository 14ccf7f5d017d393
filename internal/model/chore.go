package model

import "time"

type ChoreStatus string

const (
	ChorePending   ChoreStatus = "PENDING"
	ChoreCompleted ChoreStatus = "COMPLETED"
	ChoreApproved  ChoreStatus = "APPROVED"
	ChoreRejected  ChoreStatus = "REJECTED"
)

// ChoreInstance is one assignment of a chore to a member.
//
// PENDING → COMPLETED → {APPROVED, REJECTED}, or PENDING → APPROVED directly
// when RequiresApproval is false. APPROVED and REJECTED are terminal. Credits
// are issued exactly once, at whichever transition first reaches APPROVED.
// DecidedAt/DecidedByID record whichever parent decision closed the chore,
// approval or rejection.
type ChoreInstance struct {
	ID               string      `json:"id"`
	FamilyID         string      `json:"family_id"`
	Title            string      `json:"title"`
	AssignedToID     string      `json:"assigned_to_id"`
	CreditValue      int64       `json:"credit_value"`
	RequiresApproval bool        `json:"requires_approval"`
	Status           ChoreStatus `json:"status"`
	CreditsAwarded   int64       `json:"credits_awarded"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	CompletedByID    *string     `json:"completed_by_id,omitempty"`
	DecidedAt        *time.Time  `json:"decided_at,omitempty"`
	DecidedByID      *string     `json:"decided_by_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}
