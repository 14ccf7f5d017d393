package model

import "time"

type GraceStatus string

const (
	GracePendingApproval GraceStatus = "PENDING_APPROVAL"
	GraceGranted         GraceStatus = "GRANTED"
	GraceDenied          GraceStatus = "DENIED"
)

type RepaymentStatus string

const (
	RepaymentPending  RepaymentStatus = "PENDING"
	RepaymentRepaid   RepaymentStatus = "REPAID"
	RepaymentForgiven RepaymentStatus = "FORGIVEN"
)

// GracePeriodLog records one screen-time advance. TransactionID links the
// granting ledger entry once minutes were actually granted; a log awaiting
// parent approval has no transaction yet. Repayment reconciliation is done by
// the external weekly reset, outside the ledger core.
type GracePeriodLog struct {
	ID              string          `json:"id"`
	MemberID        string          `json:"member_id"`
	MinutesGranted  int64           `json:"minutes_granted"`
	Status          GraceStatus     `json:"status"`
	RepaymentStatus RepaymentStatus `json:"repayment_status"`
	RequestedAt     time.Time       `json:"requested_at"`
	ApprovedByID    *string         `json:"approved_by_id,omitempty"` // nil = auto-granted
	TransactionID   *string         `json:"transaction_id,omitempty"`
}

// GraceSettings is per-member grace configuration, default-created on the
// first grace request.
type GraceSettings struct {
	MemberID                 string `json:"member_id"`
	GracePeriodMinutes       int64  `json:"grace_period_minutes"`
	MaxGracePerDay           int    `json:"max_grace_per_day"`
	MaxGracePerWeek          int    `json:"max_grace_per_week"`
	RepaymentMode            string `json:"repayment_mode"`
	LowBalanceWarningMinutes int64  `json:"low_balance_warning_minutes"`
	RequiresApproval         bool   `json:"requires_approval"`
}

func DefaultGraceSettings(memberID string) *GraceSettings {
	return &GraceSettings{
		MemberID:                 memberID,
		GracePeriodMinutes:       15,
		MaxGracePerDay:           1,
		MaxGracePerWeek:          3,
		RepaymentMode:            "DEDUCT_NEXT_WEEK",
		LowBalanceWarningMinutes: 10,
		RequiresApproval:         false,
	}
}

// GraceResult is returned by a grace request. PendingApproval means the log
// was created but no minutes move until a parent approves.
type GraceResult struct {
	Log             *GracePeriodLog `json:"log"`
	PendingApproval bool            `json:"pending_approval"`
	NewBalance      int64           `json:"new_balance"`
}
