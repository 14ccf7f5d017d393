package model

import "time"

type RewardStatus string

const (
	RewardActive     RewardStatus = "ACTIVE"
	RewardInactive   RewardStatus = "INACTIVE"
	RewardOutOfStock RewardStatus = "OUT_OF_STOCK"
)

// Reward is a redeemable item. Quantity nil means unlimited stock; a finite
// quantity is decremented in the same atomic unit that creates the redemption.
type Reward struct {
	ID          string       `json:"id"`
	FamilyID    string       `json:"family_id"`
	Name        string       `json:"name"`
	CostCredits int64        `json:"cost_credits"`
	Quantity    *int64       `json:"quantity,omitempty"`
	Status      RewardStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "PENDING"
	RedemptionApproved RedemptionStatus = "APPROVED"
	RedemptionRejected RedemptionStatus = "REJECTED"
)

// RewardRedemption records a member spending credits on a reward. CostSnapshot
// and TransactionID allow an exact reversal if a parent rejects it later.
type RewardRedemption struct {
	ID            string           `json:"id"`
	MemberID      string           `json:"member_id"`
	RewardID      string           `json:"reward_id"`
	Status        RedemptionStatus `json:"status"`
	CostSnapshot  int64            `json:"cost_snapshot"`
	TransactionID *string          `json:"transaction_id,omitempty"`
	RejectReason  string           `json:"reject_reason,omitempty"`
	DecidedAt     *time.Time       `json:"decided_at,omitempty"`
	DecidedByID   *string          `json:"decided_by_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
