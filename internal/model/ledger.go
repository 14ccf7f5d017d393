package model

import "time"

type ResourceType string

const (
	ResourceCredit     ResourceType = "CREDIT"
	ResourceScreenTime ResourceType = "SCREEN_TIME"
)

func (r ResourceType) Valid() bool {
	return r == ResourceCredit || r == ResourceScreenTime
}

type TransactionType string

const (
	TxChoreReward   TransactionType = "CHORE_REWARD"
	TxDeduction     TransactionType = "DEDUCTION"
	TxRedemption    TransactionType = "REDEMPTION"
	TxRefund        TransactionType = "REFUND"
	TxBonus         TransactionType = "BONUS"
	TxAdjustment    TransactionType = "ADJUSTMENT"
	TxGraceBorrowed TransactionType = "GRACE_BORROWED"
	TxAllowance     TransactionType = "ALLOWANCE"
)

// Balance is the per-(member, resource) running total. It is created lazily on
// the first mutation and only ever written through the ledger inside an atomic
// unit. Lifetime counters are tracked for CREDIT only.
type Balance struct {
	MemberID       string       `json:"member_id"`
	ResourceType   ResourceType `json:"resource_type"`
	CurrentAmount  int64        `json:"current_amount"`
	LifetimeEarned int64        `json:"lifetime_earned"`
	LifetimeSpent  int64        `json:"lifetime_spent"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Transaction is one immutable ledger entry. BalanceAfter always equals the
// balance before the entry plus Amount.
type Transaction struct {
	ID           string          `json:"id"`
	MemberID     string          `json:"member_id"`
	ResourceType ResourceType    `json:"resource_type"`
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	Reason       string          `json:"reason"`
	RelatedType  string          `json:"related_type,omitempty"`
	RelatedID    string          `json:"related_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Role string

const (
	RoleParent Role = "PARENT"
	RoleChild  Role = "CHILD"
)

// Actor is the caller identity supplied by the upstream auth collaborator.
// The core trusts it; it does not authenticate.
type Actor struct {
	ID       string `json:"actor_id"`
	Role     Role   `json:"role"`
	FamilyID string `json:"family_id"`
}

func (a Actor) IsParent() bool { return a.Role == RoleParent }
