package postgres

import (
	"context"

	"famledger/internal/model"
)

type choreRepo struct {
	q queryer
}

const choreColumns = `id, family_id, title, assigned_to_id, credit_value, requires_approval, status, credits_awarded, completed_at, completed_by_id, decided_at, decided_by_id, created_at`

func (r *choreRepo) get(ctx context.Context, id string, lock string) (*model.ChoreInstance, error) {
	query := `SELECT ` + choreColumns + ` FROM chore_instances WHERE id = $1` + lock

	var c model.ChoreInstance
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FamilyID, &c.Title, &c.AssignedToID, &c.CreditValue, &c.RequiresApproval,
		&c.Status, &c.CreditsAwarded, &c.CompletedAt, &c.CompletedByID, &c.DecidedAt, &c.DecidedByID, &c.CreatedAt,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &c, nil
}

func (r *choreRepo) Get(ctx context.Context, id string) (*model.ChoreInstance, error) {
	return r.get(ctx, id, "")
}

func (r *choreRepo) GetForUpdate(ctx context.Context, id string) (*model.ChoreInstance, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *choreRepo) Insert(ctx context.Context, c *model.ChoreInstance) error {
	query := `
		INSERT INTO chore_instances (` + choreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.q.Exec(ctx, query,
		c.ID, c.FamilyID, c.Title, c.AssignedToID, c.CreditValue, c.RequiresApproval,
		c.Status, c.CreditsAwarded, c.CompletedAt, c.CompletedByID, c.DecidedAt, c.DecidedByID, c.CreatedAt,
	)
	if err != nil {
		return transientErr("insert chore instance", err)
	}
	return nil
}

func (r *choreRepo) Update(ctx context.Context, c *model.ChoreInstance) error {
	query := `
		UPDATE chore_instances SET
			status = $2, credits_awarded = $3,
			completed_at = $4, completed_by_id = $5,
			decided_at = $6, decided_by_id = $7
		WHERE id = $1`

	_, err := r.q.Exec(ctx, query,
		c.ID, c.Status, c.CreditsAwarded, c.CompletedAt, c.CompletedByID, c.DecidedAt, c.DecidedByID,
	)
	if err != nil {
		return transientErr("update chore instance", err)
	}
	return nil
}

type rewardRepo struct {
	q queryer
}

const rewardColumns = `id, family_id, name, cost_credits, quantity, status, created_at`

func (r *rewardRepo) get(ctx context.Context, id string, lock string) (*model.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1` + lock

	var rw model.Reward
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rw.ID, &rw.FamilyID, &rw.Name, &rw.CostCredits, &rw.Quantity, &rw.Status, &rw.CreatedAt,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &rw, nil
}

func (r *rewardRepo) Get(ctx context.Context, id string) (*model.Reward, error) {
	return r.get(ctx, id, "")
}

func (r *rewardRepo) GetForUpdate(ctx context.Context, id string) (*model.Reward, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *rewardRepo) Insert(ctx context.Context, rw *model.Reward) error {
	query := `
		INSERT INTO rewards (` + rewardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query, rw.ID, rw.FamilyID, rw.Name, rw.CostCredits, rw.Quantity, rw.Status, rw.CreatedAt)
	if err != nil {
		return transientErr("insert reward", err)
	}
	return nil
}

func (r *rewardRepo) Update(ctx context.Context, rw *model.Reward) error {
	query := `UPDATE rewards SET name = $2, cost_credits = $3, quantity = $4, status = $5 WHERE id = $1`

	_, err := r.q.Exec(ctx, query, rw.ID, rw.Name, rw.CostCredits, rw.Quantity, rw.Status)
	if err != nil {
		return transientErr("update reward", err)
	}
	return nil
}

type redemptionRepo struct {
	q queryer
}

const redemptionColumns = `id, member_id, reward_id, status, cost_snapshot, transaction_id, reject_reason, decided_at, decided_by_id, created_at`

func (r *redemptionRepo) get(ctx context.Context, id string, lock string) (*model.RewardRedemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM reward_redemptions WHERE id = $1` + lock

	var rd model.RewardRedemption
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rd.ID, &rd.MemberID, &rd.RewardID, &rd.Status, &rd.CostSnapshot,
		&rd.TransactionID, &rd.RejectReason, &rd.DecidedAt, &rd.DecidedByID, &rd.CreatedAt,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &rd, nil
}

func (r *redemptionRepo) Get(ctx context.Context, id string) (*model.RewardRedemption, error) {
	return r.get(ctx, id, "")
}

func (r *redemptionRepo) GetForUpdate(ctx context.Context, id string) (*model.RewardRedemption, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *redemptionRepo) Insert(ctx context.Context, rd *model.RewardRedemption) error {
	query := `
		INSERT INTO reward_redemptions (` + redemptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.q.Exec(ctx, query,
		rd.ID, rd.MemberID, rd.RewardID, rd.Status, rd.CostSnapshot,
		rd.TransactionID, rd.RejectReason, rd.DecidedAt, rd.DecidedByID, rd.CreatedAt,
	)
	if err != nil {
		return transientErr("insert redemption", err)
	}
	return nil
}

func (r *redemptionRepo) Update(ctx context.Context, rd *model.RewardRedemption) error {
	query := `
		UPDATE reward_redemptions SET
			status = $2, transaction_id = $3, reject_reason = $4, decided_at = $5, decided_by_id = $6
		WHERE id = $1`

	_, err := r.q.Exec(ctx, query, rd.ID, rd.Status, rd.TransactionID, rd.RejectReason, rd.DecidedAt, rd.DecidedByID)
	if err != nil {
		return transientErr("update redemption", err)
	}
	return nil
}
