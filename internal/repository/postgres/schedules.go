package postgres

import (
	"context"
	"time"

	"famledger/internal/model"
)

type allowanceRepo struct {
	q queryer
}

const allowanceColumns = `id, member_id, amount, frequency, day_of_week, day_of_month, is_active, is_paused, last_processed_at, created_at`

func (r *allowanceRepo) get(ctx context.Context, id string, lock string) (*model.AllowanceSchedule, error) {
	query := `SELECT ` + allowanceColumns + ` FROM allowance_schedules WHERE id = $1` + lock

	var s model.AllowanceSchedule
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.MemberID, &s.Amount, &s.Frequency, &s.DayOfWeek, &s.DayOfMonth,
		&s.IsActive, &s.IsPaused, &s.LastProcessedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &s, nil
}

func (r *allowanceRepo) Get(ctx context.Context, id string) (*model.AllowanceSchedule, error) {
	return r.get(ctx, id, "")
}

func (r *allowanceRepo) GetForUpdate(ctx context.Context, id string) (*model.AllowanceSchedule, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *allowanceRepo) ListActive(ctx context.Context) ([]model.AllowanceSchedule, error) {
	query := `SELECT ` + allowanceColumns + ` FROM allowance_schedules WHERE is_active ORDER BY created_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, transientErr("list active schedules", err)
	}
	defer rows.Close()

	var out []model.AllowanceSchedule
	for rows.Next() {
		var s model.AllowanceSchedule
		if err := rows.Scan(&s.ID, &s.MemberID, &s.Amount, &s.Frequency, &s.DayOfWeek, &s.DayOfMonth,
			&s.IsActive, &s.IsPaused, &s.LastProcessedAt, &s.CreatedAt); err != nil {
			return nil, transientErr("scan schedule", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *allowanceRepo) Insert(ctx context.Context, s *model.AllowanceSchedule) error {
	query := `
		INSERT INTO allowance_schedules (` + allowanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.q.Exec(ctx, query,
		s.ID, s.MemberID, s.Amount, s.Frequency, s.DayOfWeek, s.DayOfMonth,
		s.IsActive, s.IsPaused, s.LastProcessedAt, s.CreatedAt,
	)
	if err != nil {
		return transientErr("insert schedule", err)
	}
	return nil
}

func (r *allowanceRepo) Update(ctx context.Context, s *model.AllowanceSchedule) error {
	query := `
		UPDATE allowance_schedules SET
			amount = $2, frequency = $3, day_of_week = $4, day_of_month = $5,
			is_active = $6, is_paused = $7, last_processed_at = $8
		WHERE id = $1`

	_, err := r.q.Exec(ctx, query,
		s.ID, s.Amount, s.Frequency, s.DayOfWeek, s.DayOfMonth, s.IsActive, s.IsPaused, s.LastProcessedAt,
	)
	if err != nil {
		return transientErr("update schedule", err)
	}
	return nil
}

type graceLogRepo struct {
	q queryer
}

const graceLogColumns = `id, member_id, minutes_granted, status, repayment_status, requested_at, approved_by_id, transaction_id`

func (r *graceLogRepo) get(ctx context.Context, id string, lock string) (*model.GracePeriodLog, error) {
	query := `SELECT ` + graceLogColumns + ` FROM grace_period_logs WHERE id = $1` + lock

	var l model.GracePeriodLog
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.MemberID, &l.MinutesGranted, &l.Status, &l.RepaymentStatus,
		&l.RequestedAt, &l.ApprovedByID, &l.TransactionID,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &l, nil
}

func (r *graceLogRepo) Get(ctx context.Context, id string) (*model.GracePeriodLog, error) {
	return r.get(ctx, id, "")
}

func (r *graceLogRepo) GetForUpdate(ctx context.Context, id string) (*model.GracePeriodLog, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *graceLogRepo) Insert(ctx context.Context, l *model.GracePeriodLog) error {
	query := `
		INSERT INTO grace_period_logs (` + graceLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.Exec(ctx, query,
		l.ID, l.MemberID, l.MinutesGranted, l.Status, l.RepaymentStatus,
		l.RequestedAt, l.ApprovedByID, l.TransactionID,
	)
	if err != nil {
		return transientErr("insert grace log", err)
	}
	return nil
}

func (r *graceLogRepo) Update(ctx context.Context, l *model.GracePeriodLog) error {
	query := `
		UPDATE grace_period_logs SET
			status = $2, repayment_status = $3, approved_by_id = $4, transaction_id = $5
		WHERE id = $1`

	_, err := r.q.Exec(ctx, query, l.ID, l.Status, l.RepaymentStatus, l.ApprovedByID, l.TransactionID)
	if err != nil {
		return transientErr("update grace log", err)
	}
	return nil
}

func (r *graceLogRepo) CountSince(ctx context.Context, memberID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM grace_period_logs
		WHERE member_id = $1 AND requested_at >= $2 AND status <> $3`

	var n int
	if err := r.q.QueryRow(ctx, query, memberID, since, model.GraceDenied).Scan(&n); err != nil {
		return 0, transientErr("count grace logs", err)
	}
	return n, nil
}

type graceSettingsRepo struct {
	q queryer
}

func (r *graceSettingsRepo) get(ctx context.Context, memberID string, lock string) (*model.GraceSettings, error) {
	query := `
		SELECT member_id, grace_period_minutes, max_grace_per_day, max_grace_per_week,
		       repayment_mode, low_balance_warning_minutes, requires_approval
		FROM grace_settings WHERE member_id = $1` + lock

	var s model.GraceSettings
	err := r.q.QueryRow(ctx, query, memberID).Scan(
		&s.MemberID, &s.GracePeriodMinutes, &s.MaxGracePerDay, &s.MaxGracePerWeek,
		&s.RepaymentMode, &s.LowBalanceWarningMinutes, &s.RequiresApproval,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &s, nil
}

func (r *graceSettingsRepo) Get(ctx context.Context, memberID string) (*model.GraceSettings, error) {
	return r.get(ctx, memberID, "")
}

func (r *graceSettingsRepo) GetForUpdate(ctx context.Context, memberID string) (*model.GraceSettings, error) {
	return r.get(ctx, memberID, " FOR UPDATE")
}

func (r *graceSettingsRepo) Upsert(ctx context.Context, s *model.GraceSettings) error {
	query := `
		INSERT INTO grace_settings (member_id, grace_period_minutes, max_grace_per_day, max_grace_per_week, repayment_mode, low_balance_warning_minutes, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (member_id) DO UPDATE SET
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			max_grace_per_day = EXCLUDED.max_grace_per_day,
			max_grace_per_week = EXCLUDED.max_grace_per_week,
			repayment_mode = EXCLUDED.repayment_mode,
			low_balance_warning_minutes = EXCLUDED.low_balance_warning_minutes,
			requires_approval = EXCLUDED.requires_approval`

	_, err := r.q.Exec(ctx, query,
		s.MemberID, s.GracePeriodMinutes, s.MaxGracePerDay, s.MaxGracePerWeek,
		s.RepaymentMode, s.LowBalanceWarningMinutes, s.RequiresApproval,
	)
	if err != nil {
		return transientErr("upsert grace settings", err)
	}
	return nil
}

type auditLogRepo struct {
	q queryer
}

func (r *auditLogRepo) Insert(ctx context.Context, e *model.AuditEvent) error {
	query := `
		INSERT INTO audit_log (event_id, family_id, member_id, action, entity_type, entity_id, result, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`

	_, err := r.q.Exec(ctx, query,
		e.EventID, e.FamilyID, e.MemberID, e.Action, e.EntityType, e.EntityID, e.Result, e.Metadata, e.CreatedAt,
	)
	if err != nil {
		return transientErr("insert audit event", err)
	}
	return nil
}
