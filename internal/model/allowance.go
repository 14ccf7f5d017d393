package model

import "time"

type AllowanceFrequency string

const (
	FrequencyWeekly  AllowanceFrequency = "WEEKLY"
	FrequencyMonthly AllowanceFrequency = "MONTHLY"
)

// AllowanceSchedule pays a fixed credit amount on a recurring day.
// LastProcessedAt is the idempotency watermark: a schedule already stamped
// today is skipped, never paid twice.
type AllowanceSchedule struct {
	ID              string             `json:"id"`
	MemberID        string             `json:"member_id"`
	Amount          int64              `json:"amount"`
	Frequency       AllowanceFrequency `json:"frequency"`
	DayOfWeek       int                `json:"day_of_week"`  // 0=Sunday, WEEKLY only
	DayOfMonth      int                `json:"day_of_month"` // 1-31, MONTHLY only
	IsActive        bool               `json:"is_active"`
	IsPaused        bool               `json:"is_paused"`
	LastProcessedAt *time.Time         `json:"last_processed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// DueOn reports whether the schedule's recurrence matches the given day.
func (s *AllowanceSchedule) DueOn(now time.Time) bool {
	switch s.Frequency {
	case FrequencyWeekly:
		return int(now.Weekday()) == s.DayOfWeek
	case FrequencyMonthly:
		return now.Day() == s.DayOfMonth
	default:
		return false
	}
}

// ProcessedOn reports whether the watermark already falls on the given day.
func (s *AllowanceSchedule) ProcessedOn(now time.Time) bool {
	if s.LastProcessedAt == nil {
		return false
	}
	y1, m1, d1 := s.LastProcessedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DistributionSummary is the outcome of one allowance batch run. A failing
// schedule lands in Errors and never aborts its siblings.
type DistributionSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}
