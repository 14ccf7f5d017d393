package model

import "time"

// AuditEvent is the best-effort record published after a commit. EventID keys
// the idempotent insert on the worker side.
type AuditEvent struct {
	EventID    string         `json:"event_id"`
	FamilyID   string         `json:"family_id"`
	MemberID   string         `json:"member_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Result     string         `json:"result"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Notification is the fire-and-forget message handed to the notification
// collaborator. Delivery mechanics live outside the core.
type Notification struct {
	UserID   string         `json:"user_id,omitempty"`
	FamilyID string         `json:"family_id,omitempty"`
	Kind     string         `json:"kind"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
