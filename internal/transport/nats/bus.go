package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"famledger/internal/model"
)

const (
	SubjectNotifyMember  = "notifications.member"
	SubjectNotifyParents = "notifications.parents"
	SubjectAuditRecorded = "audit.recorded"
)

// Bus publishes side effects to NATS, fire-and-forget. It implements both the
// Notifier and AuditRecorder collaborator interfaces of the service layer.
type Bus struct {
	nc *nats.Conn
}

func NewBus(nc *nats.Conn) *Bus {
	return &Bus{nc: nc}
}

func (b *Bus) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}

func (b *Bus) Notify(ctx context.Context, n model.Notification) error {
	return b.publish(SubjectNotifyMember, n)
}

func (b *Bus) NotifyParents(ctx context.Context, n model.Notification) error {
	return b.publish(SubjectNotifyParents, n)
}

func (b *Bus) Record(ctx context.Context, e model.AuditEvent) error {
	return b.publish(SubjectAuditRecorded, e)
}
