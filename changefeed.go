package mitra

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	pg_listener "github.com/mitrahub/mitra/internal/pg-listener"
	"github.com/mitrahub/mitra/model"
)

// HandleChange reacts to rows the partner-facing side inserts directly into
// the database: new top-up requests, new partners and partner chat messages.
// Only inserts are published by the trigger; anything else is ignored.
func (m *Mitra) HandleChange(ctx context.Context, change pg_listener.Change) error {
	ctx, span := tracer.Start(ctx, "HandleChange")
	defer span.End()
	span.SetAttributes(attribute.String("change.table", change.Table), attribute.String("change.op", change.Op))

	if !strings.EqualFold(change.Op, "INSERT") {
		return nil
	}

	var event string
	switch change.Table {
	case "topups":
		event = EventTopUpCreated
		m.invalidateDashboardStats(ctx)
	case "partners":
		event = EventPartnerRegistered
		m.invalidateDashboardStats(ctx)
	case "chats":
		if change.String("from_id") == model.AdminID {
			return nil
		}
		event = EventChatReceived
	default:
		return nil
	}

	logrus.WithFields(logrus.Fields{"table": change.Table, "event": event}).Info("database change received")
	if err := m.SendWebhook(event, change.Data); err != nil {
		return logAndRecordError(span, "change feed webhook failed: ", err)
	}
	return nil
}
