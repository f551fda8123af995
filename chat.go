package mitra

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const maxChatMessageLength = 4000

// ListChatMessages returns the conversation with partnerID in the order it
// happened. With no partner it returns every message, newest first.
func (m *Mitra) ListChatMessages(ctx context.Context, partnerID string, limit, offset int) ([]model.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "ListChatMessages")
	defer span.End()

	limit, offset = model.PageWindow(limit, offset, maxListLimit, maxListLimit)
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return m.datasource.GetChatMessages(ctx, nil, &filter.QueryOptions{SortBy: "sent_at", SortOrder: filter.SortDesc}, limit, offset)
	}
	span.SetAttributes(attribute.String("partner.id", partnerID))
	return m.datasource.GetConversation(ctx, partnerID, limit, offset)
}

// SendChatMessage sends message from the admin to the partner toID.
func (m *Mitra) SendChatMessage(ctx context.Context, toID, message string) (*model.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "SendChatMessage")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "message cannot be empty", nil)
	}
	if len(message) > maxChatMessageLength {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "message is too long", nil)
	}
	if _, err := m.datasource.GetPartnerByID(ctx, toID); err != nil {
		return nil, err
	}

	saved, err := m.datasource.CreateChatMessage(ctx, model.ChatMessage{
		ChatID:  model.GenerateUUIDWithSuffix("cht"),
		FromID:  model.AdminID,
		ToID:    toID,
		Message: message,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, logAndRecordError(span, "send chat message failed: ", err)
	}
	logrus.WithFields(logrus.Fields{"chat_id": saved.ChatID, "to": toID}).Debug("chat message sent")
	return saved, nil
}
