package database

import (
	"context"
	"fmt"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const chatColumns = `c.chat_id, c.from_id, c.to_id, c.message, c.sent_at`

func (d Datasource) queryChats(ctx context.Context, op, query string, args ...interface{}) ([]model.ChatMessage, error) {
	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(err, op, false)
	}
	defer func() { _ = rows.Close() }()

	messages := []model.ChatMessage{}
	for rows.Next() {
		m := model.ChatMessage{}
		if err := rows.Scan(&m.ChatID, &m.FromID, &m.ToID, &m.Message, &m.SentAt); err != nil {
			return nil, storeError(err, "scan chat message", false)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, op, false)
	}
	return messages, nil
}

// GetChatMessages lists messages matching the filters, newest first by default.
func (d Datasource) GetChatMessages(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.ChatMessage, error) {
	result, err := filter.BuildWithOptions(filters, filter.TableChats, 1, opts)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	query := fmt.Sprintf(`SELECT %s FROM chats c %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		chatColumns, result.Where(), result.OrderBy, result.NextArgPos, result.NextArgPos+1)
	return d.queryChats(ctx, "list chat messages", query, append(result.Args, limit, offset)...)
}

// GetConversation lists the messages exchanged between the admin and a
// partner, oldest first. The page is taken from the newest end of the thread:
// offset 0 always ends at the latest message.
func (d Datasource) GetConversation(ctx context.Context, partnerID string, limit, offset int) ([]model.ChatMessage, error) {
	query := `SELECT c.chat_id, c.from_id, c.to_id, c.message, c.sent_at FROM (
			SELECT ` + chatColumns + ` FROM chats c
			WHERE (c.from_id = $1 AND c.to_id = $2) OR (c.from_id = $2 AND c.to_id = $1)
			ORDER BY c.sent_at DESC LIMIT $3 OFFSET $4
		) c ORDER BY c.sent_at ASC`
	return d.queryChats(ctx, "list conversation", query, model.AdminID, partnerID, limit, offset)
}

func (d Datasource) CreateChatMessage(ctx context.Context, message model.ChatMessage) (*model.ChatMessage, error) {
	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO chats (chat_id, from_id, to_id, message, sent_at) VALUES ($1, $2, $3, $4, $5)`,
		message.ChatID, message.FromID, message.ToID, message.Message, message.SentAt)
	if err != nil {
		return nil, storeError(err, "send chat message", true)
	}
	return &message, nil
}
