package model

import "time"

// ChatMessage is one message between the administrator and a partner.
type ChatMessage struct {
	ChatID  string    `json:"chat_id"`
	FromID  string    `json:"from_id"`
	ToID    string    `json:"to_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// FromAdmin reports whether the administrator sent the message.
func (m *ChatMessage) FromAdmin() bool {
	return m.FromID == AdminID
}
