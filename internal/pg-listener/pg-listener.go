// Package pg_listener follows the change feed that the database publishes with
// pg_notify whenever a partner-side row is inserted.
package pg_listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "mitra_changes"

// ChangeHandler receives every decoded notification.
type ChangeHandler interface {
	HandleChange(ctx context.Context, change Change) error
}

type ListenerConfig struct {
	PgConnStr    string
	Channel      string
	MinReconnect time.Duration
	MaxReconnect time.Duration
	// PingInterval is how long the listener may sit idle before it pings the
	// server to detect a dead connection.
	PingInterval time.Duration
}

// Change is one row event as published by notify_mitra_change().
type Change struct {
	Table string                 `json:"table"`
	Op    string                 `json:"op"`
	Data  map[string]interface{} `json:"data"`
}

// String reads a text column from the row, or "" when it is missing.
func (c Change) String(column string) string {
	if v, ok := c.Data[column].(string); ok {
		return v
	}
	return ""
}

type DBListener struct {
	config  ListenerConfig
	handler ChangeHandler
}

func NewDBListener(config ListenerConfig, handler ChangeHandler) *DBListener {
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.MinReconnect <= 0 {
		config.MinReconnect = 10 * time.Second
	}
	if config.MaxReconnect <= 0 {
		config.MaxReconnect = time.Minute
	}
	if config.PingInterval <= 0 {
		config.PingInterval = 90 * time.Second
	}
	return &DBListener{
		config:  config,
		handler: handler,
	}
}

// Start listens until ctx is cancelled.
func (d *DBListener) Start(ctx context.Context) error {
	listener := pq.NewListener(d.config.PgConnStr, d.config.MinReconnect, d.config.MaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).Warn("change feed connection event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(d.config.Channel); err != nil {
		return fmt.Errorf("listen on %s: %w", d.config.Channel, err)
	}
	logrus.WithField("channel", d.config.Channel).Info("listening for database changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; anything missed while down is not replayed
			if n == nil {
				continue
			}
			if err := d.Dispatch(ctx, []byte(n.Extra)); err != nil {
				logrus.WithError(err).Error("failed to handle database change")
			}
		case <-time.After(d.config.PingInterval):
			if err := listener.Ping(); err != nil {
				logrus.WithError(err).Warn("change feed ping failed")
			}
		}
	}
}

// Dispatch decodes one notification payload and hands it to the handler.
func (d *DBListener) Dispatch(ctx context.Context, payload []byte) error {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return fmt.Errorf("decode change payload: %w", err)
	}
	if change.Table == "" {
		return fmt.Errorf("change payload has no table")
	}
	return d.handler.HandleChange(ctx, change)
}
