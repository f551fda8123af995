/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package mitra

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/internal/notification"
	"github.com/mitrahub/mitra/internal/request"
	"github.com/mitrahub/mitra/model"
)

const (
	EventTopUpApproved   = "topup.approved"
	EventTopUpRejected   = "topup.rejected"
	EventPartnerCredited = "partner.credited"
	EventPartnerVerified = "partner.verified"
	EventPartnerDeleted  = "partner.deleted"

	EventTopUpCreated      = "topup.created"
	EventPartnerRegistered = "partner.registered"
	EventChatReceived      = "chat.received"
)

// NewWebhook represents the structure of a webhook notification.
// It includes an event type and associated payload data.
type NewWebhook struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// SettlementEvent is the payload of settlement and credit webhooks.
type SettlementEvent struct {
	TopUp         *model.TopUp  `json:"topup,omitempty"`
	Credit        *model.Credit `json:"credit,omitempty"`
	AmountDisplay string        `json:"amount_display"`
}

// FormatRupiah renders an amount the way partners see it, e.g. "Rp150.000".
func FormatRupiah(amount int64) string {
	digits := decimal.NewFromInt(amount).Abs().StringFixed(0)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if amount < 0 {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}

// SendWebhook enqueues a webhook for event. It is a no-op when no webhook URL is configured.
func (m *Mitra) SendWebhook(event string, payload interface{}) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	_, err = m.queue.EnqueueWebhook(context.Background(), NewWebhook{
		Event:     event,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// postActions runs the follow-ups of a committed change. Failures are
// reported but never undo the change.
func (m *Mitra) postActions(event string, payload interface{}, invalidateStats bool) {
	go func() {
		if invalidateStats {
			m.invalidateDashboardStats(context.Background())
		}
		if err := m.SendWebhook(event, payload); err != nil {
			notification.NotifyError(fmt.Errorf("failed to enqueue %s webhook: %w", event, err))
		}
	}()
}

// ProcessWebhook delivers a queued webhook. A non-2xx answer is returned as an
// error so asynq retries the task.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("malformed webhook task")
		return fmt.Errorf("unmarshal webhook payload: %v: %w", err, asynq.SkipRetry)
	}

	req, err := request.PostJSON(ctx, conf.Notification.Webhook.Url, payload, conf.Notification.Webhook.Headers)
	if err != nil {
		return err
	}
	if _, err := request.Call(req, nil); err != nil {
		logrus.WithError(err).WithField("event", payload.Event).Warn("webhook delivery failed")
		return err
	}

	logrus.WithField("event", payload.Event).Info("webhook delivered")
	return nil
}
