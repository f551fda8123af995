/*
Copyright 2024 Blnk Finance Authors.

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

package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/internal/request"
)

// SystemErrorEvent is the webhook event emitted for errors reported through NotifyError.
const SystemErrorEvent = "system.error"

// WebhookSender delivers an event to the configured webhook. The root package registers
// its queue-backed sender at startup; this package cannot import it directly.
type WebhookSender func(event string, payload interface{}) error

var (
	senderMu      sync.RWMutex
	webhookSender WebhookSender
)

func RegisterWebhookSender(sender WebhookSender) {
	senderMu.Lock()
	defer senderMu.Unlock()
	webhookSender = sender
}

func registeredSender() WebhookSender {
	senderMu.RLock()
	defer senderMu.RUnlock()
	return webhookSender
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(project string, err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("Error From %s 🐞", project), Emoji: true}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Error:*\n%v", err)}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Time:*\n%v", at.Format(time.RFC822))}}},
	}}
}

// SlackNotification posts err to the configured Slack incoming webhook.
func SlackNotification(ctx context.Context, systemError error) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Slack.WebhookUrl == "" {
		return nil
	}

	req, err := request.PostJSON(ctx, conf.Notification.Slack.WebhookUrl, slackPayload(conf.ProjectName, systemError, time.Now()), nil)
	if err != nil {
		return err
	}
	// Slack answers with plain text "ok"
	_, err = request.Call(req, nil)
	return err
}

// NotifyError logs systemError and, in the background, forwards it to Slack and to the
// registered webhook sender.
func NotifyError(systemError error) {
	if systemError == nil {
		return
	}
	logrus.Error(systemError)

	go func(systemError error) {
		ctx, cancel := context.WithTimeout(context.Background(), request.DefaultTimeout)
		defer cancel()

		if err := SlackNotification(ctx, systemError); err != nil {
			logrus.WithError(err).Warn("slack notification failed")
		}

		if sender := registeredSender(); sender != nil {
			payload := map[string]interface{}{
				"error":      systemError.Error(),
				"created_at": time.Now().UTC(),
			}
			if err := sender(SystemErrorEvent, payload); err != nil {
				logrus.WithError(err).Warn("error webhook failed")
			}
		}
	}(systemError)
}
