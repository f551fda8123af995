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

package mitra

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/mitrahub/mitra/config"
	redis_db "github.com/mitrahub/mitra/internal/redis-db"
)

// Queue represents a queue for handling outbound webhook tasks.
type Queue struct {
	Client       *asynq.Client
	Inspector    *asynq.Inspector
	webhookQueue string
	maxRetry     int
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	queueOptions, err := redis_db.AsynqOpt(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:       asynq.NewClient(queueOptions),
		Inspector:    asynq.NewInspector(queueOptions),
		webhookQueue: conf.Queue.WebhookQueue,
		maxRetry:     conf.Queue.MaxRetryAttempts,
	}, nil
}

// EnqueueWebhook puts a webhook on the webhook queue. The worker retries
// delivery up to the configured number of attempts.
func (q *Queue) EnqueueWebhook(ctx context.Context, hook NewWebhook) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(hook)
	if err != nil {
		return nil, err
	}

	taskOptions := []asynq.Option{asynq.Queue(q.webhookQueue)}
	if q.maxRetry > 0 {
		taskOptions = append(taskOptions, asynq.MaxRetry(q.maxRetry))
	}
	task := asynq.NewTask(q.webhookQueue, payload, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		logrus.WithError(err).WithField("event", hook.Event).Error("failed to enqueue webhook")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"event": hook.Event, "task_id": info.ID}).Debug("webhook enqueued")
	return info, nil
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		logrus.WithError(err).Warn("closing queue inspector")
	}
	return q.Client.Close()
}
