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
	"embed"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/database"
	"github.com/mitrahub/mitra/internal/cache"
	"github.com/mitrahub/mitra/internal/notification"
	redis_db "github.com/mitrahub/mitra/internal/redis-db"
)

// Mitra is the admin service. Every operation the dashboard exposes hangs off it.
type Mitra struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	sessions   cache.Cache
	stats      cache.Cache
	sessionTTL time.Duration
}

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("mitra")

// NewMitra wires the service to db and to the redis instance from the
// configuration. It also registers the queue as the sink for system.error
// webhooks.
func NewMitra(db database.IDataSource) (*Mitra, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	queue, err := NewQueue(configuration)
	if err != nil {
		return nil, err
	}

	m := &Mitra{
		queue:      queue,
		redis:      redisClient.Client(),
		datasource: db,
		sessions:   cache.NewCache(redisClient.Client(), cache.Options{}),
		stats:      cache.NewCache(redisClient.Client(), cache.Options{LocalSize: 16, LocalTTL: 5 * time.Second}),
		sessionTTL: configuration.SessionTTL(),
	}
	notification.RegisterWebhookSender(m.SendWebhook)
	return m, nil
}

// Close releases the queue connections.
func (m *Mitra) Close() error {
	return m.queue.Close()
}

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}
