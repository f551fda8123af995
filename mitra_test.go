package mitra

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/database"
)

func mockConfig(redisAddr string, overrides ...func(*config.Configuration)) *config.Configuration {
	cnf := &config.Configuration{
		ProjectName: "mitra-test",
		Redis:       config.RedisConfig{Dns: redisAddr},
		DataSource:  config.DataSourceConfig{Dns: "postgres://localhost/mitra_test"},
		Queue:       config.QueueConfig{WebhookQueue: config.DEFAULT_WEBHOOK_QUEUE, MaxRetryAttempts: 3},
		Session:     config.SessionConfig{TTLMinutes: 60},
	}
	for _, override := range overrides {
		override(cnf)
	}
	config.MockConfig(cnf)
	return cnf
}

func newTestMitra(t *testing.T, ds database.IDataSource) (*Mitra, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	mockConfig(mr.Addr())

	m, err := NewMitra(ds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}
