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
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedStats struct {
	Partners int64
	Balance  int64
}

func newTestCache(t *testing.T, opts Options) (*miniredis.Miniredis, *RedisCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewCache(client, opts)
}

func TestSetAndGet(t *testing.T) {
	_, c := newTestCache(t, Options{})
	ctx := context.Background()

	want := cachedStats{Partners: 4, Balance: 150000}
	require.NoError(t, c.Set(ctx, "stats", want, 10*time.Minute))

	var got cachedStats
	require.NoError(t, c.Get(ctx, "stats", &got))
	assert.Equal(t, want, got)
}

func TestGetMissingKey(t *testing.T) {
	_, c := newTestCache(t, Options{})

	var got cachedStats
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	mr, c := newTestCache(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:abc", "admin", time.Minute))
	assert.True(t, mr.Exists("session:abc"))

	require.NoError(t, c.Delete(ctx, "session:abc"))
	assert.False(t, mr.Exists("session:abc"))

	var got string
	assert.ErrorIs(t, c.Get(ctx, "session:abc", &got), ErrCacheMiss)

	assert.NoError(t, c.Delete(ctx, "never-set"))
}

func TestExpiry(t *testing.T) {
	mr, c := newTestCache(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:ttl", "admin", time.Minute))
	mr.FastForward(2 * time.Minute)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "session:ttl", &got), ErrCacheMiss)
}

func TestLocalLayer(t *testing.T) {
	mr, c := newTestCache(t, Options{LocalSize: 100, LocalTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stats", cachedStats{Partners: 1}, time.Minute))
	mr.FlushAll()

	var got cachedStats
	require.NoError(t, c.Get(ctx, "stats", &got))
	assert.Equal(t, int64(1), got.Partners)
}
