package stats

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	recorder, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "noop", recorder.Type())

	recorder, err = New(&config.StatsConfig{Enabled: false, Address: "127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, "noop", recorder.Type())

	assert.NoError(t, recorder.Record(context.Background(), Event{ClientID: "a", Allowed: true}))
	totals, err := recorder.Totals(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Totals{}, totals)
	assert.NoError(t, recorder.Close())
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(&config.StatsConfig{Enabled: true, Address: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats redis ping failed")
}

func TestNew_MissingAddress(t *testing.T) {
	_, err := New(&config.StatsConfig{Enabled: true})
	assert.Error(t, err)
}

func TestRedisRecorder_Keys(t *testing.T) {
	r := NewRedisRecorder(nil, WithPrefix(":custom:"), WithBucket(" NONE ")).(*redisRecorder)
	assert.Equal(t, "custom:total", r.totalKey())
	assert.Equal(t, BucketNone, r.bucket)

	at := time.Date(2024, 3, 5, 14, 7, 30, 0, time.UTC)
	assert.Equal(t, "custom:minute:202403051407", r.minuteKey(at))
	assert.Equal(t, "redis", r.Type())
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{"GET", "/api", "GET /api"},
		{"get", "/api/users/42", "GET /api"},
		{"POST", "/api/v1/resume?x=1", "POST /api"},
		{"GET", "/", "GET /"},
		{"", "", "OTHER /"},
		{"PURGE", "/cache", "OTHER /cache"},
		{"GET", "/" + strings.Repeat("a", 64), "GET /*"},
		{"GET", "/%7Bweird%7D/x", "GET /*"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeRoute(tt.method, tt.path))
		})
	}

	// 大量不同路径只产生有限的路由
	routes := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		routes[normalizeRoute("GET", "/api/items/"+strconv.Itoa(i))] = struct{}{}
		routes[normalizeRoute("GET", "/x"+strconv.Itoa(i)+strings.Repeat("z", 40))] = struct{}{}
	}
	assert.Len(t, routes, 2)
}

// 需要真实 Redis，设置 SLIDEGATE_TEST_REDIS=host:port 启用
func TestRedisRecorder_Record(t *testing.T) {
	addr := os.Getenv("SLIDEGATE_TEST_REDIS")
	if addr == "" {
		t.Skip("SLIDEGATE_TEST_REDIS not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	prefix := "slidegate:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		_ = rdb.Close()
	})

	recorder := NewRedisRecorder(rdb, WithPrefix(prefix), WithTTL(time.Minute), WithTrackClients(true))
	at := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)

	require.NoError(t, recorder.Record(ctx, Event{ClientID: "10.0.0.1", Allowed: true, Method: "GET", Path: "/api", At: at}))
	require.NoError(t, recorder.Record(ctx, Event{ClientID: "10.0.0.1", Allowed: true, Method: "GET", Path: "/api", At: at}))
	require.NoError(t, recorder.Record(ctx, Event{ClientID: "10.0.0.1", Allowed: false, Method: "GET", Path: "/api", At: at}))

	totals, err := recorder.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Allowed: 2, Denied: 1}, totals)

	minute, err := rdb.HGetAll(ctx, prefix+":minute:202403051407").Result()
	require.NoError(t, err)
	assert.Equal(t, "2", minute["allowed"])
	assert.Equal(t, "1", minute["denied"])

	require.NoError(t, recorder.Record(ctx, Event{ClientID: "10.0.0.1", Allowed: true, Method: "GET", Path: "/api/users/7", At: at}))

	route, err := rdb.HGet(ctx, prefix+":route", "GET /api:allowed").Result()
	require.NoError(t, err)
	assert.Equal(t, "3", route)

	routeTTL, err := rdb.TTL(ctx, prefix+":route").Result()
	require.NoError(t, err)
	assert.Greater(t, routeTTL, time.Duration(0))

	client, err := rdb.HGet(ctx, prefix+":client:10.0.0.1", "denied").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", client)

	ttl, err := rdb.TTL(ctx, prefix+":client:10.0.0.1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
