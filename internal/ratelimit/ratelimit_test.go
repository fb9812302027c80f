package ratelimit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, maxRequests int, timeWindow int64) *SlidingWindowLimiter {
	t.Helper()
	limiter, err := NewSlidingWindowLimiter(&Config{MaxRequests: maxRequests, TimeWindow: timeWindow})
	require.NoError(t, err)
	return limiter
}

// historyLen 返回客户端当前存储的时间戳数量
func historyLen(l *SlidingWindowLimiter, clientID string) int {
	s := l.shardFor(clientID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.clients[clientID]; ok {
		return len(w.timestamps)
	}
	return -1
}

func TestNewSlidingWindowLimiter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		field  string
		target error
	}{
		{"zero max requests", &Config{MaxRequests: 0, TimeWindow: 1000}, "maxRequests", ErrInvalidMaxRequests},
		{"negative max requests", &Config{MaxRequests: -3, TimeWindow: 1000}, "maxRequests", ErrInvalidMaxRequests},
		{"zero time window", &Config{MaxRequests: 1, TimeWindow: 0}, "timeWindow", ErrInvalidTimeWindow},
		{"negative time window", &Config{MaxRequests: 1, TimeWindow: -1}, "timeWindow", ErrInvalidTimeWindow},
		{"too many shards", &Config{MaxRequests: 1, TimeWindow: 1, Shards: 4096}, "shards", ErrInvalidShards},
		{"negative max clients", &Config{MaxRequests: 1, TimeWindow: 1, MaxClients: -1}, "maxClients", ErrInvalidMaxClients},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewSlidingWindowLimiter(tt.config)
			assert.Nil(t, limiter)
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestNewSlidingWindowLimiter_Defaults(t *testing.T) {
	limiter, err := NewSlidingWindowLimiter(nil)
	require.NoError(t, err)
	assert.Equal(t, 100, limiter.MaxRequests())
	assert.Equal(t, int64(60000), limiter.TimeWindow())
	assert.Equal(t, 0, limiter.MaxClients())
	assert.Len(t, limiter.shards, 16)
}

func TestCheckAndRecord_Boundary(t *testing.T) {
	limiter := newTestLimiter(t, 3, 1000)

	expected := []Decision{Allowed, Allowed, Allowed, Rejected}
	for i, want := range expected {
		result, err := limiter.CheckAndRecord("A", 0)
		require.NoError(t, err)
		assert.Equal(t, want, result.Decision, "call %d", i+1)
	}
}

func TestCheckAndRecord_Remaining(t *testing.T) {
	limiter := newTestLimiter(t, 3, 1000)

	r, _ := limiter.CheckAndRecord("A", 0)
	assert.Equal(t, 2, r.Remaining)
	r, _ = limiter.CheckAndRecord("A", 100)
	assert.Equal(t, 1, r.Remaining)
	r, _ = limiter.CheckAndRecord("A", 200)
	assert.Equal(t, 0, r.Remaining)

	r, _ = limiter.CheckAndRecord("A", 400)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, 0, r.Remaining)
	assert.Equal(t, int64(600), r.RetryAfter)
}

func TestCheckAndRecord_WindowExpiry(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1000)

	r, err := limiter.CheckAndRecord("A", 0)
	require.NoError(t, err)
	assert.Equal(t, Allowed, r.Decision)

	r, err = limiter.CheckAndRecord("A", 999)
	require.NoError(t, err)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, int64(1), r.RetryAfter)

	// 恰好位于边界的请求不再计入窗口
	r, err = limiter.CheckAndRecord("A", 1000)
	require.NoError(t, err)
	assert.Equal(t, Allowed, r.Decision)
}

func TestCheckAndRecord_PerClientIsolation(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1000)

	r, _ := limiter.CheckAndRecord("A", 0)
	assert.Equal(t, Allowed, r.Decision)
	r, _ = limiter.CheckAndRecord("B", 0)
	assert.Equal(t, Allowed, r.Decision)
	r, _ = limiter.CheckAndRecord("A", 0)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, 1, historyLen(limiter, "B"))
}

func TestCheckAndRecord_LazyEviction(t *testing.T) {
	const n = 5
	limiter := newTestLimiter(t, n, 1000)

	for i := 0; i < n; i++ {
		r, _ := limiter.CheckAndRecord("A", int64(i))
		assert.Equal(t, Allowed, r.Decision)
	}
	r, _ := limiter.CheckAndRecord("A", 10)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, n, historyLen(limiter, "A"))

	r, err := limiter.CheckAndRecord("A", 5000)
	require.NoError(t, err)
	assert.Equal(t, Allowed, r.Decision)
	assert.Equal(t, 1, historyLen(limiter, "A"))
}

func TestCheckAndRecord_RejectedWritesBackFilteredHistory(t *testing.T) {
	limiter := newTestLimiter(t, 2, 1000)

	_, _ = limiter.CheckAndRecord("A", 0)
	_, _ = limiter.CheckAndRecord("A", 600)
	_, _ = limiter.CheckAndRecord("A", 700)
	assert.Equal(t, 2, historyLen(limiter, "A"))

	// t=0 已过期，只剩 600 与 1100 两条记录
	r, _ := limiter.CheckAndRecord("A", 1100)
	assert.Equal(t, Allowed, r.Decision)
	r, _ = limiter.CheckAndRecord("A", 1200)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, 2, historyLen(limiter, "A"))
}

func TestCheckAndRecord_InvalidClient(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1000)

	_, _ = limiter.CheckAndRecord("A", 0)

	_, err := limiter.CheckAndRecord("", 0)
	assert.ErrorIs(t, err, ErrInvalidClient)

	assert.Equal(t, 1, limiter.Len())
	assert.Equal(t, 1, historyLen(limiter, "A"))
	assert.Equal(t, -1, historyLen(limiter, ""))
}

func TestCheckAndRecord_Concurrent(t *testing.T) {
	const (
		maxRequests = 50
		extra       = 75
		workers     = 16
	)
	limiter := newTestLimiter(t, maxRequests, 60000)

	var allowed, rejected int64
	var wg sync.WaitGroup
	calls := make(chan struct{}, maxRequests+extra)
	for i := 0; i < maxRequests+extra; i++ {
		calls <- struct{}{}
	}
	close(calls)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				r, err := limiter.CheckAndRecord("shared", 1000)
				if err != nil {
					continue
				}
				if r.Allowed() {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(maxRequests), allowed)
	assert.Equal(t, int64(extra), rejected)
}

func TestCheckAndRecordAll(t *testing.T) {
	limiter := newTestLimiter(t, 2, 1000)

	r, err := limiter.CheckAndRecordAll([]string{"10.0.0.1", "key:a"}, 0)
	require.NoError(t, err)
	assert.True(t, r.Allowed())
	assert.Equal(t, 1, r.Remaining)

	// 地址配额耗尽后，新的头部标识同样被拒绝
	r, _ = limiter.CheckAndRecordAll([]string{"10.0.0.1", "key:b"}, 100)
	assert.True(t, r.Allowed())
	r, _ = limiter.CheckAndRecordAll([]string{"10.0.0.1", "key:c"}, 200)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, int64(800), r.RetryAfter)

	// 被拒绝的请求不会占用任何一个标识的配额
	assert.Equal(t, 0, historyLen(limiter, "key:c"))
	assert.Equal(t, 2, historyLen(limiter, "10.0.0.1"))

	// 头部标识耗尽时，另一地址的请求也被拒绝且不记录到该地址
	_, _ = limiter.CheckAndRecordAll([]string{"10.0.0.2", "key:a"}, 300)
	r, _ = limiter.CheckAndRecordAll([]string{"10.0.0.3", "key:a"}, 400)
	assert.Equal(t, Rejected, r.Decision)
	assert.Equal(t, int64(600), r.RetryAfter)
	assert.Equal(t, 0, historyLen(limiter, "10.0.0.3"))
}

func TestCheckAndRecordAll_Invalid(t *testing.T) {
	limiter := newTestLimiter(t, 1, 1000)

	_, err := limiter.CheckAndRecordAll(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidClient)

	_, err = limiter.CheckAndRecordAll([]string{"A", ""}, 0)
	assert.ErrorIs(t, err, ErrInvalidClient)
	assert.Equal(t, 0, limiter.Len())

	// 重复的标识只计数一次
	r, err := limiter.CheckAndRecordAll([]string{"A", "A"}, 0)
	require.NoError(t, err)
	assert.True(t, r.Allowed())
	assert.Equal(t, 1, historyLen(limiter, "A"))
}

func TestCheckAndRecordAll_Concurrent(t *testing.T) {
	const maxRequests = 20
	limiter, err := NewSlidingWindowLimiter(&Config{MaxRequests: maxRequests, TimeWindow: 60000, Shards: 4})
	require.NoError(t, err)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids := []string{"10.0.0.1", "key:" + string(rune('a'+i%26))}
			if i%2 == 0 {
				ids[0], ids[1] = ids[1], ids[0]
			}
			if r, err := limiter.CheckAndRecordAll(ids, 1000); err == nil && r.Allowed() {
				atomic.AddInt64(&allowed, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(maxRequests), allowed)
	assert.Equal(t, maxRequests, historyLen(limiter, "10.0.0.1"))
}

func TestSnapshotAndReset(t *testing.T) {
	limiter := newTestLimiter(t, 3, 1000)

	_, ok := limiter.Snapshot("A", 0)
	assert.False(t, ok)

	_, _ = limiter.CheckAndRecord("A", 100)
	_, _ = limiter.CheckAndRecord("A", 300)

	snapshot, ok := limiter.Snapshot("A", 500)
	require.True(t, ok)
	assert.Equal(t, "A", snapshot.ClientID)
	assert.Equal(t, 2, snapshot.Count)
	assert.Equal(t, 1, snapshot.Remaining)
	assert.Equal(t, int64(100), snapshot.Oldest)
	assert.Equal(t, int64(300), snapshot.Newest)
	assert.Equal(t, int64(600), snapshot.ResetAfter)

	// Snapshot 不清理过期记录
	snapshot, ok = limiter.Snapshot("A", 1200)
	require.True(t, ok)
	assert.Equal(t, 1, snapshot.Count)
	assert.Equal(t, 2, historyLen(limiter, "A"))

	assert.True(t, limiter.Reset("A"))
	assert.False(t, limiter.Reset("A"))
	assert.Equal(t, 0, limiter.Len())
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "rejected", Rejected.String())
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, int64(1), retryAfterSeconds(0))
	assert.Equal(t, int64(1), retryAfterSeconds(1))
	assert.Equal(t, int64(1), retryAfterSeconds(1000))
	assert.Equal(t, int64(2), retryAfterSeconds(1001))
	assert.Equal(t, int64(60), retryAfterSeconds(60000))
}

func BenchmarkCheckAndRecord(b *testing.B) {
	limiter, _ := NewSlidingWindowLimiter(&Config{MaxRequests: 100, TimeWindow: 60000, Shards: 32})
	clients := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			i++
			_, _ = limiter.CheckAndRecord(clients[i%int64(len(clients))], i)
		}
	})
}
