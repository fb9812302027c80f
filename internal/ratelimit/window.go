package ratelimit

import (
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// SlidingWindowLimiter 基于滑动窗口日志算法的限流器
//
// 每个客户端保存窗口内被放行请求的时间戳，窗口为半开区间 (now-TimeWindow, now]。
// 过期时间戳在下一次访问该客户端时清理，Sweep 负责回收长期不活跃的客户端。
type SlidingWindowLimiter struct {
	maxRequests int
	timeWindow  int64
	maxClients  int
	shards      []*shard
}

// NewSlidingWindowLimiter 创建新的滑动窗口限流器实例
func NewSlidingWindowLimiter(cfg *Config) (*SlidingWindowLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxRequests <= 0 {
		return nil, &ConfigurationError{Field: "maxRequests", Value: cfg.MaxRequests, Err: ErrInvalidMaxRequests}
	}
	if cfg.TimeWindow <= 0 {
		return nil, &ConfigurationError{Field: "timeWindow", Value: cfg.TimeWindow, Err: ErrInvalidTimeWindow}
	}
	if cfg.Shards < 0 || cfg.Shards > constants.MaxShards {
		return nil, &ConfigurationError{Field: "shards", Value: cfg.Shards, Err: ErrInvalidShards}
	}
	if cfg.MaxClients < 0 {
		return nil, &ConfigurationError{Field: "maxClients", Value: cfg.MaxClients, Err: ErrInvalidMaxClients}
	}

	count := cfg.Shards
	if count == 0 {
		count = constants.DefaultShards
	}

	shards := make([]*shard, count)
	for i := range shards {
		shards[i] = newShard()
	}

	return &SlidingWindowLimiter{
		maxRequests: cfg.MaxRequests,
		timeWindow:  cfg.TimeWindow,
		maxClients:  cfg.MaxClients,
		shards:      shards,
	}, nil
}

// MaxRequests 返回窗口内允许的最大请求数
func (l *SlidingWindowLimiter) MaxRequests() int {
	return l.maxRequests
}

// TimeWindow 返回窗口长度（毫秒）
func (l *SlidingWindowLimiter) TimeWindow() int64 {
	return l.timeWindow
}

// MaxClients 返回最多跟踪的客户端数，0 表示不限制
func (l *SlidingWindowLimiter) MaxClients() int {
	return l.maxClients
}

func (l *SlidingWindowLimiter) shardIndex(clientID string) int {
	return int(xxhash.Sum64String(clientID) % uint64(len(l.shards)))
}

func (l *SlidingWindowLimiter) shardFor(clientID string) *shard {
	return l.shards[l.shardIndex(clientID)]
}

// CheckAndRecord 判定 clientID 在 now 时刻的请求是否允许
//
// 过期时间戳总是被清理并写回；被拒绝的请求不会被记录。
func (l *SlidingWindowLimiter) CheckAndRecord(clientID string, now int64) (Result, error) {
	if clientID == "" {
		return Result{}, ErrInvalidClient
	}

	s := l.shardFor(clientID)
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.clients[clientID]
	if !ok {
		window = &clientWindow{timestamps: make([]int64, 0, min(l.maxRequests, 16))}
		s.clients[clientID] = window
	}
	window.lastSeen = now

	kept, oldest := retain(window.timestamps, now, l.timeWindow)
	window.timestamps = kept

	if len(kept) >= l.maxRequests {
		return Result{
			Decision:   Rejected,
			Remaining:  0,
			RetryAfter: l.timeWindow - (now - oldest),
		}, nil
	}

	window.timestamps = append(kept, now)
	return Result{
		Decision:  Allowed,
		Remaining: l.maxRequests - len(window.timestamps),
	}, nil
}

// CheckAndRecordAll 对同一请求的多个标识一起判定
//
// 任一标识达到上限即拒绝，且所有标识都不记录本次请求；全部允许时每个标识各记录一次。
// 涉及的分片按下标顺序加锁，判定与记录对每个标识都是原子的。
func (l *SlidingWindowLimiter) CheckAndRecordAll(clientIDs []string, now int64) (Result, error) {
	if len(clientIDs) == 0 {
		return Result{}, ErrInvalidClient
	}
	ids := make([]string, 0, len(clientIDs))
	for _, id := range clientIDs {
		if id == "" {
			return Result{}, ErrInvalidClient
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 1 {
		return l.CheckAndRecord(ids[0], now)
	}

	indexes := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		idx := l.shardIndex(id)
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		l.shards[idx].mu.Lock()
	}
	defer func() {
		for _, idx := range indexes {
			l.shards[idx].mu.Unlock()
		}
	}()

	windows := make([]*clientWindow, 0, len(ids))
	result := Result{Decision: Allowed, Remaining: l.maxRequests}
	for _, id := range ids {
		s := l.shards[l.shardIndex(id)]
		window, ok := s.clients[id]
		if !ok {
			window = &clientWindow{timestamps: make([]int64, 0, min(l.maxRequests, 16))}
			s.clients[id] = window
		}
		window.lastSeen = now

		kept, oldest := retain(window.timestamps, now, l.timeWindow)
		window.timestamps = kept
		windows = append(windows, window)

		if len(kept) >= l.maxRequests {
			result.Decision = Rejected
			result.Remaining = 0
			result.RetryAfter = max(result.RetryAfter, l.timeWindow-(now-oldest))
		}
	}

	if !result.Allowed() {
		return result, nil
	}

	for _, window := range windows {
		window.timestamps = append(window.timestamps, now)
		result.Remaining = min(result.Remaining, l.maxRequests-len(window.timestamps))
	}
	return result, nil
}

// Snapshot 返回 clientID 当前窗口的只读视图
func (l *SlidingWindowLimiter) Snapshot(clientID string, now int64) (WindowSnapshot, bool) {
	if clientID == "" {
		return WindowSnapshot{}, false
	}

	s := l.shardFor(clientID)
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.clients[clientID]
	if !ok {
		return WindowSnapshot{}, false
	}

	count, oldest, newest := countRetained(window.timestamps, now, l.timeWindow)
	snapshot := WindowSnapshot{
		ClientID:  clientID,
		Count:     count,
		Remaining: max(l.maxRequests-count, 0),
		Oldest:    oldest,
		Newest:    newest,
	}
	if count > 0 {
		snapshot.ResetAfter = l.timeWindow - (now - oldest)
	}
	return snapshot, true
}

// Reset 清除 clientID 的窗口记录，返回该客户端此前是否存在
func (l *SlidingWindowLimiter) Reset(clientID string) bool {
	s := l.shardFor(clientID)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.clients[clientID]
	delete(s.clients, clientID)
	return ok
}

// Len 返回当前跟踪的客户端数量
func (l *SlidingWindowLimiter) Len() int {
	total := 0
	for _, s := range l.shards {
		s.mu.Lock()
		total += len(s.clients)
		s.mu.Unlock()
	}
	return total
}

// evictionCandidate 是容量清理时的候选客户端
type evictionCandidate struct {
	shard    *shard
	clientID string
	lastSeen int64
}

// Sweep 移除窗口已完全过期的客户端，随后在超出 MaxClients 时按最久未访问的顺序淘汰
func (l *SlidingWindowLimiter) Sweep(now int64) SweepStats {
	var stats SweepStats
	var candidates []evictionCandidate

	for _, s := range l.shards {
		s.mu.Lock()
		for clientID, window := range s.clients {
			if len(window.timestamps) == 0 || now-window.newest() >= l.timeWindow {
				delete(s.clients, clientID)
				stats.Expired++
				continue
			}
			if l.maxClients > 0 {
				candidates = append(candidates, evictionCandidate{shard: s, clientID: clientID, lastSeen: window.lastSeen})
			}
		}
		stats.Remaining += len(s.clients)
		s.mu.Unlock()
	}

	if l.maxClients == 0 || stats.Remaining <= l.maxClients {
		return stats
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastSeen < candidates[j].lastSeen
	})

	excess := stats.Remaining - l.maxClients
	for _, candidate := range candidates {
		if excess == 0 {
			break
		}
		s := candidate.shard
		s.mu.Lock()
		// 客户端在收集候选之后被访问过则跳过
		if window, ok := s.clients[candidate.clientID]; ok && window.lastSeen == candidate.lastSeen {
			delete(s.clients, candidate.clientID)
			stats.Evicted++
			stats.Remaining--
			excess--
		}
		s.mu.Unlock()
	}

	return stats
}
