package balance

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/buraksezer/consistent"
	"github.com/cespare/xxhash/v2"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// IPHashBalancer 基于客户端标识的一致性哈希负载均衡
// 相同客户端总是路由到同一个上游，上游增减时只有少量客户端被重新分配
type IPHashBalancer struct {
	mu        sync.Mutex
	ring      *consistent.Consistent
	upstreams map[string]Upstream
	fallback  uint64 // 无客户端标识时的轮询索引
}

// hasher 实现 consistent.Hasher 接口
type hasher struct{}

func (h hasher) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// member 实现 consistent.Member 接口
type member string

func (m member) String() string {
	return string(m)
}

// NewIPHashBalancer 创建新的一致性哈希负载均衡器实例
func NewIPHashBalancer() LoadBalancer {
	return &IPHashBalancer{
		upstreams: make(map[string]Upstream),
	}
}

// Select 根据上下文中的客户端标识选择上游，缺失时退化为轮询
func (b *IPHashBalancer) Select(ctx context.Context, upstreams []Upstream) (Upstream, error) {
	if len(upstreams) == 0 {
		return Upstream{}, ErrEmptyUpstreams
	}

	key, ok := ClientKey(ctx)
	if !ok || key == "" {
		idx := atomic.AddUint64(&b.fallback, 1) - 1
		return upstreams[idx%uint64(len(upstreams))], nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.syncRing(upstreams)

	if m := b.ring.LocateKey([]byte(key)); m != nil {
		if upstream, exists := b.upstreams[m.String()]; exists {
			return upstream, nil
		}
	}

	return Upstream{}, ErrNoAvailableUpstream
}

// syncRing 使哈希环的成员与 upstreams 一致
func (b *IPHashBalancer) syncRing(upstreams []Upstream) {
	if b.ring == nil {
		members := make([]consistent.Member, 0, len(upstreams))
		for _, upstream := range upstreams {
			members = append(members, member(upstream.Name))
		}
		b.ring = consistent.New(members, consistent.Config{
			PartitionCount:    271,
			ReplicationFactor: 20,
			Load:              1.25,
			Hasher:            hasher{},
		})
	} else {
		seen := make(map[string]bool, len(upstreams))
		for _, upstream := range upstreams {
			seen[upstream.Name] = true
			if _, exists := b.upstreams[upstream.Name]; !exists {
				b.ring.Add(member(upstream.Name))
			}
		}
		for name := range b.upstreams {
			if !seen[name] {
				b.ring.Remove(name)
			}
		}
	}

	b.upstreams = make(map[string]Upstream, len(upstreams))
	for _, upstream := range upstreams {
		b.upstreams[upstream.Name] = upstream
	}
}

// Type 获取负载均衡器类型
func (b *IPHashBalancer) Type() string {
	return constants.BalanceIPHash
}
