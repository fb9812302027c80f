package balance

import (
	"context"
	"sync/atomic"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// RRBalancer 实现轮询负载均衡算法
type RRBalancer struct {
	index uint64 // 当前选择索引，使用原子操作
}

// NewRRBalancer 创建新的轮询负载均衡器实例
func NewRRBalancer() LoadBalancer {
	return &RRBalancer{}
}

// Select 使用轮询算法选择上游服务
func (b *RRBalancer) Select(_ context.Context, upstreams []Upstream) (Upstream, error) {
	if len(upstreams) == 0 {
		return Upstream{}, ErrEmptyUpstreams
	}

	idx := atomic.AddUint64(&b.index, 1) - 1
	return upstreams[idx%uint64(len(upstreams))], nil
}

// Type 获取负载均衡器类型
func (b *RRBalancer) Type() string {
	return constants.BalanceRoundRobin
}
