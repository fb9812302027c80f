package balance

import (
	"context"
	"sync"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// weightedRoundRobinBalancer 实现平滑加权轮询负载均衡算法
type weightedRoundRobinBalancer struct {
	mu      sync.Mutex
	current map[string]int // 每个上游的当前权重
}

// NewWeightedRoundRobinBalancer 创建新的加权轮询负载均衡器实例
func NewWeightedRoundRobinBalancer() LoadBalancer {
	return &weightedRoundRobinBalancer{
		current: make(map[string]int),
	}
}

// Select 每次为所有上游加上各自权重，选中当前权重最大者后减去总权重
func (b *weightedRoundRobinBalancer) Select(_ context.Context, upstreams []Upstream) (Upstream, error) {
	if len(upstreams) == 0 {
		return Upstream{}, ErrEmptyUpstreams
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var total int
	var selected Upstream
	best := 0
	found := false

	for _, upstream := range upstreams {
		weight := upstream.Weight
		if weight <= 0 {
			weight = constants.DefaultWeight
		}
		total += weight

		b.current[upstream.Name] += weight
		if !found || b.current[upstream.Name] > best {
			best = b.current[upstream.Name]
			selected = upstream
			found = true
		}
	}

	b.current[selected.Name] -= total
	return selected, nil
}

// Type 获取负载均衡器类型
func (b *weightedRoundRobinBalancer) Type() string {
	return constants.BalanceWeightedRoundRobin
}
