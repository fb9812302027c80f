package balance

import (
	"fmt"

	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// New 根据配置创建对应的负载均衡器
func New(cfg *config.BalanceConfig) (LoadBalancer, error) {
	if cfg == nil {
		return nil, ErrNilBalanceConfig
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = constants.DefaultBalanceStrategy
	}

	switch strategy {
	case constants.BalanceRoundRobin:
		return NewRRBalancer(), nil
	case constants.BalanceWeightedRoundRobin:
		return NewWeightedRoundRobinBalancer(), nil
	case constants.BalanceIPHash:
		return NewIPHashBalancer(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}
}

// UpstreamsFromConfig 将上游配置转换为负载均衡使用的上游列表
func UpstreamsFromConfig(targets []config.TargetConfig) []Upstream {
	upstreams := make([]Upstream, 0, len(targets))
	for _, target := range targets {
		upstreams = append(upstreams, Upstream{
			Name:   target.Name,
			URL:    target.URL,
			Weight: target.Weight,
		})
	}
	return upstreams
}
