package balance

import (
	"context"
	"errors"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// 负载均衡相关错误定义
var (
	ErrNoAvailableUpstream = errors.New(constants.ErrMsgNoAvailableUpstream)
	ErrUnknownStrategy     = errors.New(constants.ErrMsgUnknownStrategy)
	ErrEmptyUpstreams      = errors.New(constants.ErrMsgEmptyTargets)
	ErrNilBalanceConfig    = errors.New(constants.ErrMsgNilBalanceConfig)
)

// Upstream 代表一个上游服务实例
type Upstream struct {
	Name   string // 上游服务名称
	URL    string // 上游服务 URL
	Weight int    // 权重（用于加权轮询）
}

// LoadBalancer 代表负载均衡器接口，定义选择上游服务的行为
type LoadBalancer interface {
	// Select 根据负载均衡策略选择一个上游服务
	// ctx: 上下文信息，iphash 策略从中读取客户端标识
	// upstreams: 可用的上游服务列表
	Select(ctx context.Context, upstreams []Upstream) (Upstream, error)

	// Type 获取负载均衡器类型
	Type() string
}
