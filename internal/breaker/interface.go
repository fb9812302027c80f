package breaker

import "github.com/sony/gobreaker"

// CircuitBreaker 代表熔断器接口
type CircuitBreaker interface {
	// Execute 执行受保护的操作
	Execute(req func() (interface{}, error)) (interface{}, error)

	// Name 获取熔断器名称
	Name() string

	// State 获取当前状态
	State() gobreaker.State
}

// StateObserver 在熔断器状态变化时被调用
type StateObserver func(name string, from, to gobreaker.State)
