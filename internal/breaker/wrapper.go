package breaker

import "github.com/sony/gobreaker"

// circuitBreakerWrapper 包装sony/gobreaker的实现
type circuitBreakerWrapper struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker 创建新的熔断器实例
func NewCircuitBreaker(settings gobreaker.Settings) CircuitBreaker {
	return &circuitBreakerWrapper{
		cb: gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute 执行受保护的操作
func (w *circuitBreakerWrapper) Execute(req func() (interface{}, error)) (interface{}, error) {
	return w.cb.Execute(req)
}

// Name 获取熔断器名称
func (w *circuitBreakerWrapper) Name() string {
	return w.cb.Name()
}

// State 获取当前状态
func (w *circuitBreakerWrapper) State() gobreaker.State {
	return w.cb.State()
}

// StateValue 将状态转换为指标值（0=关闭, 1=半开, 2=开启）
func StateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// IsOpenError 判断错误是否由熔断器拒绝产生
func IsOpenError(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}
