package ratelimit

import (
	"errors"
	"fmt"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// 限流相关错误定义
var (
	ErrInvalidMaxRequests = errors.New(constants.ErrMsgInvalidMaxRequests)
	ErrInvalidTimeWindow  = errors.New(constants.ErrMsgInvalidTimeWindow)
	ErrInvalidShards      = errors.New(constants.ErrMsgInvalidShards)
	ErrInvalidMaxClients  = errors.New(constants.ErrMsgInvalidMaxClients)
	ErrInvalidClient      = errors.New(constants.ErrMsgInvalidClient)
	ErrInvalidPerSecond   = errors.New(constants.ErrMsgInvalidPerSecond)
	ErrInvalidBurst       = errors.New(constants.ErrMsgInvalidBurst)
)

// ConfigurationError 代表限流器构造参数错误
type ConfigurationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid rate limiter configuration %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
