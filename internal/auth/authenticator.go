// Package auth 为转发到上游的请求附加认证信息
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// 认证相关错误定义
var (
	ErrEmptyToken      = errors.New("bearer token cannot be empty")
	ErrEmptyUsername   = errors.New("username cannot be empty")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrInvalidAuthType = errors.New("invalid auth type")
)

// Authenticator 代表上游认证器，在请求发出前改写认证头部
type Authenticator interface {
	// Apply 将认证信息写入出站请求，客户端自带的 Authorization 会被覆盖
	Apply(req *http.Request)

	// Type 获取认证器类型
	Type() string
}

// New 根据配置创建认证器，未配置时返回不附加认证的实现
func New(cfg *config.AuthConfig) (Authenticator, error) {
	if cfg == nil {
		return none{}, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", constants.AuthTypeNone:
		return none{}, nil
	case constants.AuthTypeBearer:
		return NewBearerAuthenticator(cfg.Token)
	case constants.AuthTypeBasic:
		return NewBasicAuthenticator(cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAuthType, cfg.Type)
	}
}

type none struct{}

func (none) Apply(*http.Request) {}

func (none) Type() string { return constants.AuthTypeNone }
