package auth

import (
	"net/http"
	"strings"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// bearerAuthenticator 使用固定的 Bearer Token
type bearerAuthenticator struct {
	value string // 完整的头部值
}

// NewBearerAuthenticator 创建新的 Bearer Token 认证器
func NewBearerAuthenticator(token string) (Authenticator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	return &bearerAuthenticator{value: constants.BearerPrefix + token}, nil
}

func (a *bearerAuthenticator) Apply(req *http.Request) {
	req.Header.Set(constants.HeaderAuthorization, a.value)
}

func (a *bearerAuthenticator) Type() string {
	return constants.AuthTypeBearer
}

// basicAuthenticator 使用固定的用户名和密码
type basicAuthenticator struct {
	username string
	password string
}

// NewBasicAuthenticator 创建新的 Basic Auth 认证器
func NewBasicAuthenticator(username, password string) (Authenticator, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return &basicAuthenticator{username: strings.TrimSpace(username), password: password}, nil
}

func (a *basicAuthenticator) Apply(req *http.Request) {
	req.SetBasicAuth(a.username, a.password)
}

func (a *basicAuthenticator) Type() string {
	return constants.AuthTypeBasic
}
