// Package apperr 定义 HTTP 边界使用的错误分类
//
// 每种 Kind 对应一个 HTTP 状态码和日志级别：
//   - KindRejected: 预期内的业务拒绝（限流、上游限流），返回 429，V(1) 级别日志
//   - KindInvalid: 请求不合法（无法识别客户端），返回 400
//   - KindUnavailable: 上游不可用（熔断器开启、无可用上游），返回 503
//   - KindBadGateway: 上游连接或传输失败，返回 502
//   - KindFault: 未预期的内部错误，返回 500，Error 级别日志
package apperr

import (
	"errors"
	"net/http"
)

// Kind 代表错误分类
type Kind uint8

const (
	KindFault Kind = iota
	KindRejected
	KindInvalid
	KindUnavailable
	KindBadGateway
)

// String 返回错误分类名称
func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindInvalid:
		return "invalid"
	case KindUnavailable:
		return "unavailable"
	case KindBadGateway:
		return "bad_gateway"
	default:
		return "fault"
	}
}

// HTTPStatus 返回错误分类对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindRejected:
		return http.StatusTooManyRequests
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Expected 返回该分类是否属于预期内的结果，预期内的结果只以调试级别记录
func (k Kind) Expected() bool {
	return k == KindRejected || k == KindInvalid
}

// Error 代表带分类的错误
type Error struct {
	Kind    Kind
	Message string // 面向客户端的消息
	Err     error  // 内部原因，不会返回给客户端
}

// New 创建不带内部原因的分类错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 创建带内部原因的分类错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 返回错误链中第一个分类错误的 Kind，没有分类时视为 KindFault
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindFault
}

// MessageOf 返回错误链中第一个分类错误的客户端消息，没有分类时返回 fallback
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
