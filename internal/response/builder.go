// Package response 提供基于httptool.BaseHttpResponse的统一HTTP响应格式
//
// 基本用法：
//
//	// 成功响应
//	response.Success(data).JSON(c, http.StatusOK)
//
//	// 错误响应
//	response.Error(CodeBadRequest, "参数错误").WithDetail(details).JSON(c, http.StatusBadRequest)
//
//	// 分类错误响应，状态码由 apperr.Kind 决定
//	response.Failure(c, err)
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shengyanli1982/slidegate/internal/apperr"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/toolkit/pkg/httptool"
)

// 响应代码常量定义
const (
	// CodeSuccess 表示操作成功
	CodeSuccess = 0

	// 1000-1999: 客户端错误
	CodeBadRequest    = 1000 // 请求参数错误
	CodeNotFound      = 1003 // 资源未找到
	CodeRateLimit     = 1004 // 请求频率限制
	CodeInvalidClient = 1005 // 无法识别客户端

	// 2000-2999: 服务器错误
	CodeInternalError      = 2000 // 服务器内部错误
	CodeBadGateway         = 2001 // 网关错误
	CodeServiceUnavailable = 2002 // 服务不可用
)

// ResponseBuilder 是基于httptool.BaseHttpResponse的统一响应构建器
type ResponseBuilder struct {
	response *httptool.BaseHttpResponse
}

// Success 创建成功响应构建器
func Success(data interface{}) *ResponseBuilder {
	return &ResponseBuilder{
		response: &httptool.BaseHttpResponse{
			Code: CodeSuccess,
			Data: data,
		},
	}
}

// Error 创建错误响应构建器
func Error(code int64, message string) *ResponseBuilder {
	return &ResponseBuilder{
		response: &httptool.BaseHttpResponse{
			Code:         code,
			ErrorMessage: message,
		},
	}
}

// WithDetail 添加错误详细信息，支持链式调用
func (r *ResponseBuilder) WithDetail(detail interface{}) *ResponseBuilder {
	r.response.ErrorDetail = detail
	return r
}

// JSON 将响应输出为JSON格式到gin.Context
func (r *ResponseBuilder) JSON(c *gin.Context, httpStatus int) {
	c.JSON(httpStatus, r.response)
}

// AbortJSON 输出响应并终止后续处理器
func (r *ResponseBuilder) AbortJSON(c *gin.Context, httpStatus int) {
	c.AbortWithStatusJSON(httpStatus, r.response)
}

// OK 返回标准的成功响应（HTTP 200）
func OK(c *gin.Context, data interface{}) {
	Success(data).JSON(c, http.StatusOK)
}

// NotFound 返回资源未找到错误响应（HTTP 404）
func NotFound(c *gin.Context, message string) {
	Error(CodeNotFound, message).JSON(c, http.StatusNotFound)
}

// TooManyRequests 返回请求过多错误响应（HTTP 429）并终止请求
func TooManyRequests(c *gin.Context, message string) {
	Failure(c, apperr.New(apperr.KindRejected, message))
}

// Failure 按错误分类输出错误响应并终止请求，内部原因不会写入响应体
func Failure(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	detail := map[string]interface{}{
		"error":     http.StatusText(status),
		"timestamp": time.Now().Unix(),
	}

	Error(codeFor(kind), apperr.MessageOf(err, defaultMessage(kind))).
		WithDetail(detail).
		AbortJSON(c, status)
}

func codeFor(kind apperr.Kind) int64 {
	switch kind {
	case apperr.KindRejected:
		return CodeRateLimit
	case apperr.KindInvalid:
		return CodeInvalidClient
	case apperr.KindUnavailable:
		return CodeServiceUnavailable
	case apperr.KindBadGateway:
		return CodeBadGateway
	default:
		return CodeInternalError
	}
}

func defaultMessage(kind apperr.Kind) string {
	switch kind {
	case apperr.KindRejected:
		return constants.MsgTooManyRequests
	case apperr.KindInvalid:
		return constants.MsgInvalidClient
	case apperr.KindUnavailable:
		return constants.MsgUpstreamUnavailable
	case apperr.KindBadGateway:
		return constants.MsgBadGateway
	default:
		return constants.MsgInternalError
	}
}
