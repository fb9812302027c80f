// Package headers 对转发到上游的请求执行头部改写
package headers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// 头部改写相关错误定义
var (
	ErrInvalidOperation = errors.New("invalid header operation")
	ErrEmptyHeaderKey   = errors.New("header key cannot be empty")
)

// rule 是一条已校验的改写规则
type rule struct {
	op    string
	key   string
	value string
}

// Rules 代表按配置顺序执行的头部改写规则
type Rules []rule

// Compile 校验并编译头部改写配置
func Compile(ops []config.HeaderOpConfig) (Rules, error) {
	rules := make(Rules, 0, len(ops))
	for i, op := range ops {
		key := http.CanonicalHeaderKey(strings.TrimSpace(op.Key))
		if key == "" {
			return nil, fmt.Errorf("header rule %d: %w", i, ErrEmptyHeaderKey)
		}

		name := strings.ToLower(strings.TrimSpace(op.Op))
		switch name {
		case constants.HeaderOpInsert, constants.HeaderOpReplace, constants.HeaderOpRemove:
		default:
			return nil, fmt.Errorf("header rule %d: %w: %s", i, ErrInvalidOperation, op.Op)
		}

		rules = append(rules, rule{op: name, key: key, value: op.Value})
	}
	return rules, nil
}

// Apply 依次对头部执行改写
func (r Rules) Apply(h http.Header) {
	for _, rule := range r {
		switch rule.op {
		case constants.HeaderOpInsert:
			// 已存在时保留原值
			if h.Get(rule.key) == "" {
				h.Set(rule.key, rule.value)
			}
		case constants.HeaderOpReplace:
			h.Set(rule.key, rule.value)
		case constants.HeaderOpRemove:
			h.Del(rule.key)
		}
	}
}
