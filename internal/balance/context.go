package balance

import "context"

type clientKeyType struct{}

// WithClientKey 将客户端标识写入上下文，供哈希类策略使用
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyType{}, key)
}

// ClientKey 从上下文读取客户端标识
func ClientKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(clientKeyType{}).(string)
	return key, ok
}
