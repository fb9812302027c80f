package stats

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// maxSegmentLength 超过该长度的路径首段按通配处理
	maxSegmentLength = 32

	fieldAllowed = "allowed"
	fieldDenied  = "denied"

	// BucketMinute 按分钟聚合
	BucketMinute = "minute"
	// BucketNone 不做时间聚合
	BucketNone = "none"
)

// redisRecorder 将判定统计写入 Redis 哈希
//
// 键布局：
//
//	<prefix>:total                 累计 allowed/denied，不过期
//	<prefix>:minute:<yyyyMMddHHmm> 分钟桶，带 TTL
//	<prefix>:route                 "<METHOD> /<首段>:<field>" 计数，带 TTL
//	<prefix>:client:<id>           单客户端计数，带 TTL，仅在 trackClients 时写入
type redisRecorder struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	bucket       string
	trackClients bool
}

// RedisOption 代表 Redis 记录器的可选配置
type RedisOption func(*redisRecorder)

// WithPrefix 设置键前缀
func WithPrefix(prefix string) RedisOption {
	return func(r *redisRecorder) {
		if p := strings.Trim(prefix, ":"); p != "" {
			r.prefix = p
		}
	}
}

// WithTTL 设置分钟桶和客户端键的过期时间
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *redisRecorder) { r.ttl = ttl }
}

// WithBucket 设置时间聚合方式
func WithBucket(bucket string) RedisOption {
	return func(r *redisRecorder) {
		if b := strings.ToLower(strings.TrimSpace(bucket)); b != "" {
			r.bucket = b
		}
	}
}

// WithTrackClients 设置是否记录单客户端计数
func WithTrackClients(track bool) RedisOption {
	return func(r *redisRecorder) { r.trackClients = track }
}

// NewRedisRecorder 基于已有客户端创建 Redis 记录器
func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) Recorder {
	r := &redisRecorder{
		rdb:    rdb,
		prefix: "slidegate:stats",
		ttl:    24 * time.Hour,
		bucket: BucketMinute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record 在一个 pipeline 中写入所有计数
func (r *redisRecorder) Record(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := fieldDenied
	if ev.Allowed {
		field = fieldAllowed
	}

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.totalKey(), field, 1)

	if r.bucket == BucketMinute {
		bucketKey := r.minuteKey(at)
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if r.ttl > 0 {
			pipe.Expire(ctx, bucketKey, r.ttl)
		}
	}

	routeKey := r.prefix + ":route"
	pipe.HIncrBy(ctx, routeKey, normalizeRoute(ev.Method, ev.Path)+":"+field, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, routeKey, r.ttl)
	}

	if r.trackClients && ev.ClientID != "" {
		clientKey := r.prefix + ":client:" + ev.ClientID
		pipe.HIncrBy(ctx, clientKey, field, 1)
		if r.ttl > 0 {
			pipe.Expire(ctx, clientKey, r.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record stats: %w", err)
	}
	return nil
}

// Totals 读取累计计数
func (r *redisRecorder) Totals(ctx context.Context) (Totals, error) {
	values, err := r.rdb.HGetAll(ctx, r.totalKey()).Result()
	if err != nil {
		return Totals{}, fmt.Errorf("failed to read stats totals: %w", err)
	}

	var totals Totals
	if v, ok := values[fieldAllowed]; ok {
		totals.Allowed, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := values[fieldDenied]; ok {
		totals.Denied, _ = strconv.ParseInt(v, 10, 64)
	}
	return totals, nil
}

func (r *redisRecorder) Close() error {
	return r.rdb.Close()
}

func (r *redisRecorder) Type() string {
	return "redis"
}

func (r *redisRecorder) totalKey() string {
	return r.prefix + ":total"
}

func (r *redisRecorder) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
}

// normalizeRoute 将请求归并为有限的路由集合：标准方法加路径首段
//
// 路径由客户端决定，直接作为字段会让哈希无限增长。
func normalizeRoute(method, path string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions:
	default:
		method = "OTHER"
	}

	segment := strings.TrimLeft(strings.TrimSpace(path), "/")
	if idx := strings.IndexAny(segment, "/?#"); idx >= 0 {
		segment = segment[:idx]
	}
	if len(segment) > maxSegmentLength || !isRouteSegment(segment) {
		segment = "*"
	}
	return method + " /" + segment
}

func isRouteSegment(segment string) bool {
	for _, ch := range segment {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}
