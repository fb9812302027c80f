package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// New 根据配置创建统计记录器，未启用时返回空实现
// 启用时会在返回前检查 Redis 连通性
func New(cfg *config.StatsConfig) (Recorder, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoopRecorder(), nil
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("stats redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultStatsPingTimeout*time.Millisecond)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("stats redis ping failed: %w", err)
	}

	return NewRedisRecorder(rdb,
		WithPrefix(cfg.Prefix),
		WithTTL(time.Duration(cfg.TTL)*time.Millisecond),
		WithBucket(cfg.Bucket),
		WithTrackClients(cfg.TrackClients),
	), nil
}
