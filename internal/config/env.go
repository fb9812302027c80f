package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// LoadEnvFile 加载 .env 文件到进程环境变量，文件不存在时忽略
// 已存在的环境变量不会被覆盖
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides 使用环境变量覆盖配置项
func ApplyEnvOverrides(config *Config) error {
	if v, ok := os.LookupEnv(constants.EnvGatewayPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvGatewayPort, err)
		}
		config.Gateway.Port = port
	}

	if v, ok := os.LookupEnv(constants.EnvMaxRequests); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvMaxRequests, err)
		}
		ensureRateLimit(config).MaxRequests = &n
	}

	if v, ok := os.LookupEnv(constants.EnvTimeWindow); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvTimeWindow, err)
		}
		ensureRateLimit(config).TimeWindow = &n
	}

	if v, ok := os.LookupEnv(constants.EnvRedisAddress); ok && v != "" {
		config.Stats.Address = v
	}

	if v, ok := os.LookupEnv(constants.EnvRedisPassword); ok && v != "" {
		config.Stats.Password = v
	}

	return nil
}

func ensureRateLimit(config *Config) *RateLimitConfig {
	if config.Gateway.RateLimit == nil {
		config.Gateway.RateLimit = &RateLimitConfig{}
	}
	return config.Gateway.RateLimit
}
