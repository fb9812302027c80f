package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/shengyanli1982/gs"
	"github.com/shengyanli1982/law"
	"github.com/shengyanli1982/orbit/utils/log"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/server"
	"github.com/shengyanli1982/slidegate/internal/stats"
)

// Version 通过 ldflags 在编译时设置
var Version = constants.DefaultVersion

const asciiLogo = `
███████╗██╗     ██╗██████╗ ███████╗ ██████╗  █████╗ ████████╗███████╗
██╔════╝██║     ██║██╔══██╗██╔════╝██╔════╝ ██╔══██╗╚══██╔══╝██╔════╝
███████╗██║     ██║██║  ██║█████╗  ██║  ███╗███████║   ██║   █████╗
╚════██║██║     ██║██║  ██║██╔══╝  ██║   ██║██╔══██║   ██║   ██╔══╝
███████║███████╗██║██████╔╝███████╗╚██████╔╝██║  ██║   ██║   ███████╗
╚══════╝╚══════╝╚═╝╚═════╝ ╚══════╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚══════╝
	`

// ServiceContext 服务上下文结构体，用于管理服务所需的所有组件
type ServiceContext struct {
	logger      *logr.Logger             // 日志记录器
	asyncWriter *law.WriteAsyncer        // 异步写入器
	config      *config.Config           // 服务配置
	configMgr   *config.Manager          // 配置管理器
	recorder    stats.Recorder           // 限流统计记录器
	registry    *metrics.MetricsRegistry // 指标注册器
	server      *server.Server           // 网关与管理服务器
}

// isReleaseMode 判断是否为发布模式
func isReleaseMode(releaseMode bool) bool {
	return releaseMode || gin.Mode() == gin.ReleaseMode
}

// initLogger 初始化日志系统
// releaseMode: 是否为发布模式
// jsonOutput: 是否输出 JSON 格式日志
func initLogger(releaseMode, jsonOutput bool) (*logr.Logger, *law.WriteAsyncer) {
	if isReleaseMode(releaseMode) {
		asyncWriter := law.NewWriteAsyncer(os.Stdout, law.DefaultConfig())
		if jsonOutput {
			return log.NewZapLogger(zapcore.AddSync(asyncWriter)).GetLogrLogger(), asyncWriter
		}
		return log.NewLogrLogger(asyncWriter).GetLogrLogger(), asyncWriter
	}

	// 开发模式直接使用标准输出
	return log.NewLogrLogger(os.Stdout).GetLogrLogger(), nil
}

// initConfig 加载 .env 文件和配置文件
// envFile: 环境变量文件路径，不存在时忽略
// configPath: 配置文件路径
func initConfig(envFile, configPath string) (*config.Manager, *config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, fmt.Errorf("failed to load env file: %w", err)
	}

	configManager, err := config.NewManager()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create configuration manager: %w", err)
	}
	if err := configManager.LoadFromFile(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return configManager, configManager.GetConfig(), nil
}

// setupGracefulShutdown 设置优雅关闭机制
func setupGracefulShutdown(ctx *ServiceContext) {
	// 先停止服务器，再关闭统计连接
	serverSignal := gs.NewTerminateSignal()
	serverSignal.RegisterCancelHandles(ctx.server.Stop, ctx.closeRecorder)

	writerSignal := gs.NewTerminateSignal()
	if ctx.asyncWriter != nil {
		writerSignal.RegisterCancelHandles(ctx.asyncWriter.Stop)
	}

	gs.WaitForSync(serverSignal, writerSignal)
}

// closeRecorder 关闭统计记录器
func (ctx *ServiceContext) closeRecorder() {
	if err := ctx.recorder.Close(); err != nil {
		ctx.logger.Error(err, "Failed to close stats recorder")
	}
}

func main() {
	var (
		configPath  string
		envFile     string
		releaseMode bool
		jsonOutput  bool
	)

	cmd := cobra.Command{
		Use:     "slidegate",
		Version: Version,
		Short:   "SlideGate is a sliding-window rate limiting gateway",
		Long: `SlideGate is an HTTP gateway that applies a per-client sliding-window
rate limit before forwarding requests to an upstream group.

Core Features:
- Per-client sliding-window log limiter (maxRequests per timeWindow)
- HTTP 429 with Retry-After when the limit is exceeded
- Background sweeping of idle clients with a tracked-client bound
- Load balancing, circuit breaking and throttling of upstream targets
- Rate limit decision statistics in Redis
- Prometheus metrics and an admin API
- Graceful shutdown support
- JSON/Plain log output support

Author: shengyanli1982`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := &ServiceContext{}
			ctx.logger, ctx.asyncWriter = initLogger(releaseMode, jsonOutput)

			var err error
			ctx.configMgr, ctx.config, err = initConfig(envFile, configPath)
			if err != nil {
				ctx.logger.Error(err, "Failed to load service configuration")
				return err
			}
			ctx.logger.Info("Configuration loaded successfully", "path", ctx.configMgr.GetConfigPath())

			ctx.recorder, err = stats.New(&ctx.config.Stats)
			if err != nil {
				ctx.logger.Error(err, "Failed to create stats recorder")
				return err
			}
			ctx.logger.Info("Stats recorder ready", "type", ctx.recorder.Type())

			ctx.registry = metrics.NewRuntimeRegistry()
			ctx.server, err = server.NewServer(!isReleaseMode(releaseMode), ctx.logger, ctx.config, ctx.registry, ctx.recorder)
			if err != nil {
				ctx.closeRecorder()
				ctx.logger.Error(err, "Failed to create servers")
				return err
			}

			fmt.Println(asciiLogo)

			ctx.server.Start()
			ctx.logger.Info("SlideGate started successfully",
				"maxRequests", ctx.config.Gateway.RateLimit.GetMaxRequests(),
				"timeWindow", ctx.config.Gateway.RateLimit.GetTimeWindow())

			setupGracefulShutdown(ctx)

			ctx.logger.Info("SlideGate stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, constants.FlagConfig, constants.FlagConfigShort, constants.DefaultConfigPath, "Path to configuration file")
	cmd.Flags().StringVarP(&envFile, constants.FlagEnvFile, constants.FlagEnvFileShort, constants.DefaultEnvFile, "Path to .env file with SLIDEGATE_* overrides (ignored when missing)")
	cmd.Flags().BoolVarP(&jsonOutput, constants.FlagJSON, constants.FlagJSONShort, false, "Enable JSON format logging output (only effective in release mode)")
	cmd.Flags().BoolVarP(&releaseMode, constants.FlagRelease, constants.FlagReleaseShort, false, "Enable release mode for performance optimizations and async logging")

	if err := cmd.Execute(); err != nil {
		fmt.Printf("Failed to execute command: %v\n", err)
		os.Exit(constants.ExitFailure)
	}
}
