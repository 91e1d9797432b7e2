package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	myapp "github.com/ayxworxfr/wm_console/internal/app"
	"github.com/ayxworxfr/wm_console/internal/config"
	"github.com/ayxworxfr/wm_console/internal/cron"
	"github.com/ayxworxfr/wm_console/internal/gateway"
	"github.com/ayxworxfr/wm_console/internal/session"
	"github.com/ayxworxfr/wm_console/internal/store"
	"github.com/ayxworxfr/wm_console/internal/tui"
	"github.com/ayxworxfr/wm_console/pkg/httpclient"
	"github.com/ayxworxfr/wm_console/pkg/logger"
	"github.com/ayxworxfr/wm_console/pkg/utils"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

func main() {
	cfg := InitConfig()
	ctx := context.Background()
	// 初始化日志系统
	if err := InitLogger(cfg.Logger); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	st, cleanup, err := initConsole(ctx, cfg)
	if err != nil {
		logger.Errorf(ctx, "Failed to initialize console: %v", err)
		fmt.Fprintf(os.Stderr, "wm_console: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// TUI在前台运行，退出即程序结束
	if err := tui.Run(ctx, st); err != nil {
		logger.Errorf(ctx, "Console exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "wm_console: %v\n", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Console exiting")
}

// initConsole 组装会话存储、API网关、状态仓库和后台任务
func initConsole(ctx context.Context, cfg *config.Config) (*store.Store, func(), error) {
	tokens, err := session.NewStore(cfg.Storage.Dir, cfg.Storage.KeyFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Failed to initialize session store")
	}

	client := httpclient.NewClient(cfg.API.BaseURL,
		httpclient.WithTimeout(time.Duration(cfg.API.Timeout)*time.Second),
	)

	// 会话失效回调在store创建后才可用，这里延迟绑定
	var st *store.Store
	gw := gateway.New(client, tokens, gateway.WithAuthFailureHandler(func() {
		if st != nil {
			st.HandleSessionExpired()
		}
	}))
	st = store.New(gw)

	exits := &exitRegistry{}

	// 异步初始化，加快启动速度
	go func() {
		if err := initOpenTelemetry(ctx, cfg.OpenTelemetry, exits); err != nil {
			logger.Errorf(ctx, "Failed to initialize OpenTelemetry: %v", err)
		}
	}()

	if err := initTasks(gw, tokens, exits); err != nil {
		logger.Errorf(ctx, "Failed to initialize background tasks: %v", err)
	}

	return st, exits.RunAll, nil
}

// exitRegistry 退出钩子注册表
// OpenTelemetry在独立goroutine中初始化，注册与执行都需要加锁
type exitRegistry struct {
	mu    sync.Mutex
	hooks []func()
}

// Register 注册一个退出钩子
func (r *exitRegistry) Register(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// RunAll 按注册顺序执行全部钩子
func (r *exitRegistry) RunAll() {
	r.mu.Lock()
	hooks := append([]func(){}, r.hooks...)
	r.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

func initOpenTelemetry(ctx context.Context, cfg config.OpenTelemetryConfig, exits *exitRegistry) error {
	otelProvider, err := myapp.InitOpenTelemetry(cfg)
	if err != nil {
		return err
	}
	if cfg.Enable {
		exits.Register(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				logger.Errorf(ctx, "Failed to shutdown OpenTelemetry provider: %v", err)
			}
		})
	}
	return nil
}

func initTasks(gw *gateway.Gateway, tokens *session.Store, exits *exitRegistry) error {
	var result *multierror.Error

	if taskManager, err := cron.InitCronTask(gw, tokens); err != nil {
		result = multierror.Append(result, err)
	} else {
		exits.Register(taskManager.Stop)
	}

	return result.ErrorOrNil()
}

func InitConfig() *config.Config {
	// 加载配置
	configPath := utils.GetAbsPath("conf/config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}

func InitLogger(cfg config.LoggerConfig) error {
	// 初始化日志系统
	loggerConfig := logger.Config{
		LogFile:    cfg.LogFile,
		Level:      cfg.Level,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		Console:    cfg.Console,
	}
	logger.InitLogger(loggerConfig)
	return nil
}
