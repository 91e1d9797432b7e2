package tests

import (
	"fmt"
	"sync"

	"github.com/ayxworxfr/wm_console/internal/config"
	"github.com/ayxworxfr/wm_console/pkg/logger"
	"github.com/ayxworxfr/wm_console/pkg/utils"
)

var (
	once sync.Once
)

// 为测试环境加载配置并初始化日志
func init() {
	once.Do(func() {
		cfg := InitConfig()
		InitLogger(cfg.Logger)
	})
}

func InitConfig() *config.Config {
	// 加载配置
	configPath := utils.GetAbsPath("conf/config_test.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}

func InitLogger(cfg config.LoggerConfig) {
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
}
