package config

import (
	"os"
	"sync"

	"github.com/ayxworxfr/wm_console/pkg/cron"
	"gopkg.in/yaml.v3"
)

// Config 结构体用于存储所有配置
type Config struct {
	API           APIConfig           `yaml:"api"`
	Storage       StorageConfig       `yaml:"storage"`
	Logger        LoggerConfig        `yaml:"logger"`
	OpenTelemetry OpenTelemetryConfig `yaml:"opentelemetry"`
	Tasks         []cron.TaskConfig   `yaml:"tasks"`
}

// APIConfig 存储后端REST服务相关配置
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`        // 后端API根地址
	Timeout        int    `yaml:"timeout"`         // 请求超时时间（秒）
	RefreshWindow  string `yaml:"refresh_window"`  // 提前刷新令牌的时间窗口（如"2m"）
	HealthEndpoint string `yaml:"health_endpoint"` // 健康检查路径
}

// NewAPIConfig 创建一个带有默认值的 APIConfig
func NewAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:        "http://localhost:8000/api",
		Timeout:        30, // 与前端保持一致的30秒超时
		RefreshWindow:  "2m",
		HealthEndpoint: "/health/",
	}
}

// StorageConfig 存储本地会话持久化相关配置
type StorageConfig struct {
	Dir     string `yaml:"dir"`      // 会话文件目录，为空时使用 ~/.wm_console
	KeyFile string `yaml:"key_file"` // AES密钥文件名
}

// NewStorageConfig 创建一个带有默认值的 StorageConfig
func NewStorageConfig() StorageConfig {
	return StorageConfig{
		KeyFile: "session.key",
	}
}

// OpenTelemetryConfig 存储链路追踪相关配置
type OpenTelemetryConfig struct {
	Enable   bool    `yaml:"enable"`   // 是否启用
	Service  string  `yaml:"service"`  // 服务名称
	Endpoint string  `yaml:"endpoint"` // OTLP上报地址
	Protocol string  `yaml:"protocol"` // 上报协议：grpc或http/protobuf
	Sampling float64 `yaml:"sampling"` // 采样率（0.0-1.0）
	Timeout  int     `yaml:"timeout"`  // 批量导出超时（秒）
}

// NewOpenTelemetryConfig 创建一个带有默认值的 OpenTelemetryConfig
func NewOpenTelemetryConfig() OpenTelemetryConfig {
	return OpenTelemetryConfig{
		Enable:   false,
		Service:  "wm-console",
		Endpoint: "localhost:4317",
		Protocol: "grpc",
		Sampling: 0.1,
		Timeout:  3,
	}
}

// LoggerConfig 存储日志相关配置
type LoggerConfig struct {
	LogFile    string `yaml:"log_file"`
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

var (
	config *Config
	once   sync.Once
)

// Load 加载并解析 YAML 配置文件
func Load(filename string) (*Config, error) {
	var err error
	once.Do(func() {
		config = &Config{
			API:           NewAPIConfig(),
			Storage:       NewStorageConfig(),
			OpenTelemetry: NewOpenTelemetryConfig(),
		}
		err = loadFile(filename, config)

		// 优先使用环境变量的值
		if baseURL := os.Getenv("WM_API_BASE_URL"); baseURL != "" {
			config.API.BaseURL = baseURL
		}
		if dir := os.Getenv("WM_STORAGE_DIR"); dir != "" {
			config.Storage.Dir = dir
		}
		if instanceID := os.Getenv("INSTANCE_ID"); instanceID != "" {
			config.OpenTelemetry.Service = instanceID
		}
		if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
			config.OpenTelemetry.Endpoint = endpoint
		}
		if protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol != "" {
			config.OpenTelemetry.Protocol = protocol
		}
	})
	return config, err
}

// loadFile 读取并解析 YAML 文件
func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Get 返回已加载的配置
func Get() *Config {
	return config
}

func GetCronTasks() []cron.TaskConfig {
	if config != nil {
		return config.Tasks
	}

	return nil
}

func GetAPIBaseURL() string {
	if config != nil {
		return config.API.BaseURL
	}

	return ""
}
