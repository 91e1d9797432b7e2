package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	LogFile    string // 日志文件路径，为空时仅输出到控制台
	Level      string // 日志级别：debug/info/warn/error
	MaxSize    int    // 单个日志文件最大尺寸（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 日志文件保留天数
	Compress   bool   // 是否压缩旧日志
	Console    bool   // 是否同时输出到控制台
}

var (
	instance *zap.Logger
	mu       sync.RWMutex
)

func init() {
	// 未初始化时的兜底logger，避免空指针
	instance, _ = zap.NewProduction()
}

// InitLogger 初始化全局日志实例
func InitLogger(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var cores []zapcore.Core
	if cfg.LogFile != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
	}
	if cfg.Console || cfg.LogFile == "" {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level))
	}

	instance = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

// Sync 刷新缓冲日志
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = instance.Sync()
}

// withTrace 从上下文中提取trace信息追加为日志字段
func withTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return fields
}

func log(ctx context.Context, level zapcore.Level, msg string, fields ...zap.Field) {
	mu.RLock()
	l := instance
	mu.RUnlock()

	if ce := l.Check(level, msg); ce != nil {
		ce.Write(withTrace(ctx, fields)...)
	}
}

// Debug 输出Debug级别日志
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	log(ctx, zapcore.DebugLevel, msg, fields...)
}

// Info 输出Info级别日志
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	log(ctx, zapcore.InfoLevel, msg, fields...)
}

// Warn 输出Warn级别日志
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	log(ctx, zapcore.WarnLevel, msg, fields...)
}

// Error 输出Error级别日志
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	log(ctx, zapcore.ErrorLevel, msg, fields...)
}

// Debugf 格式化输出Debug级别日志
func Debugf(ctx context.Context, format string, args ...any) {
	log(ctx, zapcore.DebugLevel, fmt.Sprintf(format, args...))
}

// Infof 格式化输出Info级别日志
func Infof(ctx context.Context, format string, args ...any) {
	log(ctx, zapcore.InfoLevel, fmt.Sprintf(format, args...))
}

// Warnf 格式化输出Warn级别日志
func Warnf(ctx context.Context, format string, args ...any) {
	log(ctx, zapcore.WarnLevel, fmt.Sprintf(format, args...))
}

// Errorf 格式化输出Error级别日志
func Errorf(ctx context.Context, format string, args ...any) {
	log(ctx, zapcore.ErrorLevel, fmt.Sprintf(format, args...))
}

// Fatalf 格式化输出Fatal级别日志并退出进程
func Fatalf(ctx context.Context, format string, args ...any) {
	mu.RLock()
	l := instance
	mu.RUnlock()
	l.Fatal(fmt.Sprintf(format, args...), withTrace(ctx, nil)...)
}
