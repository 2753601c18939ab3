package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L 是全局 logger 实例。
	L *zap.SugaredLogger
	// Z 是全局 zap.Logger 实例（用于需要性能的场景）。
	Z *zap.Logger
)

func init() {
	// 默认输出到 stderr，info 级别。库在未显式 Init 时也能正常打日志。
	Z = newConsoleLogger(os.Stderr, zapcore.InfoLevel)
	L = Z.Sugar()
}

// Config 日志配置。
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	File       string // 日志文件路径，为空则只输出到 stderr
	MaxSize    int    // 单个日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件最大数量
	MaxAge     int    // 保留旧日志文件的最大天数
}

// Init 根据配置初始化全局 logger。
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}

		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    defaultInt(cfg.MaxSize, 32),   // MB
			MaxBackups: defaultInt(cfg.MaxBackups, 3), // 保留旧文件数量
			MaxAge:     defaultInt(cfg.MaxAge, 14),    // 保留天数
			Compress:   true,
		}
		output = io.MultiWriter(os.Stderr, rotated)
	}

	Z = newConsoleLogger(output, level)
	L = Z.Sugar()
	return nil
}

// Sync 刷新缓冲区，应在程序退出前调用。
func Sync() {
	if Z != nil {
		_ = Z.Sync()
	}
}

func newConsoleLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core, zap.AddCallerSkip(1))
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("不支持的日志级别: %s", s)
	}
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Debug 记录调试级别日志。
func Debug(msg string) { L.Debug(msg) }

// Debugf 记录格式化调试级别日志。
func Debugf(template string, args ...interface{}) { L.Debugf(template, args...) }

// Info 记录信息级别日志。
func Info(msg string) { L.Info(msg) }

// Infof 记录格式化信息级别日志。
func Infof(template string, args ...interface{}) { L.Infof(template, args...) }

// Warn 记录警告级别日志。
func Warn(msg string) { L.Warn(msg) }

// Warnf 记录格式化警告级别日志。
func Warnf(template string, args ...interface{}) { L.Warnf(template, args...) }

// Error 记录错误级别日志。
func Error(msg string) { L.Error(msg) }

// Errorf 记录格式化错误级别日志。
func Errorf(template string, args ...interface{}) { L.Errorf(template, args...) }
