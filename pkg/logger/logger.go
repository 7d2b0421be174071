package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metrics-exporter/pkg/config"
	"github.com/metrics-exporter/pkg/goid"
)

type Logger = zap.Logger

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

var (
	// 未初始化前使用 Nop，库代码可以在没有 CLI 的情况下直接使用
	baseLogger       = zap.NewNop()
	defaultComponent = "exporter"
	mu               sync.RWMutex
)

// InitLogger 根据配置初始化全局日志：控制台（彩色console或json）+ 按天滚动的JSON文件
func InitLogger(cfg *config.ZapLogConfig) (*Logger, error) {
	level := parseLevel(cfg.Level)

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", cfg.Path, err)
	}
	writer, err := newRotateWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("create rotate writer: %w", err)
	}

	var stdoutEncoder zapcore.Encoder
	if cfg.Format == "json" {
		stdoutEncoder = newJSONEncoder()
	} else {
		stdoutEncoder = newConsoleEncoder()
	}

	core := zapcore.NewTee(
		zapcore.NewCore(stdoutEncoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(writer), level),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Use(l)
	return l, nil
}

// Use 安装一个已构建好的 zap.Logger 作为全局日志（测试中配合 zaptest/observer 使用）
func Use(l *Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	baseLogger = l
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newRotateWriter(cfg *config.ZapLogConfig) (*rotatelogs.RotateLogs, error) {
	opts := []rotatelogs.Option{
		rotatelogs.WithRotationTime(24 * time.Hour),
		rotatelogs.WithRotationSize(int64(cfg.MaxSize) * 1024 * 1024),
	}
	// MaxAge 与 RotationCount 不能同时设置
	switch {
	case cfg.MaxAge > 0:
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	case cfg.MaxBackup > 0:
		opts = append(opts, rotatelogs.WithMaxAge(-1), rotatelogs.WithRotationCount(uint(cfg.MaxBackup)))
	}
	return rotatelogs.New(filepath.Join(cfg.Path, "exporter-%Y%m%d.log"), opts...)
}

func newConsoleEncoder() zapcore.Encoder {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.ConsoleSeparator = " "
	encCfg.EncodeLevel = coloredLevelEncoder
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("\033[34m" + t.Format(timeLayout) + "\033[0m")
	}
	// Caller 两级路径
	encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(rel + ":" + strconv.Itoa(c.Line))
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

func newJSONEncoder() zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(encCfg)
}

func coloredLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var levelStr string
	switch level {
	case zapcore.DebugLevel:
		levelStr = "\033[36mDEBUG\033[0m"
	case zapcore.InfoLevel:
		levelStr = "\033[32mINFO \033[0m"
	case zapcore.WarnLevel:
		levelStr = "\033[33mWARN \033[0m"
	case zapcore.ErrorLevel:
		levelStr = "\033[31mERROR\033[0m"
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		levelStr = "\033[35m" + level.CapitalString() + "\033[0m"
	default:
		levelStr = "UNK  "
	}
	enc.AppendString(levelStr)
}

// SetDefaultComponent 设置默认 component 字段（主程序、采集器等各自标识）
func SetDefaultComponent(component string) {
	mu.Lock()
	defer mu.Unlock()
	defaultComponent = component
}

// GetDefaultComponent 返回默认 component 字段
func GetDefaultComponent() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultComponent
}

func log(level zapcore.Level, msg string, fields ...zap.Field) {
	mu.RLock()
	l := baseLogger
	component := defaultComponent
	mu.RUnlock()

	// log() + 包级函数两层调用
	l = l.WithOptions(zap.AddCallerSkip(2))
	if ce := l.Check(level, msg); ce != nil {
		merged := make([]zap.Field, 0, len(fields)+2)
		merged = append(merged,
			zap.String("component", component),
			zap.Uint64("goid", goid.GetGID()),
		)
		ce.Write(append(merged, fields...)...)
	}
}

func Debug(msg string, fields ...zap.Field) { log(zap.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log(zap.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log(zap.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zap.Field) { log(zap.ErrorLevel, msg, fields...) }
func Panic(msg string, fields ...zap.Field) { log(zap.PanicLevel, msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { log(zap.FatalLevel, msg, fields...) }

// Sync 刷盘，程序退出前调用
func Sync() error {
	return GetLogger().Sync()
}

// GetLogger 返回全局 zap.Logger（未初始化时为 Nop）
func GetLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}
