// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	once        sync.Once
	initialized atomic.Bool
	logger      zerolog.Logger
)

type ctxKey string

// 上下文中的日志字段键
const (
	RequestIDKey ctxKey = "request_id"
	RunIDKey     ctxKey = "run_id"
)

// Config 日志配置
type Config struct {
	Level    string // debug/info/warn/error
	Format   string // json/console
	Output   string // stdout/stderr/file
	FilePath string
}

// Init 初始化全局日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		out := openOutput(cfg)
		if cfg.Format != "json" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		logger = zerolog.New(out).With().Timestamp().Logger()
		initialized.Store(true)
	})
}

// openOutput 日志文件打不开时退回 stderr
func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stdout":
		return os.Stdout
	case "file":
		if cfg.FilePath == "" {
			return os.Stderr
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return os.Stderr
		}
		return f
	default:
		return os.Stderr
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器，未初始化时使用默认配置
func Get() *zerolog.Logger {
	if !initialized.Load() {
		Init(Config{Level: "info", Format: "console"})
	}
	return &logger
}

// WithContext 带上请求ID和运行ID的日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	c := Get().With()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		c = c.Str("request_id", reqID)
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		c = c.Str("run_id", runID)
	}
	l := c.Logger()
	return &l
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// WithField 附加一个字段
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// EngineLogger 代课分配引擎专用日志器
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建代课分配引擎日志器
func NewEngineLogger(runID string) *EngineLogger {
	l := Get().With().Str("component", "substitute").Str("run_id", runID).Logger()
	return &EngineLogger{base: &l}
}

// Base 返回底层日志器
func (l *EngineLogger) Base() *zerolog.Logger {
	return l.base
}

// StartRun 记录分配开始
func (l *EngineLogger) StartRun(date string, absent, pool int) {
	l.base.Info().
		Str("date", date).
		Int("absent", absent).
		Int("pool", pool).
		Msg("开始分配代课")
}

// PeriodsResolved 记录缺勤教师的课程解析结果
func (l *EngineLogger) PeriodsResolved(teacher string, periods int, sources []string) {
	l.base.Debug().
		Str("teacher", teacher).
		Int("periods", periods).
		Strs("sources", sources).
		Msg("课程解析完成")
}

// NoSubstitute 记录无可用代课教师
func (l *EngineLogger) NoSubstitute(teacher string, period int, className string) {
	l.base.Warn().
		Str("teacher", teacher).
		Int("period", period).
		Str("class", className).
		Msg("无可用代课教师")
}

// RunComplete 记录分配完成
func (l *EngineLogger) RunComplete(duration time.Duration, assignments, warnings int) {
	l.base.Info().
		Dur("duration", duration).
		Int("assignments", assignments).
		Int("warnings", warnings).
		Msg("代课分配完成")
}
