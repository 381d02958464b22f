package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevel()
)

// Options 日志初始化参数
type Options struct {
	Dir        string // 日志目录，默认 logs
	MaxSizeMB  int    // 单文件大小
	MaxBackups int    // 保留的旧文件数
	MaxAgeDays int
	NoConsole  bool // 关闭控制台输出（脚本模式）
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = "logs"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 200
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
	return o
}

// NewLogger 创建 root logger：JSON 文件(轮转) + 控制台
func NewLogger(serviceName string, opts ...Options) *zap.Logger {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		panic(err)
	}
	logFile := filepath.Join(o.Dir, serviceName+".log")

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var writer io.Writer = &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   true,
	}

	cores := []zapcore.Core{zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), logLevel)}
	if !o.NoConsole {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(os.Stdout), logLevel))
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", serviceName))
	return logger
}

// SetLogLevel 动态调整日志级别，非法值忽略
func SetLogLevel(level string) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return
	}
	logLevel.SetLevel(zapLevel)
	if logger != nil {
		logger.Info("Log level set to", zap.String("level", level))
	}
}

// WithTrace 注入 trace_id / span_id
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return l
	}
	sc := span.SpanContext()
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
