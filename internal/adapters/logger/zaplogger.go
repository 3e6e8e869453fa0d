package logger

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the logger settings read from the environment.
type Config struct {
	Level       string // DEBUG, INFO, WARN, ERROR
	Encoding    string // console or json
	Development bool
}

// ZapLogger implements the ports.Logger interface on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// ParseLevel converts a string level to a zap level.
func ParseLevel(levelStr string) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(levelStr))
	if s == "warning" {
		s = "warn"
	}
	level := zapcore.InfoLevel
	if err := level.Set(s); err != nil {
		return zapcore.InfoLevel // Default to Info
	}
	return level
}

// New builds a zap-backed logger writing to stderr so command output on
// stdout stays clean.
func New(cfg Config) (*ZapLogger, error) {
	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "json" {
		encoding = "console"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:       cfg.Development,
		Encoding:          encoding,
		DisableStacktrace: !cfg.Development,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: z}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: z}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func toZapFields(err error, fields []map[string]interface{}) []zap.Field {
	if len(fields) == 0 || fields[0] == nil {
		if err != nil {
			return []zap.Field{zap.Error(err)}
		}
		return nil
	}

	// sorted keys give stable console output
	keys := make([]string, 0, len(fields[0]))
	for k := range fields[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys)+1)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[0][k]))
	}
	return zf
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Debug(msg, toZapFields(nil, fields)...)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Info(msg, toZapFields(nil, fields)...)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.Warn(msg, toZapFields(nil, fields)...)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.logger.Error(msg, toZapFields(err, fields)...)
}
