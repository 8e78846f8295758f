// Package logger builds the zap loggers used by the server and the migration
// tool, plus the gin and GORM adapters that write through them.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and destination
type Config struct {
	Level      string // debug, info, warn, error, fatal
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
	Service    string
}

// New creates a zap logger. Errors and above carry a stack trace; a file
// output that cannot be opened is an error.
func New(cfg *Config) (*zap.Logger, error) {
	c := Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: defaultTimeFormat}
	if cfg != nil {
		c = mergeConfig(c, *cfg)
	}

	sink, err := openSink(c.Output)
	if err != nil {
		return nil, err
	}
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if c.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", c.Service)))
	}
	return zap.New(zapcore.NewCore(encoder(c), sink, parseLevel(c.Level)), opts...), nil
}

// NewForEnvironment returns JSON output for production and colored console
// output everywhere else
func NewForEnvironment(env string) (*zap.Logger, error) {
	if env == "production" {
		return New(&Config{Format: "json"})
	}
	return New(nil)
}

func mergeConfig(base, over Config) Config {
	if over.Level != "" {
		base.Level = over.Level
	}
	if over.Format != "" {
		base.Format = over.Format
	}
	if over.Output != "" {
		base.Output = over.Output
	}
	if over.TimeFormat != "" {
		base.TimeFormat = over.TimeFormat
	}
	base.Service = over.Service
	return base
}

// parseLevel is case-insensitive, accepts "warning" and falls back to info
func parseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(c Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(c.TimeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if c.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}
