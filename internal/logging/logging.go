// Package logging provides structured logging utilities.
package logging

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// global holds the process logger. Components take a named child at
// construction time, so swapping the global only affects later components.
var global atomic.Pointer[zap.Logger]

// Config contains logging configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level"`

	// Format is the output format (json, console)
	Format string `json:"format"`

	// Output is stderr, stdout or a file path
	Output string `json:"output"`

	// Development adds stack traces to errors
	Development bool `json:"development"`
}

// DefaultConfig logs warnings and above to stderr so that grids printed on
// stdout stay clean.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	}
}

// Initialize builds the global logger from cfg
func Initialize(cfg Config) error {
	logger, err := Build(cfg)
	if err != nil {
		return err
	}
	global.Store(logger)
	return nil
}

// Build creates a logger without installing it
func Build(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stderr":
		sink = zapcore.Lock(os.Stderr)
	case "stdout":
		sink = zapcore.Lock(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		sink = zapcore.AddSync(file)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewCore(encoder, sink, level), opts...), nil
}

// SetNop silences all logging. Tests call it to keep output clean.
func SetNop() {
	global.Store(zap.NewNop())
}

// L returns the global logger
func L() *zap.Logger {
	return global.Load()
}

// Sync flushes the logger
func Sync() {
	_ = L().Sync()
}

// Named returns a child logger for one component
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Debug logs at debug level
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info logs at info level
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn logs at warn level
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Profile is the field naming a cotation profile
func Profile(id string) zap.Field {
	return zap.String("profile", id)
}

// Pax is the field naming a passenger count
func Pax(n int) zap.Field {
	return zap.Int("pax", n)
}

// Fingerprint logs the first 12 characters of an input fingerprint
func Fingerprint(fp string) zap.Field {
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return zap.String("fingerprint", fp)
}

func init() {
	logger, _ := Build(DefaultConfig())
	global.Store(logger)
}
