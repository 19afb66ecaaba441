// Package logger builds the zap loggers used across voiceagent.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to stdout in the given format. An empty format
// means console.
func New(format string, debug bool) (*zap.Logger, error) {
	switch format {
	case "", FormatConsole:
		return NewLogger(debug), nil
	case FormatJSON:
		return NewJSONLogger(debug), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// NewLogger returns a colored console logger for interactive use.
func NewLogger(debug bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return build(zapcore.NewConsoleEncoder(encoderConfig), debug)
}

// NewJSONLogger returns a logger emitting one JSON object per line.
func NewJSONLogger(debug bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return build(zapcore.NewJSONEncoder(encoderConfig), debug)
}

func build(encoder zapcore.Encoder, debug bool) *zap.Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core, zap.AddCaller())
}
