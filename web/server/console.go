package server

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
	Logger    string    `json:"logger,omitempty"`
}

// NewConsoleLogger returns a logger that writes to base and also forwards
// every entry at level or above to consoleChan. A full channel drops the
// message rather than blocking the renderer.
func NewConsoleLogger(base *zap.Logger, level zapcore.LevelEnabler, consoleChan chan<- ConsoleMessage) *zap.Logger {
	forward := func(e zapcore.Entry) error {
		select {
		case consoleChan <- ConsoleMessage{
			Message:   e.Message,
			Timestamp: e.Time,
			Level:     e.Level.String(),
			Logger:    e.LoggerName,
		}:
		default:
		}
		return nil
	}

	// The hooked core only decides which entries reach the hook; its
	// encoded output is discarded.
	sink := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg"}),
		zapcore.AddSync(io.Discard),
		level,
	)
	console := zapcore.RegisterHooks(sink, forward)

	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, console)
	}))
}
