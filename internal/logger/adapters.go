package logger

import (
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// ZapAdapter routes log calls to a zap logger using its sugared key-value API.
type ZapAdapter struct {
	logger *zap.SugaredLogger
}

// NewZapAdapter wraps a zap logger. The provided logger must not be nil.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.Sugar()}
}

// Debug logs at zap's debug level.
func (a *ZapAdapter) Debug(msg string, args ...any) { a.logger.Debugw(msg, args...) }

// Info logs at zap's info level.
func (a *ZapAdapter) Info(msg string, args ...any) { a.logger.Infow(msg, args...) }

// Warn logs at zap's warn level.
func (a *ZapAdapter) Warn(msg string, args ...any) { a.logger.Warnw(msg, args...) }

// Error logs at zap's error level.
func (a *ZapAdapter) Error(msg string, args ...any) { a.logger.Errorw(msg, args...) }

// ZerologAdapter routes log calls to a zerolog logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps a zerolog logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug logs at zerolog's debug level.
func (a *ZerologAdapter) Debug(msg string, args ...any) {
	a.logger.Debug().Fields(fields(args)).Msg(msg)
}

// Info logs at zerolog's info level.
func (a *ZerologAdapter) Info(msg string, args ...any) {
	a.logger.Info().Fields(fields(args)).Msg(msg)
}

// Warn logs at zerolog's warn level.
func (a *ZerologAdapter) Warn(msg string, args ...any) {
	a.logger.Warn().Fields(fields(args)).Msg(msg)
}

// Error logs at zerolog's error level.
func (a *ZerologAdapter) Error(msg string, args ...any) {
	a.logger.Error().Fields(fields(args)).Msg(msg)
}

// LogrusAdapter routes log calls to a logrus logger or entry.
type LogrusAdapter struct {
	logger logrus.FieldLogger
}

// NewLogrusAdapter wraps a logrus.Logger or *logrus.Entry.
func NewLogrusAdapter(logger logrus.FieldLogger) *LogrusAdapter {
	return &LogrusAdapter{logger: logger}
}

// Debug logs at logrus' debug level.
func (a *LogrusAdapter) Debug(msg string, args ...any) {
	a.logger.WithFields(logrus.Fields(fields(args))).Debug(msg)
}

// Info logs at logrus' info level.
func (a *LogrusAdapter) Info(msg string, args ...any) {
	a.logger.WithFields(logrus.Fields(fields(args))).Info(msg)
}

// Warn logs at logrus' warn level.
func (a *LogrusAdapter) Warn(msg string, args ...any) {
	a.logger.WithFields(logrus.Fields(fields(args))).Warn(msg)
}

// Error logs at logrus' error level.
func (a *LogrusAdapter) Error(msg string, args ...any) {
	a.logger.WithFields(logrus.Fields(fields(args))).Error(msg)
}
