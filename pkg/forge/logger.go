package forge

import "github.com/rs/zerolog"

// Logger is the sink the pipeline reports into after every physical response
// and on every classified error. The pipeline never depends on its return
// value. Every record carries an "event" field naming the pipeline event,
// e.g. "http_response", "rate_limit_approaching", "rate_limit_exhausted".
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything. It is the default sink.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields map[string]interface{}) {}
func (NopLogger) Info(msg string, fields map[string]interface{})  {}
func (NopLogger) Warn(msg string, fields map[string]interface{})  {}
func (NopLogger) Error(msg string, fields map[string]interface{}) {}

// ZerologLogger adapts a zerolog.Logger to the pipeline Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger as a pipeline sink.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
