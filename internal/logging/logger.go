package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

func NewLogger(level string) (*Logger, error) {
	config := zap.NewProductionConfig()

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// sessionIDKey is the context key under which a creator session id
// (spec §3 Commit.creator_session_id) is threaded through a mutating
// repo operation for log correlation.
type sessionIDKey struct{}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

func (l *Logger) WithSession(ctx context.Context) *zap.Logger {
	if sid, ok := ctx.Value(sessionIDKey{}).(string); ok && sid != "" {
		return l.With(zap.String("session_id", sid))
	}
	return l.Logger
}
