package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/model"
)

// NewLogger builds the service's JSON logger. An unparseable level
// falls back to info rather than failing startup.
//
// Level conventions:
//   - error: infrastructure failures and 5xx responses
//   - warn:  client errors, degraded backends, lock contention
//   - info:  evolutions, rollbacks, rule pack reloads
//   - debug: cache activity, per-field validation detail
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}

// RequestLogger enriches base with the identity of the current request:
// subject, correlation ID, and the trace ID when one is active. Outside
// a request it returns base unchanged.
func RequestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	rctx := model.RequestContextFrom(ctx)
	if rctx == nil {
		return base
	}
	fields := []zap.Field{
		zap.String("subject_id", rctx.SubjectID),
		zap.String("correlation_id", rctx.CorrelationID),
	}
	if rctx.TraceID != "" {
		fields = append(fields, zap.String("trace_id", rctx.TraceID))
	}
	return base.With(fields...)
}

// wellKnownSecrets are field names RedactBody always masks.
var wellKnownSecrets = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"api_key":       true,
	"authorization": true,
	"credit_card":   true,
	"ssn":           true,
	"pin":           true,
}

// RedactBody deep-copies body with secret-bearing fields masked, for
// debug logging of request payloads. extra names are masked on top of
// the well-known set.
func RedactBody(body map[string]any, extra []string) map[string]any {
	if body == nil {
		return nil
	}
	masked := make(map[string]bool, len(extra))
	for _, f := range extra {
		masked[f] = true
	}

	out := make(map[string]any, len(body))
	for k, v := range body {
		switch {
		case wellKnownSecrets[k] || masked[k]:
			out[k] = "[REDACTED]"
		default:
			if nested, ok := v.(map[string]any); ok {
				out[k] = RedactBody(nested, extra)
			} else {
				out[k] = v
			}
		}
	}
	return out
}
