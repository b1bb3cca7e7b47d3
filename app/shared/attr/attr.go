package attr

import (
	"context"
	"log/slog"

	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

type correlationIDKey struct{}

// WithCorrelationID stores a correlation id on the context for log extraction.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ExtractCorrelationID pulls the correlation id off the context, empty attr if absent.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", id)
	}
	return slog.String("correlation_id", "")
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func RoundID(key string, id sharedtypes.RoundID) slog.Attr {
	return slog.String(key, id.String())
}

func PlayerID(key string, id sharedtypes.PlayerID) slog.Attr {
	return slog.String(key, id.String())
}

func EntryID(key string, id sharedtypes.EntryID) slog.Attr {
	return slog.String(key, id.String())
}
