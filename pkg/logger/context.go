package logger

import (
	"context"
	"log/slog"
)

type componentKey struct{}

// WithComponent tags ctx so log records emitted with it carry a
// component attribute.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentKey{}, name)
}

// ComponentExtractor reads the value set by WithComponent.
func ComponentExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		name, ok := ctx.Value(componentKey{}).(string)
		if !ok || name == "" {
			return slog.Attr{}, false
		}
		return slog.String("component", name), true
	}
}
