package rfc2047

import (
	"context"
	"log/slog"
)

type noopHandler struct {
}

func (n noopHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (n noopHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (n noopHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return n
}

func (n noopHandler) WithGroup(name string) slog.Handler {
	return n
}

func noopLogger() *slog.Logger {
	return slog.New(noopHandler{})
}
