// Package observability は構造化ログの補助機能を提供します
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey は context のキーに使う非公開の型です
type contextKey string

const requestIDKey contextKey = "requestID"

// Config はロガーの設定です
type Config struct {
	// Level は出力する最低のログレベルです（debug, info, warn, error）
	Level string
	// Format は出力形式です（json, text）
	Format string
	// Output は出力先です。nil なら os.Stdout です
	Output io.Writer
}

// DefaultConfig はデフォルトのロガー設定を返します
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stdout,
	}
}

// NewLogger は設定に従って *slog.Logger を作成します
// context 付きで記録したログには WithRequestID で保存した request_id が付きます
func NewLogger(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(cfg.Output, opts)
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(contextHandler{Handler: handler})
}

// ParseLevel は文字列のログレベルを slog.Level に変換します。不明な値は info です
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler は context の値をすべてのレコードに追加します
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

// WithRequestID はリクエストIDを context に保存します。空文字は保存しません
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext は context からリクエストIDを取り出します
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
