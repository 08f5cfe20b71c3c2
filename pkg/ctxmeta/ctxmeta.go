// Пакет ctxmeta — метаданные, которые прокидываются через context.Context:
// request_id HTTP-запроса, view_id координатора, trace/span.
// HTTP-слой, координатор и логгер зависят от него, но не друг от друга.
package ctxmeta

import "context"

type ctxKey string

const (
	KeyRequestID ctxKey = "request_id"
	KeyViewID    ctxKey = "view_id"
)

// WithRequestID кладёт request_id в контекст (если пусто — ничего не делает).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext достаёт request_id из контекста.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyRequestID)
}

// WithViewID — идентификатор экземпляра координатора (одного «экрана»).
func WithViewID(ctx context.Context, viewID string) context.Context {
	return withString(ctx, KeyViewID, viewID)
}

func ViewIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyViewID)
}

// Fields — пары ключ/значение для структурного логгера; пустые значения пропускаются.
func Fields(ctx context.Context) []any {
	var out []any
	if v, ok := RequestIDFromContext(ctx); ok {
		out = append(out, string(KeyRequestID), v)
	}
	if v, ok := ViewIDFromContext(ctx); ok {
		out = append(out, string(KeyViewID), v)
	}
	if v, ok := TraceIDFromContext(ctx); ok {
		out = append(out, "trace_id", v)
	}
	if v, ok := SpanIDFromContext(ctx); ok {
		out = append(out, "span_id", v)
	}
	return out
}

func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
