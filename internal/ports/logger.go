package ports

import "context"

// Logger — логгер слоёв приложения. request_id, view_id и trace_id реализация берёт из ctx.
type Logger interface {
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
}
