package httpx

import (
	"net/http"
	"time"

	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/gin-gonic/gin"
)

// служебные маршруты в лог не пишем
var quietRoutes = map[string]struct{}{
	"/metrics": {},
	"/ping":    {},
}

// RequestLogger — одна строка на запрос. Уровень по статусу: 5xx — error, 4xx — warn.
// request_id и trace_id логгер берёт из контекста сам.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, quiet := quietRoutes[route]; quiet {
			return
		}
		if route == "" {
			route = "unmatched " + c.Request.URL.Path
		}

		ctx := c.Request.Context()
		status := c.Writer.Status()
		const format = "http %s %s status=%d duration=%s size=%d ip=%s errors=%d"
		args := []any{c.Request.Method, route, status, time.Since(start), c.Writer.Size(), c.ClientIP(), len(c.Errors)}

		switch {
		case status >= http.StatusInternalServerError:
			log.Errorf(ctx, format, args...)
		case status >= http.StatusBadRequest:
			log.Warnf(ctx, format, args...)
		default:
			log.Infof(ctx, format, args...)
		}
	}
}
