package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/tabvault/tabvault/internal/utils"
)

// withLogging attaches a request-scoped logger to the context and emits
// one structured line per request with status, size and duration.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := h.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", utils.NewUUIDGenerator().Generate()).
			Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		reqLog.Info().
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
