package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger logs one line per request. Server errors are logged at warn level;
// everything else at info, except /health probes which go to debug.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log := logger.Info
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log = logger.Warn
			case r.URL.Path == "/health":
				log = logger.Debug
			}
			log("Request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("userID", r.URL.Query().Get("user_id")),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(started)),
				zap.String("requestID", chimw.GetReqID(r.Context())),
			)
		})
	}
}
