package web

import (
	"net/http"
	"time"

	"fjacquet/ekstre-csv/internal/admin"
	"fjacquet/ekstre-csv/internal/logging"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request with its status and duration.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				logging.F("method", r.Method),
				logging.F("path", r.URL.Path),
				logging.F("status", status),
				logging.F("bytes", ww.BytesWritten()),
				logging.F(logging.FieldDuration, time.Since(start).Milliseconds()),
				logging.F("ip", r.RemoteAddr),
				logging.F("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// adminAuth requires HTTP basic auth with the admin password. The user name
// is ignored.
func adminAuth(manager *admin.Manager, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="ekstre-csv admin"`)
				writeError(w, http.StatusUnauthorized, "missing credentials", "AUTH_MISSING")
				return
			}
			if manager == nil || !manager.Authenticate(password) {
				logger.Warn("auth: invalid admin password",
					logging.F("path", r.URL.Path),
					logging.F("ip", r.RemoteAddr))
				w.Header().Set("WWW-Authenticate", `Basic realm="ekstre-csv admin"`)
				writeError(w, http.StatusUnauthorized, "invalid credentials", "AUTH_INVALID")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
