package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"chatsync/internal/logging"

	"github.com/google/uuid"
)

// LoggingMiddleware logs each request and hands a request-scoped logger to
// the handlers through the request context
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		rec := newStatusRecorder(w)
		rec.Header().Set("X-Request-ID", requestID)

		logger := logging.RequestLogger(r.Context(), requestID, r.Method, r.URL.Path)
		if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
			// Slack redelivers events it did not see acknowledged
			logger = logger.With(
				slog.String("slack_retry_num", retry),
				slog.String("slack_retry_reason", r.Header.Get("X-Slack-Retry-Reason")),
			)
		}

		next.ServeHTTP(rec, r.WithContext(logging.ContextWithLogger(r.Context(), logger)))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(r.Context(), level, "HTTP Request",
			slog.String("remote_addr", getClientIP(r)),
			slog.Int("status_code", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
