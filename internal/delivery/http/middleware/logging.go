package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder remembers the status and body size sent through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

type captureKey struct{}

// userCapture receives the user ID resolved by RequireAuth further down the chain.
type userCapture struct {
	userID string
}

func withUserCapture(ctx context.Context, c *userCapture) context.Context {
	return context.WithValue(ctx, captureKey{}, c)
}

func recordUser(ctx context.Context, userID string) {
	if c, ok := ctx.Value(captureKey{}).(*userCapture); ok {
		c.userID = userID
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Logging writes one access-log record per request. Bodies are never logged.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			var who userCapture
			next.ServeHTTP(rec, r.WithContext(withUserCapture(r.Context(), &who)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.bytes),
				slog.Int64("duration_ms", time.Since(started).Milliseconds()),
			}
			if who.userID != "" {
				attrs = append(attrs, slog.String("user_id", who.userID))
			}
			logger.LogAttrs(r.Context(), levelForStatus(rec.status), "request", attrs...)
		})
	}
}
