package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/shoplist/logger"
)

var probePaths = map[string]bool{"/health": true, "/alive": true, "/ready": true}

// RequestLogger logs method, path, status and duration of every request
// except health probes. 5xx log at error, 4xx at warn, the rest at debug.
func RequestLogger(log *logger.Logger) Middleware {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			reqLog := log.WithContext(r.Context())
			switch {
			case sw.status >= 500:
				reqLog.Error("Request completed", fields)
			case sw.status >= 400:
				reqLog.Warn("Request completed", fields)
			default:
				reqLog.Debug("Request completed", fields)
			}
		})
	}
}

func isProbe(path string) bool {
	return probePaths[strings.TrimSuffix(path, "/")]
}
