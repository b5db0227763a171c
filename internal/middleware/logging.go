package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/auth"
)

// LogRequest logs every request once it is served. Server errors are logged
// at warn level, everything else at debug.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(resp, r)

			entry := log.WithFields(log.Fields{
				"method": r.Method,
				"route":  routeName(r),
				"status": resp.statusCode,
				"took":   time.Since(begin).Round(time.Millisecond),
				"token":  r.Header.Get(auth.TokenHeader) != "",
			})
			if resp.statusCode >= http.StatusInternalServerError {
				entry.Warnf("request %s", r.URL.Path)
				return
			}
			entry.Debugf("request %s", r.URL.Path)
		})
	}
}
