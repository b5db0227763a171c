package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// maxDrainBytes bounds how much of an unread request body is discarded to
// keep the connection alive. Anything larger closes the connection instead.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest discards what the handler left unread from the request
// body, up to maxDrainBytes, and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			if n, _ := io.CopyN(io.Discard, r.Body, maxDrainBytes+1); n > maxDrainBytes {
				log.Debugf("request body for %s over %d bytes left unread", r.URL.Path, maxDrainBytes)
			}
			_ = r.Body.Close()
		})
	}
}
