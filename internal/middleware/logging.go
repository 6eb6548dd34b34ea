package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// RequestLogger logs one line per API request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapped, r)
		log.Printf("[HTTP] %s %s %d %s", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Round(time.Millisecond))
	})
}

func shouldSkipLogging(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics" || path == "/ws"
}
