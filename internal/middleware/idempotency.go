package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/django102/routelink-capricorn/internal/repository"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

// IdempotencyKeyHeader is the client-supplied request key.
const IdempotencyKeyHeader = "Idempotency-Key"

// bodyRecorder buffers the response so a successful body can be cached
// before it reaches the client.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// IdempotencyMiddleware suppresses duplicate POSTs at the transport
// boundary. A cache hit for the client's Idempotency-Key replays the
// original response with a conflict status instead of re-invoking the
// handler; successful responses are cached for the TTL window. This
// complements, not replaces, the storage-level uniqueness check.
func IdempotencyMiddleware(cacheRepo repository.CacheRepository, ttl time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, err := cacheRepo.GetIdempotentResponse(r.Context(), key)
			if err != nil {
				// Cache trouble must not block the write path; the
				// repository uniqueness check still guards duplicates.
				log.Warnf("Failed to read idempotency cache: %v", err)
			}
			if cached != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				w.Write(cached)
				return
			}

			rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				if err := cacheRepo.SetIdempotentResponse(r.Context(), key, rec.body.Bytes(), ttl); err != nil {
					log.Warnf("Failed to cache idempotent response: %v", err)
				}
			}
		})
	}
}
