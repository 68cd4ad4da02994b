package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db    *sql.DB
	redis *redis.Client
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"service": "ok",
		"db":      "ok",
		"redis":   "ok",
	}
	code := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		status["db"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}
