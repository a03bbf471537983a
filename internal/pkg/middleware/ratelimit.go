package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
)

// RateLimiter limita as requisições por IP em janelas fixas de duration.
// O contador é incrementado antes da decisão (INCR é atômico no Redis); a
// janela começa no primeiro incremento. Falhas do cache deixam a requisição passar.
func RateLimiter(client cache.Client, limit int, duration time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "rate-limit:" + clientIP(r)

			count, err := client.Incr(ctx, key)
			if err != nil {
				log.Warn("Rate limit indisponível, requisição liberada.", map[string]interface{}{"key": key, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := client.Expire(ctx, key, duration); err != nil {
					log.Warn("Falha ao iniciar janela de rate limit.", map[string]interface{}{"key": key, "error": err.Error()})
				}
			}

			if count > int64(limit) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(domain.ErrorResponse{
					Code:     http.StatusTooManyRequests,
					Category: "RATE_LIMITED",
					Message:  "Limite de requisições excedido. Tente novamente mais tarde.",
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
