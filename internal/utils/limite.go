package utils

import (
	"net/http"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/config"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// LimitePorIP aplica o limite de requisições por minuto por IP. Desligado,
// devolve o handler sem alteração.
func LimitePorIP(cfg config.RateLimitConfig, log *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	log.Info("limite de requisições ativo", zap.Int("por_minuto", cfg.RequestsPerMinute))
	return httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("limite de requisições excedido", zap.String("path", r.URL.Path), zap.String("ip", r.RemoteAddr))
			w.Header().Set("Retry-After", "60")
			RespondMessage(w, http.StatusTooManyRequests, "Too many requests, try again later")
		}),
	)
}
