package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitepulse/config"
)

// CORS allows browser calls from the configured origins with credentials.
// Preflight requests are answered with 204 and cached for cfg.MaxAge. With
// no usable origin configured the middleware is a pass-through.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			slog.Warn("ignoring CORS origin without scheme", "origin", o)
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return cors.New(cors.Config{
		AllowOrigins:              origins,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Origin", "Accept", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:             []string{"*"},
		AllowCredentials:          true,
		MaxAge:                    cfg.MaxAge,
		OptionsResponseStatusCode: http.StatusNoContent,
	})
}
