package middleware

import (
	"net/http"
	"strconv"
	"strings"

	pkgAuth "github.com/olimpiec/shop-backend/pkg/auth"
	"github.com/olimpiec/shop-backend/pkg/config"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

// OptionalAuth parses a bearer token when one is present and seeds the request
// context with the shopper id. Guest checkout is the norm, so a missing or
// invalid token never blocks the request.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" || cfg.Secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.UserID == 0 {
				if logg != nil {
					logg.Warn(r.Context(), "ignoring invalid bearer token")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, strconv.FormatUint(claims.UserID, 10))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
