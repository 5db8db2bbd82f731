package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/filmland/internal/http/response"
	"github.com/magabrotheeeer/filmland/internal/lib/jwt"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
)

// JWTMiddleware проверяет Bearer токен из заголовка Authorization
// и кладёт email и роль пользователя в контекст запроса.
func JWTMiddleware(log *slog.Logger, maker jwt.Maker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Error("missing authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing authorization header"))
				return
			}

			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				log.Error("invalid authorization header format")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid authorization header format"))
				return
			}

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.Email)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
