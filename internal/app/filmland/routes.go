package filmland

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/filmland/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/filmland/internal/http/handlers/auth/register"
	categorylist "github.com/magabrotheeeer/filmland/internal/http/handlers/category/list"
	"github.com/magabrotheeeer/filmland/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/filmland/internal/http/handlers/subscription/renew"
	"github.com/magabrotheeeer/filmland/internal/http/handlers/subscription/share"
	"github.com/magabrotheeeer/filmland/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/filmland/internal/http/middlewarectx"
	"github.com/magabrotheeeer/filmland/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/filmland/internal/services/auth"
	renewalservice "github.com/magabrotheeeer/filmland/internal/services/renewal"
	subservice "github.com/magabrotheeeer/filmland/internal/services/subscription"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, maker jwt.Maker,
	storage *repository.Storage,
	authService *authservice.Service,
	subscriptionService *subservice.Service,
	renewalService *renewalservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, storage).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(logger, maker))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/categories", categorylist.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions", subscribe.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/share", share.New(logger, subscriptionService).ServeHTTP)
			r.Post("/admin/renew", renew.New(logger, renewalService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
