// Package filmland собирает HTTP-приложение сервиса: хранилище, кеш,
// брокер, бизнес-сервисы и маршруты.
package filmland

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/filmland/internal/cache"
	"github.com/magabrotheeeer/filmland/internal/config"
	"github.com/magabrotheeeer/filmland/internal/lib/jwt"
	"github.com/magabrotheeeer/filmland/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/migrations"
	authservice "github.com/magabrotheeeer/filmland/internal/services/auth"
	"github.com/magabrotheeeer/filmland/internal/services/billing"
	renewalservice "github.com/magabrotheeeer/filmland/internal/services/renewal"
	subservice "github.com/magabrotheeeer/filmland/internal/services/subscription"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// App — HTTP-приложение сервиса подписок.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New подключает зависимости, применяет миграции и собирает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var publisher renewalservice.Publisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		// продления работают и без брокера, уведомления просто не уходят
		logger.Warn("rabbitmq is unavailable, renewal notices disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.BillingExchange)
	}

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	engine := billing.NewEngine(logger)
	authService := authservice.NewService(db, maker, logger)
	subscriptionService := subservice.NewService(db, engine, cacheRedis, logger)
	renewalService := renewalservice.NewService(db, engine, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, maker, db, authService, subscriptionService, renewalService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		return err
	}
}
