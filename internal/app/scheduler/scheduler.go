// Package scheduler собирает воркер периодического продления подписок:
// запускает прогон сразу при старте и далее по таймеру.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/filmland/internal/config"
	"github.com/magabrotheeeer/filmland/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/services/billing"
	renewalservice "github.com/magabrotheeeer/filmland/internal/services/renewal"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// App — приложение планировщика продлений.
type App struct {
	renewalService *renewalservice.Service
	interval       time.Duration
	conn           *amqp.Connection
	ch             *amqp.Channel
	logger         *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(ctx)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	engine := billing.NewEngine(logger)
	publisher := rabbitmq.NewPublisher(ch, rabbitmq.BillingExchange)
	renewalService := renewalservice.NewService(db, engine, publisher, logger)

	return &App{
		renewalService: renewalService,
		interval:       cfg.RenewalInterval,
		conn:           conn,
		ch:             ch,
		logger:         logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run выполняет первый прогон продления сразу и далее по расписанию,
// пока контекст не будет отменён.
func (a *App) Run(ctx context.Context) error {
	a.runOnce(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.runOnce(ctx)
		case <-ctx.Done():
			a.logger.Info("shutting down renewal scheduler")
			closeResources(a.ch, a.conn, a.logger)
			return nil
		}
	}
}

func (a *App) runOnce(ctx context.Context) {
	renewed, err := a.renewalService.RenewSubscriptions(ctx)
	if err != nil {
		if errors.Is(err, renewalservice.ErrRenewalInProgress) {
			a.logger.Warn("previous renewal run is still in progress")
			return
		}
		a.logger.Error("renewal run failed", sl.Err(err), slog.Int("renewed", renewed))
		return
	}
	a.logger.Info("renewal run completed", slog.Int("renewed", renewed))
}
