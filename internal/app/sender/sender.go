// Package sender собирает воркер почтовых уведомлений о продлениях.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/filmland/internal/config"
	"github.com/magabrotheeeer/filmland/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/filmland/internal/services/sender"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// App — приложение отправителя уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает новый экземпляр приложения отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewService(db, transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди продлений и ждёт отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetBillingQueues() {
		if err := rabbitmq.ConsumeMessages(ctx, a.ch, q.QueueName, a.senderService.SendRenewalNotice); err != nil {
			a.logger.Error("failed to start queue consumer",
				slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
