// Package sender отправляет почтовые уведомления о продлении подписки
// по событиям из очереди billing.renewals.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/lib/smtp"
	"github.com/magabrotheeeer/filmland/internal/models"
)

// Repository определяет методы хранилища, используемые сервисом уведомлений.
type Repository interface {
	FindUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// Transport устанавливает SMTP соединения для отправки писем.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// Service рассылает уведомления о продлениях подписчикам.
type Service struct {
	repo      Repository
	transport Transport
	log       *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, transport Transport, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		transport: transport,
		log:       log,
	}
}

// SendRenewalNotice обрабатывает одно событие о продлении: находит
// подписчиков по UID и отправляет каждому письмо с новым периодом и ценой.
// Используется как обработчик сообщений очереди.
func (s *Service) SendRenewalNotice(body []byte) error {
	var notice models.RenewalNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal renewal notice", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	ctx := context.Background()
	for _, uid := range notice.Subscribers {
		user, err := s.repo.FindUserByUID(ctx, uid)
		if err != nil {
			s.log.Error("failed to find subscriber for renewal notice",
				slog.String("uid", uid), sl.Err(err))
			return fmt.Errorf("failed to get subscriber: %w", err)
		}

		subject := "Подписка продлена: " + notice.CategoryName
		bodyText := fmt.Sprintf(`Здравствуйте, %s!

Ваша подписка на категорию %s продлена на следующий период: с %s по %s.
Стоимость периода для вас: %s.

Спасибо, что остаётесь с нами!`,
			user.Username, notice.CategoryName, notice.PeriodStart, notice.PeriodEnd, notice.Price)

		if err := s.sendEmail([]string{user.Email}, subject, bodyText); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
