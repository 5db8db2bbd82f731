// Package renewal реализует батч-продление подписок: отбор подписок,
// требующих нового периода, постраничное открытие периодов с инвойсами
// и публикацию событий о продлении.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/filmland/internal/lib/batch"
	"github.com/magabrotheeeer/filmland/internal/lib/month"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/services/billing"
)

// PageSize — число подписок, продлеваемых в одной транзакции.
const PageSize = 200

// lookaheadDays — за сколько дней до конца текущего периода подписка
// попадает в продление.
const lookaheadDays = 3

// ErrRenewalInProgress возвращается, когда продление уже выполняется.
// Два одновременных прогона выставили бы дублирующие периоды.
var ErrRenewalInProgress = errors.New("renewal run already in progress")

var (
	renewedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filmland_subscriptions_renewed_total",
		Help: "Total number of subscription periods opened by the renewal job.",
	})
	skippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filmland_subscriptions_renewal_skipped_total",
		Help: "Total number of subscriptions skipped during renewal due to corrupt state.",
	})
	pagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filmland_renewal_pages_committed_total",
		Help: "Total number of renewal pages committed to storage.",
	})
)

// Repository определяет методы хранилища, используемые продлением.
type Repository interface {
	// FindRenewableSubscriptionIDs возвращает идентификаторы подписок,
	// требующих продления на отрезке (today, in3days].
	FindRenewableSubscriptionIDs(ctx context.Context, today, in3days time.Time) ([]int, error)
	// ListSubscriptionsByIDs загружает агрегаты подписок по идентификаторам.
	ListSubscriptionsByIDs(ctx context.Context, ids []int) ([]*models.Subscription, error)
	// SaveRenewals сохраняет страницу продлений в одной транзакции.
	SaveRenewals(ctx context.Context, renewals []models.Renewal) error
}

// Publisher публикует события о продлениях в очередь.
type Publisher interface {
	PublishMessage(ctx context.Context, routingKey string, body any) error
}

// Service выполняет прогон продления подписок.
type Service struct {
	repo      Repository
	engine    *billing.Engine
	publisher Publisher
	log       *slog.Logger

	mu sync.Mutex
}

// NewService создает новый экземпляр Service. publisher может быть nil —
// тогда события о продлениях не публикуются.
func NewService(repo Repository, engine *billing.Engine, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
		log:       log,
	}
}

// RenewSubscriptions продлевает все подписки, текущий период которых
// заканчивается в ближайшие три дня. Подписки обрабатываются страницами
// по PageSize, каждая страница фиксируется отдельной транзакцией: сбой
// на одной странице не откатывает уже продлённые. Возвращает число
// продлённых подписок, в том числе при ошибке.
//
// Одновременно выполняется не более одного прогона: повторный вызов
// возвращает ErrRenewalInProgress, не дожидаясь завершения текущего.
func (s *Service) RenewSubscriptions(ctx context.Context) (int, error) {
	const op = "renewal.RenewSubscriptions"

	if !s.mu.TryLock() {
		return 0, ErrRenewalInProgress
	}
	defer s.mu.Unlock()

	today := month.Today()
	in3days := today.AddDate(0, 0, lookaheadDays)

	ids, err := s.repo.FindRenewableSubscriptionIDs(ctx, today, in3days)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		s.log.Info("no subscriptions to renew")
		return 0, nil
	}
	s.log.Info("starting renewal run", slog.Int("subscriptions", len(ids)))

	renewed := 0
	for _, page := range batch.Partition(ids, PageSize) {
		renewals, err := s.renewPage(ctx, today, page)
		if err != nil {
			return renewed, fmt.Errorf("%s: %w", op, err)
		}
		renewed += len(renewals)
		s.publishNotices(ctx, renewals)
	}

	s.log.Info("renewal run finished", slog.Int("renewed", renewed))
	return renewed, nil
}

// renewPage продлевает одну страницу подписок и фиксирует её одной
// транзакцией. Подписки без периода, покрывающего сегодняшний день,
// пропускаются с предупреждением: одна повреждённая запись не должна
// останавливать прогон.
func (s *Service) renewPage(ctx context.Context, today time.Time, ids []int) ([]models.Renewal, error) {
	subs, err := s.repo.ListSubscriptionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	renewals := make([]models.Renewal, 0, len(subs))
	for _, sub := range subs {
		current := currentPeriod(sub, today)
		if current == nil {
			s.log.Warn("can not renew subscription without a current period, skipping it",
				slog.Int("subscription_id", sub.ID))
			skippedTotal.Inc()
			continue
		}

		period := s.engine.CreatePeriod(sub, current.EndDate.AddDate(0, 0, 1))
		s.engine.GenerateInvoices(sub, period)

		categoryName := ""
		if sub.Category != nil {
			categoryName = sub.Category.Name
		}
		renewals = append(renewals, models.Renewal{
			SubscriptionID: sub.ID,
			CategoryName:   categoryName,
			Period:         *period,
		})
	}
	if len(renewals) == 0 {
		return nil, nil
	}

	if err := s.repo.SaveRenewals(ctx, renewals); err != nil {
		return nil, err
	}
	pagesTotal.Inc()
	renewedTotal.Add(float64(len(renewals)))
	return renewals, nil
}

// publishNotices отправляет событие по каждому продлению уже после
// коммита страницы. Сбой публикации не откатывает продление: очередь —
// уведомительный канал, источник истины — хранилище.
func (s *Service) publishNotices(ctx context.Context, renewals []models.Renewal) {
	if s.publisher == nil {
		return
	}
	for i := range renewals {
		notice := buildNotice(&renewals[i])
		if err := s.publisher.PublishMessage(ctx, "renewal", notice); err != nil {
			s.log.Warn("failed to publish renewal notice",
				slog.Int("subscription_id", renewals[i].SubscriptionID), sl.Err(err))
		}
	}
}

func buildNotice(renewal *models.Renewal) models.RenewalNotice {
	notice := models.RenewalNotice{
		SubscriptionID: renewal.SubscriptionID,
		CategoryName:   renewal.CategoryName,
		PeriodStart:    renewal.Period.StartDate.Format(time.DateOnly),
		PeriodEnd:      renewal.Period.EndDate.Format(time.DateOnly),
	}
	for _, invoice := range renewal.Period.Invoices {
		notice.Price = invoice.Price.String()
		notice.Subscribers = append(notice.Subscribers, invoice.SubscriberUID)
	}
	return notice
}

// currentPeriod возвращает период, покрывающий день today как
// [StartDate, EndDate): день окончания уже принадлежит следующему
// периоду, поэтому продление в этот день открывает период встык.
func currentPeriod(sub *models.Subscription, today time.Time) *models.SubscriptionPeriod {
	for i := range sub.Periods {
		p := &sub.Periods[i]
		if !today.Before(p.StartDate) && today.Before(p.EndDate) {
			return p
		}
	}
	return nil
}
