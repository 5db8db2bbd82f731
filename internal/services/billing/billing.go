// Package billing реализует открытие биллинговых периодов и выставление
// инвойсов. Это единственный код, создающий периоды и инвойсы: подписка
// и батч продления используют один и тот же Engine.
package billing

import (
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/filmland/internal/lib/money"
	"github.com/magabrotheeeer/filmland/internal/lib/month"
	"github.com/magabrotheeeer/filmland/internal/models"
)

// ErrNoSubscribers возвращается при попытке рассчитать цену подписки
// без подписчиков. Такое состояние возможно только при порче данных.
var ErrNoSubscribers = errors.New("subscription has no subscribers")

// Engine создаёт периоды и инвойсы для подписок.
type Engine struct {
	log *slog.Logger
}

// NewEngine создает новый экземпляр Engine.
func NewEngine(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

// CreatePeriod добавляет подписке новый период, начинающийся в startDate
// и длящийся один календарный месяц. Квота контента копируется из категории
// на момент создания. Вызывающий отвечает за то, чтобы startDate шёл сразу
// за датой окончания предыдущего периода (продление) либо был сегодняшним
// днём (первый период).
func (e *Engine) CreatePeriod(sub *models.Subscription, startDate time.Time) *models.SubscriptionPeriod {
	remainingContent := 0
	if sub.Category != nil {
		remainingContent = sub.Category.AvailableContent
	}
	sub.Periods = append(sub.Periods, models.SubscriptionPeriod{
		SubscriptionID:   sub.ID,
		StartDate:        startDate,
		EndDate:          month.End(startDate),
		RemainingContent: remainingContent,
	})
	return &sub.Periods[len(sub.Periods)-1]
}

// GenerateInvoices выставляет по одному инвойсу каждому текущему подписчику
// периода. Дата инвойса — дата начала подписки. Если подписка периода
// повреждена (нет категории или подписчиков), пишет предупреждение в лог
// и не выставляет ничего: такое состояние возникает только при внешнем
// вмешательстве в данные и не должно ронять выставление счетов.
func (e *Engine) GenerateInvoices(sub *models.Subscription, period *models.SubscriptionPeriod) []models.SubscriptionInvoice {
	if sub == nil {
		e.log.Warn("can not create invoices for period, it belongs to no subscription, skipping it",
			slog.Int("period_id", period.ID))
		return nil
	}
	if sub.Category == nil {
		e.log.Warn("can not create invoices for period, its subscription belongs to no category, skipping it",
			slog.Int("subscription_id", sub.ID))
		return nil
	}
	if len(sub.Subscribers) == 0 {
		e.log.Warn("can not create invoices for period, its subscription has no subscribers, skipping it",
			slog.Int("subscription_id", sub.ID))
		return nil
	}

	price, err := e.PricePerSubscriber(sub)
	if err != nil {
		e.log.Warn("can not price period, skipping it",
			slog.Int("subscription_id", sub.ID), slog.Any("err", err))
		return nil
	}

	invoices := make([]models.SubscriptionInvoice, 0, len(sub.Subscribers))
	for _, subscriber := range sub.Subscribers {
		invoices = append(invoices, models.SubscriptionInvoice{
			PeriodID:      period.ID,
			SubscriberUID: subscriber.UID,
			Price:         price,
			Date:          sub.StartDate,
		})
	}
	period.Invoices = append(period.Invoices, invoices...)
	return invoices
}

// PricePerSubscriber возвращает цену периода для одного подписчика.
// Первый период подписки бесплатен (промо). Далее цена категории делится
// на число текущих подписчиков с округлением вверх до цента: переплата
// в долю цента допустима, недоплата — нет.
func (e *Engine) PricePerSubscriber(sub *models.Subscription) (money.Amount, error) {
	if len(sub.Subscribers) == 0 {
		return 0, ErrNoSubscribers
	}
	if len(sub.Periods) <= 1 {
		return 0, nil
	}
	return sub.Category.Price.DivCeil(len(sub.Subscribers)), nil
}
