// Package models содержит доменные структуры подписочного биллинга
// и DTO для HTTP-слоя. Связи между агрегатами направлены сверху вниз:
// подписка владеет периодами, период — инвойсами; пользователи и категории
// только referenced по идентификатору, обратных ссылок нет.
package models

import (
	"time"

	"github.com/magabrotheeeer/filmland/internal/lib/money"
)

// User представляет зарегистрированного пользователя.
type User struct {
	UID          string
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

// Category — контентная категория каталога: имя, цена за месяц
// и квота контента. Каталог read-only для биллинга.
type Category struct {
	ID               int
	Name             string
	Price            money.Amount
	AvailableContent int
}

// Subscription — подписка одного или нескольких пользователей на категорию.
// Category заполняется при загрузке агрегата из хранилища и не изменяется.
// Subscribers — текущий состав подписчиков, он только растёт (sharing).
// Periods упорядочены по времени начала.
type Subscription struct {
	ID          int
	CategoryID  int
	Category    *Category
	StartDate   time.Time
	Subscribers []User
	Periods     []SubscriptionPeriod
}

// PeriodContaining возвращает период, в отрезок [StartDate, EndDate]
// которого попадает день day, или nil. В корректном состоянии такой период
// ровно один.
func (s *Subscription) PeriodContaining(day time.Time) *SubscriptionPeriod {
	for i := range s.Periods {
		p := &s.Periods[i]
		if !day.Before(p.StartDate) && !day.After(p.EndDate) {
			return p
		}
	}
	return nil
}

// SubscriptionPeriod — один месячный биллинговый цикл подписки.
// RemainingContent — снимок квоты категории на момент создания периода:
// прошлые периоды сохраняют историческую квоту, даже если квота категории
// позже изменилась.
type SubscriptionPeriod struct {
	ID               int
	SubscriptionID   int
	StartDate        time.Time
	EndDate          time.Time
	RemainingContent int
	Invoices         []SubscriptionInvoice
}

// SubscriptionInvoice — счёт одному подписчику за один период.
// Date — дата начала подписки, а не периода.
type SubscriptionInvoice struct {
	ID            int
	PeriodID      int
	SubscriberUID string
	Price         money.Amount
	Date          time.Time
}

// Renewal — результат продления одной подписки: новый период вместе
// с выставленными по нему инвойсами.
type Renewal struct {
	SubscriptionID int
	CategoryName   string
	Period         SubscriptionPeriod
}

// RenewalNotice — событие о продлении подписки для очереди billing.renewals.
type RenewalNotice struct {
	SubscriptionID int      `json:"subscription_id"`
	CategoryName   string   `json:"category_name"`
	PeriodStart    string   `json:"period_start"`
	PeriodEnd      string   `json:"period_end"`
	Price          string   `json:"price"`
	Subscribers    []string `json:"subscribers"`
}

// RegisterRequest используется для приёма данных регистрации из JSON-запроса.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest используется для приёма данных входа из JSON-запроса.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SubscribeRequest — запрос на подписку на категорию.
type SubscribeRequest struct {
	CategoryName string `json:"category" validate:"required"`
}

// ShareRequest — запрос на шаринг подписки с другим пользователем.
type ShareRequest struct {
	CategoryName string `json:"category" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
}

// CategoryView — категория каталога в ответе API.
type CategoryView struct {
	Name             string `json:"name"`
	Price            string `json:"price"`
	AvailableContent int    `json:"availableContent"`
}

// SubscribedCategoryView — активная подписка пользователя в ответе API.
type SubscribedCategoryView struct {
	Name             string   `json:"name"`
	RemainingContent int      `json:"remainingContent"`
	Price            string   `json:"price"`
	StartDate        string   `json:"startDate"`
	Subscribers      []string `json:"subscribers"`
}

// AvailableAndSubscribedCategories — ответ на запрос каталога:
// категории, доступные пользователю, и его активные подписки.
// Одна категория никогда не попадает в оба списка.
type AvailableAndSubscribedCategories struct {
	Available  []CategoryView           `json:"availableCategories"`
	Subscribed []SubscribedCategoryView `json:"subscribedCategories"`
}
