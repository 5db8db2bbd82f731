// Package subscription содержит бизнес-логику подписок: оформление,
// шаринг и выдачу каталога с активными подписками пользователя.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/filmland/internal/lib/month"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/services/billing"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// Repository определяет методы хранилища, используемые сервисом подписок.
type Repository interface {
	// FindUserByEmail возвращает пользователя по email без учёта регистра.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindCategoryByName возвращает категорию по имени без учёта регистра.
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	// ListCategoriesExcluding возвращает категории каталога, кроме перечисленных.
	ListCategoriesExcluding(ctx context.Context, excludeIDs []int) ([]*models.Category, error)
	// IsSubscribed проверяет подписку по состоянию хранилища.
	IsSubscribed(ctx context.Context, email, categoryName string) (bool, error)
	// FindSubscriptionID возвращает идентификатор подписки пользователя на категорию.
	FindSubscriptionID(ctx context.Context, email, categoryName string) (int, error)
	// FindSubscribedSubscriptions загружает агрегаты подписок пользователя.
	FindSubscribedSubscriptions(ctx context.Context, email string) ([]*models.Subscription, error)
	// SaveNewSubscription сохраняет подписку с периодами и инвойсами атомарно.
	SaveNewSubscription(ctx context.Context, sub *models.Subscription) (int, error)
	// AddSubscriber добавляет пользователя в состав подписчиков.
	AddSubscriber(ctx context.Context, subscriptionID int, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Service реализует операции подписок поверх хранилища и биллингового Engine.
type Service struct {
	repo   Repository
	engine *billing.Engine
	cache  Cache
	log    *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, engine *billing.Engine, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		log:    log,
	}
}

// Subscribe оформляет пользователю подписку на категорию: создаёт подписку
// с сегодняшней датой начала, первый бесплатный период и инвойсы по нему.
// Агрегат сохраняется атомарно — при любой ошибке не остаётся частичных
// записей.
func (s *Service) Subscribe(ctx context.Context, email, categoryName string) (*models.Subscription, error) {
	const op = "subscription.Subscribe"

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UserNotFoundError{Email: email}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	category, err := s.findCategoryIfNotSubscribed(ctx, email, categoryName)
	if err != nil {
		return nil, err
	}

	today := month.Today()
	sub := &models.Subscription{
		CategoryID:  category.ID,
		Category:    category,
		StartDate:   today,
		Subscribers: []models.User{*user},
	}
	period := s.engine.CreatePeriod(sub, today)
	s.engine.GenerateInvoices(sub, period)

	id, err := s.repo.SaveNewSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id
	s.log.Info("created subscription",
		slog.Int("id", id), slog.String("category", category.Name))

	s.invalidateCategories(email)
	return sub, nil
}

// ShareSubscription добавляет другого пользователя в подписку владельца.
// Уже выставленные инвойсы текущего периода не пересчитываются: новый
// подписчик начинает платить со следующего периода, где цена делится
// по составу подписчиков на момент его создания.
func (s *Service) ShareSubscription(ctx context.Context, ownerEmail, otherEmail, categoryName string) error {
	const op = "subscription.ShareSubscription"

	if _, err := s.repo.FindUserByEmail(ctx, ownerEmail); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &UserNotFoundError{Email: ownerEmail}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	other, err := s.repo.FindUserByEmail(ctx, otherEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &UserNotFoundError{Email: otherEmail}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	category, err := s.findCategoryIfNotSubscribed(ctx, otherEmail, categoryName)
	if err != nil {
		return err
	}

	subscriptionID, err := s.repo.FindSubscriptionID(ctx, ownerEmail, category.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotSubscribedError{Email: ownerEmail, Category: category.Name}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.AddSubscriber(ctx, subscriptionID, other.UID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("shared subscription",
		slog.Int("id", subscriptionID),
		slog.String("category", category.Name),
		slog.String("with", other.Email))

	s.invalidateCategories(ownerEmail)
	s.invalidateCategories(otherEmail)
	return nil
}

// GetAvailableAndSubscribed возвращает активные подписки пользователя
// и категории, на которые он ещё не подписан. Подписка без периода,
// покрывающего сегодняшний день, — повреждённое состояние: операция
// завершается ошибкой, безопасного ответа в этом случае нет.
func (s *Service) GetAvailableAndSubscribed(ctx context.Context, email string) (*models.AvailableAndSubscribedCategories, error) {
	const op = "subscription.GetAvailableAndSubscribed"

	if _, err := s.repo.FindUserByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UserNotFoundError{Email: email}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheKey := categoriesCacheKey(email)
	var cached models.AvailableAndSubscribedCategories
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read categories from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	subs, err := s.repo.FindSubscribedSubscriptions(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := month.Today()
	subscribed := make([]models.SubscribedCategoryView, 0, len(subs))
	subscribedIDs := make([]int, 0, len(subs))
	for _, sub := range subs {
		period := sub.PeriodContaining(today)
		if period == nil {
			return nil, fmt.Errorf("%s: no current period found for subscription to category: %s", op, sub.Category.Name)
		}
		subscribers := make([]string, 0, len(sub.Subscribers))
		for _, subscriber := range sub.Subscribers {
			subscribers = append(subscribers, subscriber.Email)
		}
		subscribed = append(subscribed, models.SubscribedCategoryView{
			Name:             sub.Category.Name,
			RemainingContent: period.RemainingContent,
			Price:            sub.Category.Price.String(),
			StartDate:        sub.StartDate.Format(time.DateOnly),
			Subscribers:      subscribers,
		})
		subscribedIDs = append(subscribedIDs, sub.Category.ID)
	}

	categories, err := s.repo.ListCategoriesExcluding(ctx, subscribedIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	available := make([]models.CategoryView, 0, len(categories))
	for _, category := range categories {
		available = append(available, models.CategoryView{
			Name:             category.Name,
			Price:            category.Price.String(),
			AvailableContent: category.AvailableContent,
		})
	}

	result := &models.AvailableAndSubscribedCategories{
		Available:  available,
		Subscribed: subscribed,
	}
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache categories", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// findCategoryIfNotSubscribed возвращает категорию, если пользователь
// на неё ещё не подписан.
func (s *Service) findCategoryIfNotSubscribed(ctx context.Context, email, categoryName string) (*models.Category, error) {
	const op = "subscription.findCategoryIfNotSubscribed"

	category, err := s.repo.FindCategoryByName(ctx, categoryName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &CategoryNotFoundError{Name: categoryName}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subscribed, err := s.repo.IsSubscribed(ctx, email, category.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subscribed {
		return nil, &AlreadySubscribedError{Email: email, Category: category.Name}
	}
	return category, nil
}

func (s *Service) invalidateCategories(email string) {
	key := categoriesCacheKey(email)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate categories cache", slog.String("key", key), sl.Err(err))
	}
}

// categoriesCacheKey нормализует email: "A@x.com" и "a@x.com" — один ключ.
func categoriesCacheKey(email string) string {
	return "categories:user:" + strings.ToLower(email)
}
