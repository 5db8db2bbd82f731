package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/magabrotheeeer/filmland/internal/models"
)

// IsSubscribed сообщает, подписан ли пользователь с данным email
// на категорию с данным именем. Сравнения без учёта регистра; проверка
// выполняется по состоянию хранилища, а не по загруженным агрегатам.
func (s *Storage) IsSubscribed(ctx context.Context, email, categoryName string) (bool, error) {
	const op = "storage.IsSubscribed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1
			      FROM subscriptions sub
			      JOIN categories c ON c.id = sub.category_id
			      JOIN subscription_subscribers ss ON ss.subscription_id = sub.id
			      JOIN users u ON u.uid = ss.user_uid
			      WHERE LOWER(u.email) = LOWER($1) AND LOWER(c.name) = LOWER($2)
			  )`
	var subscribed bool
	if err := s.DB.QueryRowContext(ctx, query, email, categoryName).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return subscribed, nil
}

// FindSubscriptionID возвращает идентификатор подписки пользователя
// на категорию. Возвращает ErrNotFound, если подписки нет.
func (s *Storage) FindSubscriptionID(ctx context.Context, email, categoryName string) (int, error) {
	const op = "storage.FindSubscriptionID"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT sub.id
			  FROM subscriptions sub
			  JOIN categories c ON c.id = sub.category_id
			  JOIN subscription_subscribers ss ON ss.subscription_id = sub.id
			  JOIN users u ON u.uid = ss.user_uid
			  WHERE LOWER(u.email) = LOWER($1) AND LOWER(c.name) = LOWER($2)`
	var id int
	if err := s.DB.QueryRowContext(ctx, query, email, categoryName).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// FindSubscribedSubscriptions загружает агрегаты всех подписок пользователя:
// подписку с категорией, периодами и составом подписчиков.
func (s *Storage) FindSubscribedSubscriptions(ctx context.Context, email string) ([]*models.Subscription, error) {
	const op = "storage.FindSubscribedSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ss.subscription_id
			  FROM subscription_subscribers ss
			  JOIN users u ON u.uid = ss.user_uid
			  WHERE LOWER(u.email) = LOWER($1)
			  ORDER BY ss.subscription_id`
	rows, err := s.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.ListSubscriptionsByIDs(ctx, ids)
}

// ListSubscriptionsByIDs загружает агрегаты подписок по списку
// идентификаторов: категорию, периоды (упорядоченные по дате начала)
// и состав подписчиков. Инвойсы периодов не загружаются.
func (s *Storage) ListSubscriptionsByIDs(ctx context.Context, ids []int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inArgs(ids)
	query := `SELECT sub.id, sub.category_id, sub.start_date,
			      c.id, c.name, c.price_cents, c.available_content
			  FROM subscriptions sub
			  JOIN categories c ON c.id = sub.category_id
			  WHERE sub.id IN (` + placeholders + `)`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	byID := make(map[int]*models.Subscription, len(ids))
	for rows.Next() {
		var sub models.Subscription
		var cat models.Category
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.StartDate,
			&cat.ID, &cat.Name, &cat.Price, &cat.AvailableContent); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub.StartDate = sub.StartDate.UTC()
		sub.Category = &cat
		byID[sub.ID] = &sub
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.loadPeriods(ctx, ids, byID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.loadSubscribers(ctx, ids, byID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*models.Subscription, 0, len(byID))
	for _, sub := range byID {
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Storage) loadPeriods(ctx context.Context, ids []int, byID map[int]*models.Subscription) error {
	placeholders, args := inArgs(ids)
	query := `SELECT id, subscription_id, start_date, end_date, remaining_content
			  FROM subscription_periods
			  WHERE subscription_id IN (` + placeholders + `)
			  ORDER BY subscription_id, start_date`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var p models.SubscriptionPeriod
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.StartDate, &p.EndDate, &p.RemainingContent); err != nil {
			return err
		}
		p.StartDate = p.StartDate.UTC()
		p.EndDate = p.EndDate.UTC()
		if sub, ok := byID[p.SubscriptionID]; ok {
			sub.Periods = append(sub.Periods, p)
		}
	}
	return rows.Err()
}

func (s *Storage) loadSubscribers(ctx context.Context, ids []int, byID map[int]*models.Subscription) error {
	placeholders, args := inArgs(ids)
	query := `SELECT ss.subscription_id, u.uid, u.email, u.username, u.role
			  FROM subscription_subscribers ss
			  JOIN users u ON u.uid = ss.user_uid
			  WHERE ss.subscription_id IN (` + placeholders + `)
			  ORDER BY ss.subscription_id, u.email`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var subscriptionID int
		var u models.User
		if err := rows.Scan(&subscriptionID, &u.UID, &u.Email, &u.Username, &u.Role); err != nil {
			return err
		}
		if sub, ok := byID[subscriptionID]; ok {
			sub.Subscribers = append(sub.Subscribers, u)
		}
	}
	return rows.Err()
}

// FindRenewableSubscriptionIDs возвращает идентификаторы подписок,
// требующих продления: подписка имеет ровно один подходящий период —
// ещё не начавшийся либо заканчивающийся не позднее in3days. Подписки
// с двумя подходящими периодами уже продлены и исключаются. Даты
// передаются параметрами, чтобы не зависеть от date-функций СУБД.
func (s *Storage) FindRenewableSubscriptionIDs(ctx context.Context, today, in3days time.Time) ([]int, error) {
	const op = "storage.FindRenewableSubscriptionIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.subscription_id
			  FROM subscription_periods p
			  WHERE p.start_date > $1
			     OR (p.end_date > $1 AND p.end_date <= $2)
			  GROUP BY p.subscription_id
			  HAVING COUNT(p.id) = 1
			  ORDER BY p.subscription_id`
	rows, err := s.DB.QueryContext(ctx, query, today, in3days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// SaveNewSubscription сохраняет новую подписку целиком: запись подписки,
// состав подписчиков, периоды и инвойсы — в одной транзакции.
// Возвращает идентификатор созданной подписки.
func (s *Storage) SaveNewSubscription(ctx context.Context, sub *models.Subscription) (int, error) {
	const op = "storage.SaveNewSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var subscriptionID int
	query := `INSERT INTO subscriptions (category_id, start_date)
			  VALUES ($1, $2)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, query, sub.CategoryID, sub.StartDate).Scan(&subscriptionID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, subscriber := range sub.Subscribers {
		query := `INSERT INTO subscription_subscribers (subscription_id, user_uid)
				  VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, subscriptionID, subscriber.UID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	for i := range sub.Periods {
		if err := insertPeriod(ctx, tx, subscriptionID, &sub.Periods[i]); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = subscriptionID
	return subscriptionID, nil
}

// AddSubscriber добавляет пользователя в состав подписчиков подписки.
func (s *Storage) AddSubscriber(ctx context.Context, subscriptionID int, userUID string) error {
	const op = "storage.AddSubscriber"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_subscribers (subscription_id, user_uid)
			  VALUES ($1, $2)`
	if _, err := s.DB.ExecContext(ctx, query, subscriptionID, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveRenewals сохраняет страницу продлений — новые периоды с их
// инвойсами — в одной транзакции. Страницы фиксируются независимо друг
// от друга: сбой на одной странице не откатывает уже сохранённые.
func (s *Storage) SaveRenewals(ctx context.Context, renewals []models.Renewal) error {
	const op = "storage.SaveRenewals"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range renewals {
		renewal := &renewals[i]
		if err := insertPeriod(ctx, tx, renewal.SubscriptionID, &renewal.Period); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func insertPeriod(ctx context.Context, tx *sql.Tx, subscriptionID int, period *models.SubscriptionPeriod) error {
	var periodID int
	query := `INSERT INTO subscription_periods (subscription_id, start_date, end_date, remaining_content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		subscriptionID, period.StartDate, period.EndDate, period.RemainingContent).Scan(&periodID); err != nil {
		return err
	}
	period.ID = periodID
	period.SubscriptionID = subscriptionID

	for i := range period.Invoices {
		invoice := &period.Invoices[i]
		var invoiceID int
		query := `INSERT INTO subscription_invoices (period_id, subscriber_uid, price_cents, invoice_date)
				  VALUES ($1, $2, $3, $4)
				  RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			periodID, invoice.SubscriberUID, invoice.Price, invoice.Date).Scan(&invoiceID); err != nil {
			return err
		}
		invoice.ID = invoiceID
		invoice.PeriodID = periodID
	}
	return nil
}
