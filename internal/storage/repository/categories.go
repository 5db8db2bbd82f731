package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/filmland/internal/models"
)

// FindCategoryByName возвращает категорию по имени без учёта регистра.
// Возвращает ErrNotFound, если такой категории нет.
func (s *Storage) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	const op = "storage.FindCategoryByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price_cents, available_content
			  FROM categories
			  WHERE LOWER(name) = LOWER($1)`
	c := &models.Category{}
	row := s.DB.QueryRowContext(ctx, query, name)
	if err := row.Scan(&c.ID, &c.Name, &c.Price, &c.AvailableContent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListCategoriesExcluding возвращает категории, идентификаторы которых
// не входят в excludeIDs. Пустой excludeIDs возвращает весь каталог.
func (s *Storage) ListCategoriesExcluding(ctx context.Context, excludeIDs []int) ([]*models.Category, error) {
	const op = "storage.ListCategoriesExcluding"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price_cents, available_content
			  FROM categories`
	var args []any
	if len(excludeIDs) > 0 {
		placeholders, excludeArgs := inArgs(excludeIDs)
		query += ` WHERE id NOT IN (` + placeholders + `)`
		args = excludeArgs
	}
	query += ` ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.AvailableContent); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
