// Package list реализует HTTP-обработчик выдачи каталога: доступные
// пользователю категории и его активные подписки.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/filmland/internal/http/middlewarectx"
	"github.com/magabrotheeeer/filmland/internal/http/response"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/services/subscription"
)

// Handler обрабатывает запросы каталога категорий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service определяет методы бизнес-логики каталога.
type Service interface {
	GetAvailableAndSubscribed(ctx context.Context, email string) (*models.AvailableAndSubscribedCategories, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Каталог категорий
// @Description Возвращает категории, доступные пользователю, и его активные подписки
// @Tags Categories
// @Produce  json
// @Success 200 {object} models.AvailableAndSubscribedCategories
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /categories [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || email == "" {
		log.Error("user email not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.GetAvailableAndSubscribed(r.Context(), email)
	if err != nil {
		var userNotFound *subscription.UserNotFoundError
		if errors.As(err, &userNotFound) {
			log.Error("user not found", slog.String("email", email))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(userNotFound.Error()))
			return
		}
		log.Error("failed to list categories", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list categories"))
		return
	}

	log.Info("categories listed",
		slog.Int("available", len(result.Available)),
		slog.Int("subscribed", len(result.Subscribed)))
	render.JSON(w, r, response.OKWithData(result))
}
