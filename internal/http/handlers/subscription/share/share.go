// Package share реализует HTTP-обработчик шаринга подписки с другим
// пользователем.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/filmland/internal/http/middlewarectx"
	"github.com/magabrotheeeer/filmland/internal/http/response"
	"github.com/magabrotheeeer/filmland/internal/lib/sl"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/services/subscription"
)

// Handler обрабатывает запросы шаринга подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service определяет методы бизнес-логики шаринга подписки.
type Service interface {
	ShareSubscription(ctx context.Context, ownerEmail, otherEmail, categoryName string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Поделиться подпиской
// @Description Добавляет другого пользователя в подписку владельца на категорию
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.ShareRequest true "Категория и email получателя"
// @Success 200 {object} response.OKResponse "Подписка расшарена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или владелец не подписан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь или категория не найдены"
// @Failure 409 {object} response.ErrorResponse "Получатель уже подписан"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/share [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.share"

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

	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded",
		slog.String("category", req.CategoryName), slog.String("with", req.Email))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.ShareSubscription(r.Context(), email, req.Email, req.CategoryName); err != nil {
		writeServiceError(w, r, log, err)
		return
	}

	log.Info("subscription shared",
		slog.String("category", req.CategoryName), slog.String("with", req.Email))
	render.JSON(w, r, response.OKWithData(nil))
}

// writeServiceError транслирует типизированные ошибки сервиса подписок
// в HTTP-статусы. Отсутствие подписки у владельца — ошибка запроса (400),
// а не отсутствие ресурса.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var userNotFound *subscription.UserNotFoundError
	var categoryNotFound *subscription.CategoryNotFoundError
	var alreadySubscribed *subscription.AlreadySubscribedError
	var notSubscribed *subscription.NotSubscribedError

	switch {
	case errors.As(err, &userNotFound):
		log.Error("user not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(userNotFound.Error()))
	case errors.As(err, &categoryNotFound):
		log.Error("category not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(categoryNotFound.Error()))
	case errors.As(err, &alreadySubscribed):
		log.Error("already subscribed", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error(alreadySubscribed.Error()))
	case errors.As(err, &notSubscribed):
		log.Error("owner is not subscribed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(notSubscribed.Error()))
	default:
		log.Error("failed to share subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not share subscription"))
	}
}
