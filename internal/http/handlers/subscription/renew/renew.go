// Package renew реализует административный HTTP-обработчик запуска
// прогона продления подписок.
package renew

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
	"github.com/magabrotheeeer/filmland/internal/services/renewal"
)

// Handler обрабатывает запросы запуска продления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service определяет методы бизнес-логики продления подписок.
type Service interface {
	RenewSubscriptions(ctx context.Context) (int, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить продление подписок
// @Description Продлевает подписки, текущий период которых заканчивается в ближайшие три дня
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Число продлённых подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 409 {object} response.ErrorResponse "Продление уже выполняется"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.renew"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, ok := r.Context().Value(middlewarectx.Role).(string)
	if !ok || role != "admin" {
		log.Error("renewal requires admin role", slog.String("role", role))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("admin role required"))
		return
	}

	renewed, err := h.service.RenewSubscriptions(r.Context())
	if err != nil {
		if errors.Is(err, renewal.ErrRenewalInProgress) {
			log.Warn("renewal already in progress")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("renewal already in progress"))
			return
		}
		log.Error("renewal run failed", sl.Err(err), slog.Int("renewed", renewed))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("renewal run failed"))
		return
	}

	log.Info("renewal run finished", slog.Int("renewed", renewed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"renewed": renewed,
	}))
}
