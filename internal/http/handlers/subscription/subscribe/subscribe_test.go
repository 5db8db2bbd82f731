package subscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/filmland/internal/http/middlewarectx"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/services/subscription"
)

// MockService реализует интерфейс subscribe.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Subscribe(ctx context.Context, email, categoryName string) (*models.Subscription, error) {
	args := m.Called(ctx, email, categoryName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func TestSubscribeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    any
		email          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная подписка",
			requestBody: models.SubscribeRequest{CategoryName: "Dutch Films"},
			email:       "a@x.com",
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, "a@x.com", "Dutch Films").
					Return(&models.Subscription{ID: 42}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"id":42}}`,
		},
		{
			name:           "невалидные данные",
			requestBody:    models.SubscribeRequest{CategoryName: ""},
			email:          "a@x.com",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field CategoryName is a required field"}`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			email:          "a@x.com",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    models.SubscribeRequest{CategoryName: "Dutch Films"},
			email:          "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:        "категория не найдена",
			requestBody: models.SubscribeRequest{CategoryName: "Unknown"},
			email:       "a@x.com",
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, "a@x.com", "Unknown").
					Return(nil, &subscription.CategoryNotFoundError{Name: "Unknown"})
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"could not find category with name: Unknown"}`,
		},
		{
			name:        "уже подписан",
			requestBody: models.SubscribeRequest{CategoryName: "Dutch Films"},
			email:       "a@x.com",
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, "a@x.com", "Dutch Films").
					Return(nil, &subscription.AlreadySubscribedError{Email: "a@x.com", Category: "Dutch Films"})
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"user with email: a@x.com is already subscribed to category: Dutch Films"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: models.SubscribeRequest{CategoryName: "Dutch Films"},
			email:       "a@x.com",
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, "a@x.com", "Dutch Films").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not subscribe"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.email != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.User, tt.email)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
