package renew

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/filmland/internal/http/middlewarectx"
	"github.com/magabrotheeeer/filmland/internal/services/renewal"
)

// MockService реализует интерфейс renew.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RenewSubscriptions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestRenewHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		role           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешный запуск продления",
			role: "admin",
			setupMock: func(m *MockService) {
				m.On("RenewSubscriptions", mock.Anything).Return(7, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"renewed":7}}`,
		},
		{
			name:           "недостаточно прав",
			role:           "user",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"admin role required"}`,
		},
		{
			name: "продление уже выполняется",
			role: "admin",
			setupMock: func(m *MockService) {
				m.On("RenewSubscriptions", mock.Anything).Return(0, renewal.ErrRenewalInProgress)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"renewal already in progress"}`,
		},
		{
			name: "ошибка прогона",
			role: "admin",
			setupMock: func(m *MockService) {
				m.On("RenewSubscriptions", mock.Anything).Return(200, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"renewal run failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/renew", nil)
			ctx := context.WithValue(req.Context(), middlewarectx.Role, tt.role)
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
