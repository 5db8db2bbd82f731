package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/filmland/internal/lib/jwt"
	"github.com/magabrotheeeer/filmland/internal/lib/password"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *RepoMock) *Service {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewService(repo, maker, newNoopLogger())
}

var notFound = fmt.Errorf("storage.FindUserByEmail: %w", repository.ErrNotFound)

func TestService_Register(t *testing.T) {
	req := models.RegisterRequest{Email: "a@x.com", Username: "a", Password: "password123"}

	t.Run("creates user with hashed password and user role", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindUserByEmail", mock.Anything, "a@x.com").Return(nil, notFound).Once()
		repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
			return user.Email == "a@x.com" &&
				user.Role == "user" &&
				user.UID != "" &&
				password.CompareHash(user.PasswordHash, "password123") == nil
		})).Return("uid-a", nil).Once()
		svc := newService(repo)

		uid, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "uid-a", uid)
		repo.AssertExpectations(t)
	})

	t.Run("fails when email is taken", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindUserByEmail", mock.Anything, "a@x.com").
			Return(&models.User{Email: "a@x.com"}, nil).Once()
		svc := newService(repo)

		_, err := svc.Register(context.Background(), req)

		assert.ErrorIs(t, err, ErrEmailTaken)
		repo.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
	})
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)
	user := &models.User{UID: "uid-a", Email: "a@x.com", PasswordHash: hash, Role: "user"}

	t.Run("returns parseable token", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindUserByEmail", mock.Anything, "a@x.com").Return(user, nil).Once()
		maker := jwt.NewJWTMaker("test-secret", time.Hour)
		svc := NewService(repo, maker, newNoopLogger())

		token, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@x.com", Password: "password123"})

		require.NoError(t, err)
		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claims.Email)
		assert.Equal(t, "user", claims.Role)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindUserByEmail", mock.Anything, "a@x.com").Return(user, nil).Once()
		svc := newService(repo)

		_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@x.com", Password: "wrong"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects unknown user with the same error", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindUserByEmail", mock.Anything, "ghost@x.com").Return(nil, notFound).Once()
		svc := newService(repo)

		_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@x.com", Password: "password123"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
