// Package auth реализует регистрацию пользователей и вход по паролю
// с выдачей JWT токена.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/filmland/internal/lib/jwt"
	"github.com/magabrotheeeer/filmland/internal/lib/password"
	"github.com/magabrotheeeer/filmland/internal/models"
	"github.com/magabrotheeeer/filmland/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
// Несуществующий пользователь и неверный пароль неразличимы снаружи.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken возвращается при регистрации на уже занятый email.
var ErrEmailTaken = errors.New("email is already registered")

// Repository определяет методы хранилища, используемые сервисом авторизации.
type Repository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service реализует регистрацию и вход пользователей.
type Service struct {
	repo  Repository
	maker jwt.Maker
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		maker: maker,
		log:   log,
	}
}

// Register создаёт нового пользователя с ролью user и возвращает его UID.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	const op = "auth.Register"

	if _, err := s.repo.FindUserByEmail(ctx, req.Email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.RegisterUser(ctx, models.User{
		UID:          uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered user", slog.String("email", req.Email))
	return uid, nil
}

// Login проверяет пару email/пароль и возвращает подписанный JWT токен.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	const op = "auth.Login"

	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.maker.GenerateToken(user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}
