package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/utils"
	"github.com/tabvault/tabvault/models"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	users  store.UserRepository
	tokens TokenSettings
	logger *logger.Logger
}

// NewAuthService constructs an AuthService over the user repository.
func NewAuthService(users store.UserRepository, tokens TokenSettings, log *logger.Logger) AuthService {
	return &authService{users: users, tokens: tokens, logger: log}
}

func (a *authService) Register(ctx context.Context, user models.User) (models.Token, error) {
	if user.Login == "" || user.Password == "" {
		return models.Token{}, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Token{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := a.users.CreateUser(ctx, models.User{Login: user.Login, PasswordHash: string(hash)})
	if errors.Is(err, store.ErrLoginTaken) {
		return models.Token{}, ErrLoginTaken
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("create user: %w", err)
	}

	a.logger.Info().Str("login", created.Login).Int64("user_id", created.UserID).Msg("registered new user")
	return utils.GenerateJWTToken(a.tokens.Issuer, created.UserID, a.tokens.Duration, a.tokens.SignKey)
}

func (a *authService) Login(ctx context.Context, user models.User) (models.Token, error) {
	found, err := a.users.FindUserByLogin(ctx, user.Login)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(user.Password)) != nil {
		return models.Token{}, ErrInvalidCredentials
	}

	return utils.GenerateJWTToken(a.tokens.Issuer, found.UserID, a.tokens.Duration, a.tokens.SignKey)
}

func (a *authService) ValidateToken(tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokens.SignKey, a.tokens.Issuer)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return token, nil
}
