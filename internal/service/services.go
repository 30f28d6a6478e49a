// Package service holds the server-side business logic: account
// registration and login, and the group upload/download operations that
// enforce the version-check precondition and feed the realtime channel.
package service

import (
	"context"
	"time"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/models"
)

//go:generate mockgen -source=services.go -destination=../mock/service_mock.go -package=mock

// AuthService manages accounts and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, user models.User) (models.Token, error)
	Login(ctx context.Context, user models.User) (models.Token, error)
	ValidateToken(tokenString string) (models.Token, error)
}

// GroupService implements the remote-store contract for group rows.
type GroupService interface {
	Upload(ctx context.Context, ownerID int64, deviceID string, req models.UploadRequest) (models.UploadResponse, error)
	Download(ctx context.Context, ownerID int64, req models.DownloadRequest) (models.DownloadResponse, error)
	GetSettings(ctx context.Context, ownerID int64) (models.Settings, error)
	PutSettings(ctx context.Context, ownerID int64, deviceID string, settings models.Settings) error
}

// ChangeNotifier receives row-level change events for broadcast to the
// owner's subscribed devices. The feed hub implements it.
type ChangeNotifier interface {
	Notify(ownerID int64, event models.ChangeEvent)
}

// Services aggregates the server-side services.
type Services struct {
	Auth   AuthService
	Groups GroupService
}

// TokenSettings configures token issuance.
type TokenSettings struct {
	Issuer   string
	SignKey  string
	Duration time.Duration
}

// NewServices wires all services over the given repositories.
func NewServices(repos store.Repositories, notifier ChangeNotifier, tokens TokenSettings, log *logger.Logger) *Services {
	return &Services{
		Auth:   NewAuthService(repos.Users, tokens, log),
		Groups: NewGroupService(repos.Groups, notifier, log),
	}
}
