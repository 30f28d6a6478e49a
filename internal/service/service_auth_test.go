package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/mock"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/models"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

var testTokens = TokenSettings{
	Issuer:   "tabvault-test",
	SignKey:  "test-sign-key",
	Duration: time.Hour,
}

func newTestAuthService(t *testing.T) (AuthService, *mock.MockUserRepository) {
	ctrl := gomock.NewController(t)
	users := mock.NewMockUserRepository(ctrl)
	return NewAuthService(users, testTokens, logger.Nop()), users
}

// ── register ────────────────────────────────────────────────────────────

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	svc, users := newTestAuthService(t)

	users.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			assert.Equal(t, "dana", u.Login)
			assert.Empty(t, u.Password, "plaintext must not reach the store")
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
			u.UserID = 7
			return u, nil
		})

	token, err := svc.Register(context.Background(), models.User{Login: "dana", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), token.UserID)
	assert.NotEmpty(t, token.SignedString)
}

func TestRegister_EmptyCredentialsRejected(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), models.User{Login: "dana"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), models.User{Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_LoginTaken(t *testing.T) {
	svc, users := newTestAuthService(t)

	users.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		Return(models.User{}, store.ErrLoginTaken)

	_, err := svc.Register(context.Background(), models.User{Login: "dana", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrLoginTaken)
}

// ── login ───────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	svc, users := newTestAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users.EXPECT().
		FindUserByLogin(gomock.Any(), "dana").
		Return(models.User{UserID: 3, Login: "dana", PasswordHash: string(hash)}, nil)

	token, err := svc.Login(context.Background(), models.User{Login: "dana", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), token.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users := newTestAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users.EXPECT().
		FindUserByLogin(gomock.Any(), "dana").
		Return(models.User{UserID: 3, Login: "dana", PasswordHash: string(hash)}, nil)

	_, err = svc.Login(context.Background(), models.User{Login: "dana", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownLoginIndistinguishableFromWrongPassword(t *testing.T) {
	svc, users := newTestAuthService(t)

	users.EXPECT().
		FindUserByLogin(gomock.Any(), "ghost").
		Return(models.User{}, store.ErrUserNotFound)

	_, err := svc.Login(context.Background(), models.User{Login: "ghost", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_StoreErrorSurfaced(t *testing.T) {
	svc, users := newTestAuthService(t)

	boom := errors.New("connection reset")
	users.EXPECT().
		FindUserByLogin(gomock.Any(), "dana").
		Return(models.User{}, boom)

	_, err := svc.Login(context.Background(), models.User{Login: "dana", Password: "s3cret"})
	assert.ErrorIs(t, err, boom)
}

// ── tokens ──────────────────────────────────────────────────────────────

func TestValidateToken_RoundTrip(t *testing.T) {
	svc, users := newTestAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	users.EXPECT().
		FindUserByLogin(gomock.Any(), "dana").
		Return(models.User{UserID: 3, Login: "dana", PasswordHash: string(hash)}, nil)

	issued, err := svc.Login(context.Background(), models.User{Login: "dana", Password: "s3cret"})
	require.NoError(t, err)

	parsed, err := svc.ValidateToken(issued.SignedString)
	require.NoError(t, err)
	assert.Equal(t, int64(3), parsed.UserID)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
