package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/models"
)

type userRepository struct {
	*DB
	logger *logger.Logger
}

// NewUserRepository constructs a UserRepository backed by db.
func NewUserRepository(db *DB, log *logger.Logger) UserRepository {
	return &userRepository{DB: db, logger: log}
}

func (u *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query, args, err := psql.
		Insert("users").
		Columns("login", "password_hash").
		Values(user.Login, user.PasswordHash).
		Suffix(`RETURNING user_id, login, created_at`).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build user insert: %w", err)
	}

	var created models.User
	err = u.QueryRowContext(ctx, query, args...).
		Scan(&created.UserID, &created.Login, &created.CreatedAt)
	if isUniqueViolation(err) {
		return models.User{}, ErrLoginTaken
	}
	if err != nil {
		u.logger.Err(err).Str("login", user.Login).Msg("user insert failed")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return created, nil
}

func (u *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	query, args, err := psql.
		Select("user_id", "login", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"login": login}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("build user select: %w", err)
	}

	var user models.User
	err = u.QueryRowContext(ctx, query, args...).
		Scan(&user.UserID, &user.Login, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return user, nil
}
