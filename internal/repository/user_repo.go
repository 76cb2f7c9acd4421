package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/domain"
)

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateRefreshToken(ctx context.Context, id, token string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) error
	GetChannelProfile(ctx context.Context, username, callerID string) (domain.ChannelProfile, error)
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *PgUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $2`
	return r.scanUser(ctx, query, username, email)
}

func (r *PgUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, username, email).Scan(&exists)
	return exists, err
}

func (r *PgUserRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	const query = `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, query, id, token, time.Now().UTC())
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, query, id, passwordHash, time.Now().UTC())
}

func (r *PgUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) error {
	const query = `UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1`
	return r.exec(ctx, query, id, fullName, email, time.Now().UTC())
}

func (r *PgUserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	const query = `UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, query, id, avatarURL, time.Now().UTC())
}

func (r *PgUserRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) error {
	const query = `UPDATE users SET cover_image_url = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, query, id, coverImageURL, time.Now().UTC())
}

// GetChannelProfile resolves a channel by username together with its
// subscriber counts and whether callerID is among the subscribers.
func (r *PgUserRepository) GetChannelProfile(ctx context.Context, username, callerID string) (domain.ChannelProfile, error) {
	const query = `
		SELECT
			u.id,
			u.username,
			u.full_name,
			u.email,
			u.avatar_url,
			u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id = $2
			) AS is_subscribed
		FROM users u
		WHERE u.username = $1
	`
	var p domain.ChannelProfile
	err := r.pool.QueryRow(ctx, query, username, callerID).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.Email,
		&p.AvatarURL,
		&p.CoverImageURL,
		&p.SubscribersCount,
		&p.SubscribedToCount,
		&p.IsSubscribed,
	)
	if err != nil {
		return domain.ChannelProfile{}, err
	}
	return p, nil
}

func (r *PgUserRepository) scanUser(ctx context.Context, query string, args ...any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, normalizeLookupErr(err)
	}
	return u, nil
}

func (r *PgUserRepository) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}
