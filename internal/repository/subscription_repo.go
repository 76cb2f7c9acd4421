package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/domain"
)

// SubscriptionRepository defines the persistence contract for
// subscriber/channel pairs.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub domain.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// PgSubscriptionRepository implements SubscriptionRepository using
// pgxpool.
type PgSubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSubscriptionRepository(pool *pgxpool.Pool) *PgSubscriptionRepository {
	return &PgSubscriptionRepository{pool: pool}
}

func (r *PgSubscriptionRepository) Create(ctx context.Context, sub domain.Subscription) error {
	const query = `
		INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.SubscriberID,
		sub.ChannelID,
		sub.CreatedAt,
	)
	return err
}

func (r *PgSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	const query = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`
	_, err := r.pool.Exec(ctx, query, subscriberID, channelID)
	return err
}

func (r *PgSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, subscriberID, channelID).Scan(&exists)
	return exists, err
}
