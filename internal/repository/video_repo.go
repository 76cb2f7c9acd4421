package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/domain"
)

// VideoRepository defines the persistence contract for videos and the
// per-user watch history.
type VideoRepository interface {
	Create(ctx context.Context, video domain.Video) error
	GetByID(ctx context.Context, id string) (domain.Video, error)
	Update(ctx context.Context, video domain.Video) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}

// PgVideoRepository implements VideoRepository using pgxpool.
type PgVideoRepository struct {
	pool *pgxpool.Pool
}

func NewPgVideoRepository(pool *pgxpool.Pool) *PgVideoRepository {
	return &PgVideoRepository{pool: pool}
}

func (r *PgVideoRepository) Create(ctx context.Context, video domain.Video) error {
	const query = `
		INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.Description,
		video.VideoURL,
		video.ThumbnailURL,
		video.Duration,
		video.IsPublished,
		video.CreatedAt,
		video.UpdatedAt,
	)
	return err
}

func (r *PgVideoRepository) GetByID(ctx context.Context, id string) (domain.Video, error) {
	const query = `
		SELECT id, owner_id, title, description, video_url, thumbnail_url, duration, is_published, created_at, updated_at
		FROM videos
		WHERE id = $1
	`
	var v domain.Video
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.OwnerID,
		&v.Title,
		&v.Description,
		&v.VideoURL,
		&v.ThumbnailURL,
		&v.Duration,
		&v.IsPublished,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return domain.Video{}, normalizeLookupErr(err)
	}
	return v, nil
}

func (r *PgVideoRepository) Update(ctx context.Context, video domain.Video) error {
	const query = `
		UPDATE videos
		SET title = $2, description = $3, video_url = $4, thumbnail_url = $5, duration = $6, updated_at = $7
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.VideoURL,
		video.ThumbnailURL,
		video.Duration,
		video.UpdatedAt,
	)
	return err
}

func (r *PgVideoRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	const query = `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, NOW())
	`
	_, err := r.pool.Exec(ctx, query, userID, videoID)
	return err
}

// GetWatchHistory returns the caller's watched videos in insertion
// order, each joined with its single owner projection. The owner join
// is an inner join: videos.owner_id is a required foreign key, so a
// missing owner row can only mean corrupted data and surfaces as a
// shorter result, not a null owner.
func (r *PgVideoRepository) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	const query = `
		SELECT
			v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
			v.duration, v.is_published, v.created_at, v.updated_at,
			o.username, o.full_name, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o  ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.WatchedVideo
	for rows.Next() {
		var w domain.WatchedVideo
		if err := rows.Scan(
			&w.ID,
			&w.OwnerID,
			&w.Title,
			&w.Description,
			&w.VideoURL,
			&w.ThumbnailURL,
			&w.Duration,
			&w.IsPublished,
			&w.CreatedAt,
			&w.UpdatedAt,
			&w.Owner.Username,
			&w.Owner.FullName,
			&w.Owner.AvatarURL,
		); err != nil {
			return nil, err
		}
		history = append(history, w)
	}
	return history, rows.Err()
}
