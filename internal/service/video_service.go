package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/repository"
)

// DefaultVideoDuration is used when the media host does not report a
// duration for the uploaded file.
const DefaultVideoDuration = 5

var ErrVideoNotFound = errors.New("video not found")

// VideoService coordinates video publishing, lookup and the caller's
// watch history.
type VideoService struct {
	logger   *zap.Logger
	videos   repository.VideoRepository
	uploader media.Uploader
}

func NewVideoService(logger *zap.Logger, videos repository.VideoRepository, uploader media.Uploader) *VideoService {
	return &VideoService{
		logger:   logger,
		videos:   videos,
		uploader: uploader,
	}
}

type PublishInput struct {
	OwnerID       string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Publish relays the video file and thumbnail through the media host
// and creates the record owned by the caller.
func (s *VideoService) Publish(ctx context.Context, input PublishInput) (domain.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return domain.Video{}, ErrMissingFields
	}
	if input.VideoPath == "" || input.ThumbnailPath == "" {
		return domain.Video{}, ErrMissingFields
	}

	videoAsset, thumbAsset, err := s.relayPair(ctx, input.VideoPath, input.ThumbnailPath)
	if err != nil {
		return domain.Video{}, err
	}

	now := time.Now().UTC()
	video := domain.Video{
		ID:           uuid.NewString(),
		OwnerID:      input.OwnerID,
		Title:        title,
		Description:  description,
		VideoURL:     videoAsset.URL,
		ThumbnailURL: thumbAsset.URL,
		Duration:     durationOrDefault(videoAsset.Duration),
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		return domain.Video{}, fmt.Errorf("create video: %w", err)
	}
	return video, nil
}

// Get fetches a video by id. When viewerID is set the view is recorded
// in the viewer's watch history; a failed append does not fail the
// fetch.
func (s *VideoService) Get(ctx context.Context, videoID, viewerID string) (domain.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Video{}, ErrVideoNotFound
		}
		return domain.Video{}, err
	}

	if viewerID != "" {
		if err := s.videos.AppendWatchHistory(ctx, viewerID, video.ID); err != nil {
			s.logger.Warn("append watch history failed", zap.Error(err), zap.String("videoId", video.ID))
		}
	}
	return video, nil
}

type UpdateInput struct {
	VideoID       string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Update replaces title, description and both media files.
func (s *VideoService) Update(ctx context.Context, input UpdateInput) (domain.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if input.VideoID == "" || title == "" || description == "" {
		return domain.Video{}, ErrMissingFields
	}
	if input.VideoPath == "" || input.ThumbnailPath == "" {
		return domain.Video{}, ErrMissingFields
	}

	video, err := s.videos.GetByID(ctx, input.VideoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Video{}, ErrVideoNotFound
		}
		return domain.Video{}, err
	}

	videoAsset, thumbAsset, err := s.relayPair(ctx, input.VideoPath, input.ThumbnailPath)
	if err != nil {
		return domain.Video{}, err
	}

	video.Title = title
	video.Description = description
	video.VideoURL = videoAsset.URL
	video.ThumbnailURL = thumbAsset.URL
	video.Duration = durationOrDefault(videoAsset.Duration)
	video.UpdatedAt = time.Now().UTC()

	if err := s.videos.Update(ctx, video); err != nil {
		return domain.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// WatchHistory returns the caller's watched videos in chronological
// order, each with its owner projection.
func (s *VideoService) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	history, err := s.videos.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load watch history: %w", err)
	}
	return history, nil
}

func (s *VideoService) relayPair(ctx context.Context, videoPath, thumbnailPath string) (media.Asset, media.Asset, error) {
	videoAsset, err := s.uploader.Upload(ctx, videoPath)
	if err != nil || videoAsset.URL == "" {
		s.logger.Warn("video upload failed", zap.Error(err))
		return media.Asset{}, media.Asset{}, ErrUploadFailed
	}
	thumbAsset, err := s.uploader.Upload(ctx, thumbnailPath)
	if err != nil || thumbAsset.URL == "" {
		s.logger.Warn("thumbnail upload failed", zap.Error(err))
		return media.Asset{}, media.Asset{}, ErrUploadFailed
	}
	return videoAsset, thumbAsset, nil
}

func durationOrDefault(d float64) float64 {
	if d <= 0 {
		return DefaultVideoDuration
	}
	return d
}
