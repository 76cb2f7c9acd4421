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
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/ratelimit"
	"vidtube/internal/repository"
)

// UserService coordinates account business rules: registration,
// authentication, profile mutation and the channel-profile query.
type UserService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	uploader     media.Uploader
	loginLimiter ratelimit.Limiter
}

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("required fields missing")
	ErrAvatarUpload       = errors.New("avatar upload failed")
	ErrUploadFailed       = errors.New("media upload failed")
	ErrRateLimited        = errors.New("rate limited")
)

func NewUserService(logger *zap.Logger, users repository.UserRepository, uploader media.Uploader, loginLimiter ratelimit.Limiter) *UserService {
	return &UserService{
		logger:       logger,
		users:        users,
		uploader:     uploader,
		loginLimiter: loginLimiter,
	}
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FullName       string
	AvatarPath     string
	CoverImagePath string
}

// Register creates an account. The avatar is required and its relay
// failure rejects the request; the cover image is optional and a
// failed relay just leaves the URL empty.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	// The password is hashed exactly as submitted; trimming here would
	// make the stored credential diverge from what login compares.
	if username == "" || email == "" || strings.TrimSpace(input.Password) == "" || fullName == "" {
		return domain.User{}, ErrMissingFields
	}
	if input.AvatarPath == "" {
		return domain.User{}, ErrAvatarUpload
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return domain.User{}, ErrUserExists
	}

	avatar, err := s.uploader.Upload(ctx, input.AvatarPath)
	if err != nil || avatar.URL == "" {
		s.logger.Warn("avatar upload failed", zap.Error(err), zap.String("username", username))
		return domain.User{}, ErrAvatarUpload
	}

	coverURL := ""
	if input.CoverImagePath != "" {
		cover, err := s.uploader.Upload(ctx, input.CoverImagePath)
		if err != nil {
			s.logger.Warn("cover image upload failed", zap.Error(err), zap.String("username", username))
		} else {
			coverURL = cover.URL
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  string(hash),
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load created user: %w", err)
	}
	return created.Sanitized(), nil
}

// Authenticate looks a user up by username or email and verifies the
// password. Login attempts are rate limited per identifier.
func (s *UserService) Authenticate(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return domain.User{}, ErrMissingFields
	}

	key := username
	if key == "" {
		key = email
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(key) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user.Sanitized(), nil
}

// ChangePassword swaps the stored credential after verifying the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// UpdateDetails overwrites display name and email.
func (s *UserService) UpdateDetails(ctx context.Context, userID, fullName, email string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return domain.User{}, ErrMissingFields
	}

	if err := s.users.UpdateDetails(ctx, userID, fullName, email); err != nil {
		return domain.User{}, fmt.Errorf("update details: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user.Sanitized(), nil
}

// UpdateAvatar relays the new image and stores its URL. Prior media at
// the host is not cleaned up; the public identifier needed for
// deletion is not tracked.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (domain.User, error) {
	return s.updateImage(ctx, userID, localPath, s.users.UpdateAvatar)
}

// UpdateCoverImage relays the new image and stores its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (domain.User, error) {
	return s.updateImage(ctx, userID, localPath, s.users.UpdateCoverImage)
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath string, apply func(context.Context, string, string) error) (domain.User, error) {
	if localPath == "" {
		return domain.User{}, ErrMissingFields
	}
	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil || asset.URL == "" {
		s.logger.Warn("image upload failed", zap.Error(err), zap.String("userId", userID))
		return domain.User{}, ErrUploadFailed
	}
	if err := apply(ctx, userID, asset.URL); err != nil {
		return domain.User{}, fmt.Errorf("apply image update: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user.Sanitized(), nil
}

// ChannelProfile resolves a channel by username with subscription
// counts relative to the caller.
func (s *UserService) ChannelProfile(ctx context.Context, username, callerID string) (domain.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return domain.ChannelProfile{}, ErrMissingFields
	}
	profile, err := s.users.GetChannelProfile(ctx, username, callerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChannelProfile{}, ErrUserNotFound
		}
		return domain.ChannelProfile{}, err
	}
	return profile, nil
}
