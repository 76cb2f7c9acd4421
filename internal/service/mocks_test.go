package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"vidtube/internal/domain"
	"vidtube/internal/media"
)

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	return m.mutate(id, func(u *domain.User) { u.RefreshToken = token })
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.mutate(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (m *mockUserRepo) UpdateDetails(_ context.Context, id, fullName, email string) error {
	return m.mutate(id, func(u *domain.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (m *mockUserRepo) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	return m.mutate(id, func(u *domain.User) { u.AvatarURL = avatarURL })
}

func (m *mockUserRepo) UpdateCoverImage(_ context.Context, id, coverImageURL string) error {
	return m.mutate(id, func(u *domain.User) { u.CoverImageURL = coverImageURL })
}

func (m *mockUserRepo) GetChannelProfile(_ context.Context, username, callerID string) (domain.ChannelProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username != username {
			continue
		}
		return domain.ChannelProfile{
			ID:            u.ID,
			Username:      u.Username,
			FullName:      u.FullName,
			Email:         u.Email,
			AvatarURL:     u.AvatarURL,
			CoverImageURL: u.CoverImageURL,
		}, nil
	}
	return domain.ChannelProfile{}, pgx.ErrNoRows
}

func (m *mockUserRepo) mutate(id string, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&user)
	m.users[id] = user
	return nil
}

type mockVideoRepo struct {
	mu      sync.Mutex
	videos  map[string]domain.Video
	history map[string][]string
	owners  map[string]domain.VideoOwner
}

func newMockVideoRepo() *mockVideoRepo {
	return &mockVideoRepo{
		videos:  make(map[string]domain.Video),
		history: make(map[string][]string),
		owners:  make(map[string]domain.VideoOwner),
	}
}

func (m *mockVideoRepo) Create(_ context.Context, video domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[video.ID] = video
	return nil
}

func (m *mockVideoRepo) GetByID(_ context.Context, id string) (domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[id]
	if !ok {
		return domain.Video{}, pgx.ErrNoRows
	}
	return video, nil
}

func (m *mockVideoRepo) Update(_ context.Context, video domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[video.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.videos[video.ID] = video
	return nil
}

func (m *mockVideoRepo) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = append(m.history[userID], videoID)
	return nil
}

func (m *mockVideoRepo) GetWatchHistory(_ context.Context, userID string) ([]domain.WatchedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WatchedVideo
	for _, videoID := range m.history[userID] {
		video, ok := m.videos[videoID]
		if !ok {
			continue
		}
		out = append(out, domain.WatchedVideo{
			Video: video,
			Owner: m.owners[video.OwnerID],
		})
	}
	return out, nil
}

type mockSubscriptionRepo struct {
	mu    sync.Mutex
	pairs map[string]bool
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{pairs: make(map[string]bool)}
}

func (m *mockSubscriptionRepo) Create(_ context.Context, sub domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[sub.SubscriberID+"|"+sub.ChannelID] = true
	return nil
}

func (m *mockSubscriptionRepo) Delete(_ context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, subscriberID+"|"+channelID)
	return nil
}

func (m *mockSubscriptionRepo) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairs[subscriberID+"|"+channelID], nil
}

// fakeUploader returns deterministic URLs without touching the
// filesystem. Paths listed in failOn return an error instead.
type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	failOn   map[string]bool
	duration float64
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failOn: make(map[string]bool)}
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[localPath] {
		return media.Asset{}, errors.New("upload failed")
	}
	f.uploads = append(f.uploads, localPath)
	name := localPath
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return media.Asset{URL: "https://cdn.example.com/" + name, Duration: f.duration}, nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
