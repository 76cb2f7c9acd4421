package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vidtube/internal/domain"
	"vidtube/internal/media"
	"vidtube/internal/service"
)

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

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	subs  *mockSubscriptionRepo
}

func newMockUserRepo(subs *mockSubscriptionRepo) *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User), subs: subs}
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
		profile := domain.ChannelProfile{
			ID:            u.ID,
			Username:      u.Username,
			FullName:      u.FullName,
			Email:         u.Email,
			AvatarURL:     u.AvatarURL,
			CoverImageURL: u.CoverImageURL,
		}
		if m.subs != nil {
			m.subs.mu.Lock()
			for pair := range m.subs.pairs {
				parts := strings.SplitN(pair, "|", 2)
				if parts[1] == u.ID {
					profile.SubscribersCount++
					if parts[0] == callerID {
						profile.IsSubscribed = true
					}
				}
				if parts[0] == u.ID {
					profile.SubscribedToCount++
				}
			}
			m.subs.mu.Unlock()
		}
		return profile, nil
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
	users   *mockUserRepo
}

func newMockVideoRepo(users *mockUserRepo) *mockVideoRepo {
	return &mockVideoRepo{
		videos:  make(map[string]domain.Video),
		history: make(map[string][]string),
		users:   users,
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

func (m *mockVideoRepo) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WatchedVideo
	for _, videoID := range m.history[userID] {
		video, ok := m.videos[videoID]
		if !ok {
			continue
		}
		entry := domain.WatchedVideo{Video: video}
		if m.users != nil {
			if owner, err := m.users.GetByID(ctx, video.OwnerID); err == nil {
				entry.Owner = domain.VideoOwner{
					Username:  owner.Username,
					FullName:  owner.FullName,
					AvatarURL: owner.AvatarURL,
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	failAll bool
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return media.Asset{}, errors.New("upload failed")
	}
	return media.Asset{URL: "https://cdn.example.com/" + shortName(localPath)}, nil
}

func shortName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type testEnv struct {
	router    *gin.Engine
	users     *mockUserRepo
	videos    *mockVideoRepo
	subs      *mockSubscriptionRepo
	uploader  *fakeUploader
	tokenServ *service.TokenService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	subs := newMockSubscriptionRepo()
	users := newMockUserRepo(subs)
	videos := newMockVideoRepo(users)
	uploader := &fakeUploader{}

	tokenServ := service.NewTokenService(users, "access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	userServ := service.NewUserService(logger, users, uploader, allowAllLimiter{})
	videoServ := service.NewVideoService(logger, videos, uploader)
	subsServ := service.NewSubscriptionService(users, subs)

	cookies := CookieOptions{Secure: true, AccessMaxAge: 900, RefreshMaxAge: 3600}
	tmpDir := t.TempDir()

	userH := NewUserHandler(logger, userServ, videoServ, tokenServ, cookies, tmpDir)
	videoH := NewVideoHandler(logger, videoServ, tmpDir)
	subsH := NewSubscriptionHandler(logger, subsServ)

	router := NewRouter(logger, userH, videoH, subsH, tokenServ, users, nil)

	return &testEnv{
		router:    router,
		users:     users,
		videos:    videos,
		subs:      subs,
		uploader:  uploader,
		tokenServ: tokenServ,
	}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope (status %d, body %q): %v", rec.Code, rec.Body.String(), err)
	}
	return rec, env
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create file part %s: %v", field, err)
		}
		if _, err := part.Write([]byte("fake file content")); err != nil {
			t.Fatalf("write file part %s: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// registerUser drives the real register endpoint and returns the
// created user id.
func (e *testEnv) registerUser(t *testing.T, username, email, password string) string {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/users/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"fullname": "Test User",
	}, map[string]string{"avatar": "avatar.png"})

	rec, env := e.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode register data: %v", err)
	}
	return user.ID
}

// loginUser drives the real login endpoint and returns the token pair.
func (e *testEnv) loginUser(t *testing.T, username, password string) service.TokenPair {
	t.Helper()
	rec, env := e.do(t, jsonRequest(t, http.MethodPost, "/users/login", map[string]string{
		"username": username,
		"password": password,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	return service.TokenPair{AccessToken: data.AccessToken, RefreshToken: data.RefreshToken}
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
