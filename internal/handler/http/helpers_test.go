package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/cache"
	redisstore "github.com/utafrali/MicroblogGo/internal/cache/redis"
	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/event"
	mocksender "github.com/utafrali/MicroblogGo/internal/sender/mock"
	"github.com/utafrali/MicroblogGo/internal/service"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/health"
	"github.com/utafrali/MicroblogGo/pkg/httputil"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

const testSecret = "handler-test-secret"

// ============================================================================
// In-memory user directory
// ============================================================================

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) Verify(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Verified = true
	m.users[id] = u
	return nil
}

func (m *memUsers) Update(_ context.Context, id string, patch domain.AccountPatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PublicEmail != nil {
		u.PublicEmail = *patch.PublicEmail
	}
	if patch.PublicName != nil {
		u.PublicName = *patch.PublicName
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	m.users[id] = u
	return &u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

// ============================================================================
// Mock Repositories
// ============================================================================

type mockPostRepo struct {
	mock.Mock
}

func (m *mockPostRepo) List(ctx context.Context, filter domain.PostFilter, page pagination.Params) ([]domain.Post, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Post), args.Error(1)
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepo) Update(ctx context.Context, id, ownerID string, patch domain.PostPatch) (*domain.Post, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepo) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockPostRepo) PutVote(ctx context.Context, postID, userID string, positive bool) error {
	args := m.Called(ctx, postID, userID, positive)
	return args.Error(0)
}

func (m *mockPostRepo) DeleteVote(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) List(ctx context.Context, filter domain.CommentFilter, page pagination.Params) ([]domain.Comment, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	args := m.Called(ctx, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) Update(ctx context.Context, id, ownerID string, patch domain.CommentPatch) (*domain.Comment, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockCommentRepo) PutVote(ctx context.Context, commentID, userID string, positive bool) error {
	args := m.Called(ctx, commentID, userID, positive)
	return args.Error(0)
}

func (m *mockCommentRepo) DeleteVote(ctx context.Context, commentID, userID string) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}

// ============================================================================
// Test server
// ============================================================================

type testServer struct {
	handler  http.Handler
	users    *memUsers
	posts    *mockPostRepo
	comments *mockCommentRepo
	sender   *mocksender.LogSender
	accounts *service.AccountService
	tokens   *auth.TokenCodec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := newMemUsers()
	posts := new(mockPostRepo)
	comments := new(mockCommentRepo)
	sender := mocksender.NewLogSender(logger)
	tokens := auth.NewTokenCodec(testSecret)
	producer := event.NewProducer(nil, logger)

	verification := service.NewVerificationService(users,
		cache.NewVerificationCache(redisstore.NewStore(client), time.Hour),
		sender, producer, service.VerificationConfig{From: "noreply@microblog.test"}, logger)
	accounts := service.NewAccountService(users, tokens, auth.NewPasswordHasher(bcrypt.MinCost),
		verification, producer, logger)
	t.Cleanup(accounts.Wait)

	handler := NewRouter(Services{
		Accounts:     accounts,
		Verification: verification,
		Posts:        service.NewPostService(posts, accounts, logger),
		Comments:     service.NewCommentService(comments, accounts, logger),
	}, tokens, health.NewHandler(), logger, RouterConfig{ServiceName: "microblog-test"})

	return &testServer{
		handler:  handler,
		users:    users,
		posts:    posts,
		comments: comments,
		sender:   sender,
		accounts: accounts,
		tokens:   tokens,
	}
}

// addUser stores a user directly and returns its id and a token for it.
func (s *testServer) addUser(t *testing.T, role string, verified bool) (string, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, s.users.Create(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: string(hash),
		Name:         "User " + id[:8],
		Role:         role,
		Verified:     verified,
		PublicName:   true,
	}))

	token, err := s.tokens.Issue(id, role)
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doRaw(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	require.Equal(t, message, env.Error.Message)
}
