package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/MicroblogGo/internal/cache"
	redisstore "github.com/utafrali/MicroblogGo/internal/cache/redis"
	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/event"
	"github.com/utafrali/MicroblogGo/internal/sender"
	"github.com/utafrali/MicroblogGo/pkg/pagination"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Verify(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// --- Mock Post Repository ---

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) List(ctx context.Context, filter domain.PostFilter, page pagination.Params) ([]domain.Post, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Post), args.Error(1)
}

func (m *mockPostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepository) Update(ctx context.Context, id, ownerID string, patch domain.PostPatch) (*domain.Post, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *mockPostRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockPostRepository) PutVote(ctx context.Context, postID, userID string, positive bool) error {
	args := m.Called(ctx, postID, userID, positive)
	return args.Error(0)
}

func (m *mockPostRepository) DeleteVote(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

// --- Mock Comment Repository ---

type mockCommentRepository struct {
	mock.Mock
}

func (m *mockCommentRepository) List(ctx context.Context, filter domain.CommentFilter, page pagination.Params) ([]domain.Comment, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	args := m.Called(ctx, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) Update(ctx context.Context, id, ownerID string, patch domain.CommentPatch) (*domain.Comment, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *mockCommentRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockCommentRepository) PutVote(ctx context.Context, commentID, userID string, positive bool) error {
	args := m.Called(ctx, commentID, userID, positive)
	return args.Error(0)
}

func (m *mockCommentRepository) DeleteVote(ctx context.Context, commentID, userID string) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}

// --- Mock Sender ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string { return "mock" }

func (m *mockSender) Send(ctx context.Context, msg sender.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// --- Mock Role Checker ---

type mockRoleChecker struct {
	mock.Mock
}

func (m *mockRoleChecker) IsModeratorOrAdmin(ctx context.Context, callerID string) (bool, error) {
	args := m.Called(ctx, callerID)
	return args.Bool(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer() *event.Producer {
	return event.NewProducer(nil, newTestLogger())
}

func newTestCache(t *testing.T) (*cache.VerificationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewVerificationCache(redisstore.NewStore(client), 24*time.Hour), mr
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
