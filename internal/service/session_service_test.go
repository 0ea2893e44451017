package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/apperror"
	"ai-tutoring-be/internal/pkg/retry"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *memory.Store
	factory  unitofwork.RepositoryFactory
	sessions ISessionService
	messages IMessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	exec := retry.NewExecutor(retry.Config{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      5 * time.Millisecond,
	}, nil)
	cache := NewMemoryStatsCache()
	return &testEnv{
		store:    store,
		factory:  factory,
		sessions: NewSessionService(factory, exec, cache, nil, nil),
		messages: NewMessageService(factory, exec, cache, nil, nil),
	}
}

func (e *testEnv) mustCreateSession(t *testing.T, userId uuid.UUID, title string) *dto.SessionResponse {
	t.Helper()
	res, err := e.sessions.Create(context.Background(), userId, &dto.CreateSessionRequest{Title: title})
	require.NoError(t, err)
	return res
}

func (e *testEnv) mustAddMessage(t *testing.T, sessionId, userId uuid.UUID, msgType, content string) *dto.MessageResponse {
	t.Helper()
	res, err := e.messages.Add(context.Background(), sessionId, userId, &dto.AddMessageRequest{
		Type:    msgType,
		Content: content,
	})
	require.NoError(t, err)
	return res
}

func TestSessionCreate(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()

	res, err := env.sessions.Create(context.Background(), userId, &dto.CreateSessionRequest{
		Title:    "  Algebra help  ",
		Mode:     "learn",
		Language: "ru",
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra help", res.Title)
	assert.Equal(t, "learn", res.Mode)
	assert.Equal(t, "ru", res.Language)
	assert.Equal(t, userId, res.UserId)
	assert.Zero(t, res.MessageCount)
	assert.NotEqual(t, uuid.Nil, res.Id)
}

func TestSessionCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Create(context.Background(), uuid.New(), &dto.CreateSessionRequest{Title: "   "})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestSessionGetAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	created := env.mustCreateSession(t, owner, "Mine")

	t.Run("owner reads own session", func(t *testing.T) {
		res, err := env.sessions.Get(context.Background(), created.Id, owner, false)
		require.NoError(t, err)
		assert.Equal(t, created.Id, res.Id)
	})

	t.Run("foreign user denied", func(t *testing.T) {
		_, err := env.sessions.Get(context.Background(), created.Id, uuid.New(), false)
		require.Error(t, err)
		assert.True(t, apperror.IsAccessDenied(err))
	})

	t.Run("trusted caller skips check", func(t *testing.T) {
		res, err := env.sessions.Get(context.Background(), created.Id, uuid.Nil, false)
		require.NoError(t, err)
		assert.Equal(t, created.Id, res.Id)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := env.sessions.Get(context.Background(), uuid.New(), owner, false)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestSessionGetWithMessages(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	created := env.mustCreateSession(t, userId, "With messages")
	env.mustAddMessage(t, created.Id, userId, "user", "first")
	env.mustAddMessage(t, created.Id, userId, "assistant", "second")

	res, err := env.sessions.Get(context.Background(), created.Id, userId, true)
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "first", res.Messages[0].Content)
	assert.Equal(t, "second", res.Messages[1].Content)
	assert.Equal(t, 2, res.MessageCount)
}

func TestSessionUpdate(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	created := env.mustCreateSession(t, userId, "Old title")

	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	t.Run("title change", func(t *testing.T) {
		res, err := env.sessions.Update(context.Background(), created.Id, userId,
			&dto.UpdateSessionRequest{Title: strPtr("New title")})
		require.NoError(t, err)
		assert.Equal(t, "New title", res.Title)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		_, err := env.sessions.Update(context.Background(), created.Id, userId, &dto.UpdateSessionRequest{})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("hide session", func(t *testing.T) {
		res, err := env.sessions.Update(context.Background(), created.Id, userId,
			&dto.UpdateSessionRequest{IsHidden: boolPtr(true)})
		require.NoError(t, err)
		assert.True(t, res.IsHidden)
	})

	t.Run("foreign user denied", func(t *testing.T) {
		_, err := env.sessions.Update(context.Background(), created.Id, uuid.New(),
			&dto.UpdateSessionRequest{Title: strPtr("Hijacked")})
		require.Error(t, err)
		assert.True(t, apperror.IsAccessDenied(err))
	})
}

func TestSessionDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	created := env.mustCreateSession(t, userId, "Doomed")
	msg := env.mustAddMessage(t, created.Id, userId, "user", "soon gone")

	require.NoError(t, env.sessions.Delete(context.Background(), created.Id, userId))

	_, err := env.sessions.Get(context.Background(), created.Id, userId, false)
	assert.True(t, apperror.IsNotFound(err))

	// Cascade removed the message rows too.
	repo := env.factory.NewUnitOfWork(context.Background()).ChatMessageRepository()
	found, err := repo.FindOne(context.Background(), specification.ByID{ID: msg.Id})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSessionDeleteForeignDenied(t *testing.T) {
	env := newTestEnv(t)
	created := env.mustCreateSession(t, uuid.New(), "Protected")

	err := env.sessions.Delete(context.Background(), created.Id, uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsAccessDenied(err))
}

func TestSessionCreateRetriesTransientFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailOnce("session.create", errors.New("connection reset"))

	res, err := env.sessions.Create(context.Background(), uuid.New(), &dto.CreateSessionRequest{Title: "Persistent"})
	require.NoError(t, err)
	assert.Equal(t, "Persistent", res.Title)
}

func TestSessionCreateRetryExhausted(t *testing.T) {
	env := newTestEnv(t)
	cause := errors.New("still down")
	env.store.FailOnce("session.create", cause)
	env.store.FailOnce("session.create", cause)
	env.store.FailOnce("session.create", cause)

	_, err := env.sessions.Create(context.Background(), uuid.New(), &dto.CreateSessionRequest{Title: "Doomed"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindRetryExhausted, apperror.KindOf(err))
}

func TestSessionSearch(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	ctx := context.Background()

	algebra := env.mustCreateSession(t, userId, "Algebra basics")
	env.mustAddMessage(t, algebra.Id, userId, "user", "/solve x^2 - 4 = 0")

	geometry := env.mustCreateSession(t, userId, "Geometry proofs")
	env.mustAddMessage(t, geometry.Id, userId, "user", "how do I prove triangles congruent")

	hidden := env.mustCreateSession(t, userId, "Hidden one")
	hiddenTrue := true
	_, err := env.sessions.Update(ctx, hidden.Id, userId, &dto.UpdateSessionRequest{IsHidden: &hiddenTrue})
	require.NoError(t, err)

	// Another user's data never leaks in.
	env.mustCreateSession(t, uuid.New(), "Algebra for someone else")

	t.Run("lists visible sessions only", func(t *testing.T) {
		res, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Len(t, res.Sessions, 2)
		assert.EqualValues(t, 2, res.Pagination.TotalCount)
	})

	t.Run("text search matches message content", func(t *testing.T) {
		res, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{
			Search: "triangles", Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, res.Sessions, 1)
		assert.Equal(t, geometry.Id, res.Sessions[0].Id)
	})

	t.Run("command filter", func(t *testing.T) {
		res, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{
			CommandTypes: []string{"solve"}, Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, res.Sessions, 1)
		assert.Equal(t, algebra.Id, res.Sessions[0].Id)
		assert.Equal(t, "solve", res.Sessions[0].PrimaryCommand)
		assert.Greater(t, res.Sessions[0].DisplayPriority, 100)
	})

	t.Run("preview falls back to first user message", func(t *testing.T) {
		res, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{
			Search: "triangles", Page: 1, Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, res.Sessions, 1)
		assert.Equal(t, "how do I prove triangles congruent", res.Sessions[0].Preview)
	})

	t.Run("unknown command tag rejected", func(t *testing.T) {
		_, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{
			CommandTypes: []string{"hack"}, Page: 1, Limit: 20,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("out of range limit rejected", func(t *testing.T) {
		_, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{Page: 1, Limit: 1000})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("pagination slices results", func(t *testing.T) {
		res, err := env.sessions.Search(ctx, userId, &dto.SearchSessionsRequest{Page: 2, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, res.Sessions, 1)
		assert.EqualValues(t, 2, res.Pagination.TotalCount)
		assert.Equal(t, 2, res.Pagination.TotalPages)
		assert.True(t, res.Pagination.HasPreviousPage)
		assert.False(t, res.Pagination.HasNextPage)
	})
}

func TestSessionStats(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	ctx := context.Background()

	fun := env.mustCreateSession(t, userId, "Fun one")
	env.mustAddMessage(t, fun.Id, userId, "user", "hello")

	learnMode := "learn"
	learn, err := env.sessions.Create(ctx, userId, &dto.CreateSessionRequest{Title: "Learn one", Mode: learnMode})
	require.NoError(t, err)
	_ = learn

	stats, err := env.sessions.Stats(ctx, userId)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSessions)
	assert.EqualValues(t, 1, stats.FunSessions)
	assert.EqualValues(t, 1, stats.LearnSessions)
	assert.EqualValues(t, 0, stats.HiddenSessions)
	assert.EqualValues(t, 1, stats.TotalMessages)

	// Mutations invalidate the cached copy.
	env.mustCreateSession(t, userId, "Third")
	stats, err = env.sessions.Stats(ctx, userId)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalSessions)
}
