package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/internal/repository/unitofwork"
	"ai-tutoring-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.ChatSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Transactional Message Insert", func(t *testing.T) {
		ctx := context.Background()
		userId := uuid.New()
		now := time.Now()

		session := &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     "Integration session " + uuid.New().String(),
			Language:  "en",
			Mode:      "fun",
			CreatedAt: now,
			UpdatedAt: now,
		}

		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		require.NoError(t, txUow.ChatSessionRepository().Create(ctx, session))

		message := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Type:          "user",
			Content:       "integration question",
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, txUow.ChatMessageRepository().Create(ctx, message))
		require.NoError(t, txUow.ChatSessionRepository().IncrementMessageCount(ctx, session.Id, 1, now))

		found, err := txUow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 1, found.MessageCount)

		// Rollback leaves nothing behind.
		require.NoError(t, txUow.Rollback())
		gone, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}
