package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
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

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatTurnRepository())
	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Transactional Turn Append", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)

		session := &entity.ChatSession{
			Id:        uuid.New(),
			Title:     "integration-" + uuid.New().String(),
			CreatedAt: time.Now(),
		}
		assert.NoError(t, txUow.ChatSessionRepository().Create(ctx, session))

		assert.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		human := &entity.ChatTurn{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          constant.ChatRoleHuman,
			Content:       "hello",
			CreatedAt:     time.Now(),
		}
		assistant := &entity.ChatTurn{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          constant.ChatRoleAssistant,
			Content:       "hi there",
			CreatedAt:     time.Now().Add(time.Millisecond),
		}
		assert.NoError(t, txUow.ChatTurnRepository().Create(ctx, human))
		assert.NoError(t, txUow.ChatTurnRepository().Create(ctx, assistant))
		assert.NoError(t, txUow.Commit())

		turns, err := txUow.ChatTurnRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		assert.NoError(t, err)
		assert.Len(t, turns, 2)
		assert.Equal(t, constant.ChatRoleHuman, turns[0].Role)
		assert.Equal(t, constant.ChatRoleAssistant, turns[1].Role)

		// Cleanup
		cleanup := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, cleanup.ChatTurnRepository().DeleteBySessionId(ctx, session.Id))
		assert.NoError(t, cleanup.ChatSessionRepository().Delete(ctx, session.Id))
	})
}
