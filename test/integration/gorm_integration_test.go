package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/model"
	"rag-notes-be/internal/repository/specification"
	"rag-notes-be/internal/repository/unitofwork"
	"rag-notes-be/pkg/database"
	"rag-notes-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "Failed to connect to DB")

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error)
	require.NoError(t, db.AutoMigrate(&model.Note{}, &model.ChatHistory{}, &vectorindex.NoteVector{}))
	return db
}

func TestGormConnection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	sqlDB, _ := db.DB()
	assert.NoError(t, sqlDB.Ping())

	uowFactory := unitofwork.NewRepositoryFactory(db)

	t.Run("Note round trip", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		note := &entity.Note{Text: "integration " + uuid.NewString()}
		require.NoError(t, uow.NoteRepository().Create(ctx, note))
		require.NotZero(t, note.Id)
		assert.False(t, note.CreatedAt.IsZero())

		found, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: note.Id})
		require.NoError(t, err)
		assert.Equal(t, note.Text, found.Text)

		require.NoError(t, uow.NoteRepository().Delete(ctx, note.Id))
		found, err = uow.NoteRepository().FindOne(ctx, specification.ByID{ID: note.Id})
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("Chat history is scoped and ordered", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		sessionId := uuid.NewString()
		base := time.Now().UTC()

		for i, role := range []string{"user", "assistant", "user"} {
			require.NoError(t, uow.ChatHistoryRepository().Create(ctx, &entity.ChatMessage{
				SessionId: sessionId,
				Message:   role,
				Role:      role,
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}

		specs := append([]specification.Specification{specification.BySessionID{SessionID: sessionId}}, specification.RecentFirst()...)
		specs = append(specs, specification.Pagination{Limit: 2})
		rows, err := uow.ChatHistoryRepository().FindAll(ctx, specs...)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].Timestamp.After(rows[1].Timestamp))

		count, err := uow.ChatHistoryRepository().Count(ctx, specification.BySessionID{SessionID: uuid.NewString()})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Rollback discards both rows", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		sessionId := uuid.NewString()

		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.ChatHistoryRepository().Create(ctx, &entity.ChatMessage{SessionId: sessionId, Message: "q", Role: "user", Timestamp: time.Now()}))
		require.NoError(t, uow.ChatHistoryRepository().Create(ctx, &entity.ChatMessage{SessionId: sessionId, Message: "a", Role: "assistant", Timestamp: time.Now()}))
		require.NoError(t, uow.Rollback())

		count, err := uowFactory.NewUnitOfWork(ctx).ChatHistoryRepository().Count(ctx, specification.BySessionID{SessionID: sessionId})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestPgVectorIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Run inside a transaction that is never committed so existing vectors
	// (possibly of another dimension) stay out of the way.
	tx := db.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { tx.Rollback() })
	require.NoError(t, tx.Exec("DELETE FROM note_vectors").Error)

	idx := vectorindex.NewPgVectorIndex(tx)
	ids := []string{"it-a", "it-b"}

	res, err := idx.Upsert(ctx, []vectorindex.Vector{
		{Id: ids[0], Values: []float32{1, 0, 0}},
		{Id: ids[1], Values: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	// Upserting the same id overwrites rather than duplicating.
	_, err = idx.Upsert(ctx, []vectorindex.Vector{{Id: ids[0], Values: []float32{0.9, 0.1, 0}}})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ids[0], matches[0].Id)

	listed, err := idx.ListIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids, listed)

	res, err = idx.DeleteByIds(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}
