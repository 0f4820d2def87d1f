package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rag-notes-be/internal/dto"
	"rag-notes-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanupTopic = "VECTOR_CLEANUP"

func startConsumer(t *testing.T, f *fixture) IPublisherService {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	publisher := NewPublisherService(cleanupTopic, pubSub)
	consumer := NewConsumerService(pubSub, publisher, cleanupTopic, f.index, f.metrics, f.log, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consumer.Consume(ctx))
	return publisher
}

func publishCleanup(t *testing.T, p IPublisherService, ids ...string) {
	t.Helper()
	payload, err := json.Marshal(dto.PublishVectorCleanupMessage{NoteId: 1, VectorIds: ids, Attempt: 1})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), payload))
}

func TestCleanupConsumerRetriesUntilDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.index.Upsert(ctx, []vectorindex.Vector{{Id: "1", Values: []float32{1, 0}}})
	require.NoError(t, err)
	f.index.deleteFailures = 2

	publisher := startConsumer(t, f)
	publishCleanup(t, publisher, "1")

	assert.Eventually(t, func() bool {
		ids, _ := f.index.ListIds(ctx)
		return len(ids) == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, f.index.calls())
}

func TestCleanupConsumerGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	f.index.deleteFailures = -1

	publisher := startConsumer(t, f)
	publishCleanup(t, publisher, "1")

	assert.Eventually(t, func() bool {
		return f.index.calls() == 5
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, f.index.calls(), "no attempts past the limit")
}

func TestCleanupConsumerSkipsGarbage(t *testing.T) {
	f := newFixture(t)
	publisher := startConsumer(t, f)

	require.NoError(t, publisher.Publish(context.Background(), []byte("{not json")))
	publishCleanup(t, publisher, "42")

	assert.Eventually(t, func() bool {
		return f.index.calls() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSweepRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// note 1 indexed normally
	_, err := f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: "indexed note"})
	require.NoError(t, err)

	// note 2 stored without a vector
	f.index.upsertErr = errBoom
	_, err = f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: "missing vector"})
	require.Error(t, err)
	f.index.upsertErr = nil

	// vector 77 has no note
	ghost, err := f.embed.Generate(ctx, "ghost", "")
	require.NoError(t, err)
	_, err = f.index.Upsert(ctx, []vectorindex.Vector{{Id: "77", Values: ghost.Embedding.Values}})
	require.NoError(t, err)

	sweeper := NewReconcileService(f.uow, f.index, f.embed, f.metrics, f.log, 0)
	report, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &dto.ReconcileReport{OrphanVectorsDeleted: 1, MissingVectorsFilled: 1}, report)

	ids, err := f.index.ListIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &dto.ReconcileReport{}, again)
}

func TestSweepLeavesFreshNotesAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.index.upsertErr = errBoom
	_, _ = f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: "just written"})
	f.index.upsertErr = nil

	report, err := NewReconcileService(f.uow, f.index, f.embed, f.metrics, f.log, time.Hour).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MissingVectorsFilled)
}
