package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/internal/repository/memory"
	"rag-notes-be/internal/repository/unitofwork"
	"rag-notes-be/pkg/embedding"
	"rag-notes-be/pkg/events"
	"rag-notes-be/pkg/llm"
	"rag-notes-be/pkg/metrics"
	"rag-notes-be/pkg/vectorindex"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// stubLLM records every prompt and answers with a fixed reply.
type stubLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, history)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (s *stubLLM) lastPrompt() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type failingEmbedder struct{}

func (failingEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return nil, errBoom
}

// flakyIndex wraps a real index and injects failures.
type flakyIndex struct {
	vectorindex.Index

	mu             sync.Mutex
	deleteFailures int // remaining DeleteByIds calls that fail; -1 fails forever
	deleteCalls    int
	upsertErr      error
	queryErr       error
}

func (f *flakyIndex) Upsert(ctx context.Context, vectors []vectorindex.Vector) (*vectorindex.MutationResult, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return f.Index.Upsert(ctx, vectors)
}

func (f *flakyIndex) Query(ctx context.Context, values []float32, topK int) ([]vectorindex.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Index.Query(ctx, values, topK)
}

func (f *flakyIndex) DeleteByIds(ctx context.Context, ids []string) (*vectorindex.MutationResult, error) {
	f.mu.Lock()
	f.deleteCalls++
	fail := f.deleteFailures != 0
	if f.deleteFailures > 0 {
		f.deleteFailures--
	}
	f.mu.Unlock()

	if fail {
		return nil, errBoom
	}
	return f.Index.DeleteByIds(ctx, ids)
}

func (f *flakyIndex) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteCalls
}

type capturingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

type fixture struct {
	store   *memory.Store
	uow     unitofwork.RepositoryFactory
	index   *flakyIndex
	embed   embedding.EmbeddingProvider
	llm     *stubLLM
	cleanup *capturingPublisher
	events  *events.RecordingPublisher
	metrics *metrics.Metrics
	log     logger.ILogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idx, err := vectorindex.NewChromemIndex(chromem.NewDB(), "notes")
	require.NoError(t, err)

	store := memory.NewStore()
	return &fixture{
		store:   store,
		uow:     memory.NewRepositoryFactory(store),
		index:   &flakyIndex{Index: idx},
		embed:   embedding.NewHashProvider(256),
		llm:     &stubLLM{reply: "Paris."},
		cleanup: &capturingPublisher{},
		events:  &events.RecordingPublisher{},
		metrics: metrics.New(),
		log:     logger.NewNopLogger(),
	}
}

func (f *fixture) noteService() INoteService {
	return NewNoteService(f.uow, f.index, f.embed, f.cleanup, f.events, f.metrics, f.log)
}

func (f *fixture) chatService() IChatService {
	return NewChatService(f.uow, f.index, f.embed, f.llm, f.events, f.metrics, f.log, ChatSettings{})
}
