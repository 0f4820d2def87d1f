package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rag-notes-be/internal/constant"
	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/pkg/llm"
	"rag-notes-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const session = "7a0c6a3e-5b7e-4b43-9d0a-4a1f6f3c2b11"

func TestSendChatUsesRelevantNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: "Paris is the capital of France"})
	require.NoError(t, err)

	res, err := f.chatService().SendChat(ctx, session, &dto.ChatRequest{Message: "What is the capital of France?"})
	require.NoError(t, err)

	assert.Equal(t, "Paris.", res.Response)
	assert.Equal(t, []string{"Paris is the capital of France"}, res.Context)

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 3)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: constant.ChatSystemPrompt}, prompt[0])
	assert.Equal(t, "Relevant context:\n- Paris is the capital of France", prompt[1].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "What is the capital of France?"}, prompt[2])

	history, err := f.chatService().GetHistory(ctx, session)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history[0].Role)
	assert.Equal(t, "Paris.", history[0].Message)
	assert.Equal(t, constant.ChatMessageRoleUser, history[1].Role)
	assert.False(t, history[1].Timestamp.After(history[0].Timestamp))
}

func TestSendChatWithEmptyIndex(t *testing.T) {
	f := newFixture(t)

	res, err := f.chatService().SendChat(context.Background(), session, &dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)

	assert.NotNil(t, res.Context)
	assert.Empty(t, res.Context)

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 2, "no context block when nothing matched")
	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Equal(t, llm.RoleUser, prompt[1].Role)
}

func TestSendChatDropsStaleAndMalformedIds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: "the moon orbits the earth"})
	require.NoError(t, err)

	vec, err := f.embed.Generate(ctx, "the moon orbits the earth", "")
	require.NoError(t, err)
	_, err = f.index.Upsert(ctx, []vectorindex.Vector{
		{Id: "999", Values: vec.Embedding.Values},
		{Id: "not-a-number", Values: vec.Embedding.Values},
	})
	require.NoError(t, err)

	res, err := f.chatService().SendChat(ctx, session, &dto.ChatRequest{Message: "what orbits the earth"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the moon orbits the earth"}, res.Context)
	assert.Equal(t, uint(1), created.Id)
}

func TestSendChatContextFollowsRank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{"bananas are yellow", "cats sleep a lot", "cats chase mice and cats purr"} {
		_, err := f.noteService().Create(ctx, &dto.CreateNoteRequest{Text: text})
		require.NoError(t, err)
	}

	res, err := f.chatService().SendChat(ctx, session, &dto.ChatRequest{Message: "cats chase mice and cats purr"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Context)
	assert.Equal(t, "cats chase mice and cats purr", res.Context[0], "best match comes first even though it has the highest id")
	assert.LessOrEqual(t, len(res.Context), 3)
}

func TestSendChatHistoryWindowIsChronological(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chat := f.chatService()

	for i := 1; i <= 7; i++ {
		role := constant.ChatMessageRoleUser
		if i%2 == 0 {
			role = constant.ChatMessageRoleAssistant
		}
		_, err := chat.SaveMessage(ctx, session, &dto.SaveChatMessageRequest{Message: fmt.Sprintf("m%d", i), Role: role})
		require.NoError(t, err)
	}
	// another session must not leak in
	_, err := chat.SaveMessage(ctx, "other", &dto.SaveChatMessageRequest{Message: "foreign", Role: constant.ChatMessageRoleUser})
	require.NoError(t, err)

	_, err = chat.SendChat(ctx, session, &dto.ChatRequest{Message: "next"})
	require.NoError(t, err)

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 7) // system + 5 history + user
	var got []string
	for _, m := range prompt[1:6] {
		got = append(got, m.Content)
	}
	assert.Equal(t, []string{"m3", "m4", "m5", "m6", "m7"}, got)
	assert.Equal(t, llm.RoleAssistant, prompt[2].Role)
}

func TestSendChatFailurePersistsNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		kind  apperror.Kind
	}{
		{"embedding", func(f *fixture) { f.embed = failingEmbedder{} }, apperror.KindInference},
		{"index", func(f *fixture) { f.index.queryErr = errBoom }, apperror.KindIndex},
		{"generation", func(f *fixture) { f.llm.err = errBoom }, apperror.KindInference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			ctx := context.Background()

			_, err := f.chatService().SendChat(ctx, session, &dto.ChatRequest{Message: "hello"})
			require.Error(t, err)
			assert.Equal(t, constant.ErrProcessChat, apperror.PublicMessage(err))
			assert.True(t, apperror.IsKind(err, tt.kind))
			assert.Equal(t, 500, apperror.StatusCode(err))

			history, err := f.chatService().GetHistory(ctx, session)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestSendChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.chatService().SendChat(context.Background(), session, &dto.ChatRequest{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, "Missing message", apperror.PublicMessage(err))
	assert.Empty(t, f.llm.calls)
}

type slowLLM struct{}

func (slowLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (s slowLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil)
}

func TestSendChatTimeout(t *testing.T) {
	f := newFixture(t)
	svc := NewChatService(f.uow, f.index, f.embed, slowLLM{}, f.events, f.metrics, f.log, ChatSettings{Timeout: 20 * time.Millisecond})

	_, err := svc.SendChat(context.Background(), session, &dto.ChatRequest{Message: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, constant.ErrProcessChat, apperror.PublicMessage(err))
}

func TestGetHistoryCapsAndOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chat := f.chatService()

	for i := 1; i <= 55; i++ {
		_, err := chat.SaveMessage(ctx, session, &dto.SaveChatMessageRequest{Message: fmt.Sprintf("m%d", i), Role: constant.ChatMessageRoleUser})
		require.NoError(t, err)
	}

	history, err := chat.GetHistory(ctx, session)
	require.NoError(t, err)
	require.Len(t, history, 50)
	assert.Equal(t, "m55", history[0].Message)
	assert.Equal(t, "m6", history[49].Message)
}

func TestSaveMessageValidatesRole(t *testing.T) {
	f := newFixture(t)

	saved, err := f.chatService().SaveMessage(context.Background(), session, &dto.SaveChatMessageRequest{Message: "hi", Role: "assistant"})
	require.NoError(t, err)
	assert.Equal(t, session, saved.SessionId)
	assert.NotZero(t, saved.Id)
	assert.False(t, saved.Timestamp.IsZero())

	_, err = f.chatService().SaveMessage(context.Background(), session, &dto.SaveChatMessageRequest{Message: "hi", Role: "system"})
	assert.Equal(t, "Invalid role", apperror.PublicMessage(err))
}

func TestSendChatWritesPromptTrace(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "prompt.log")
	trace := logger.NewIsolatedLogger(path)

	svc := NewChatService(f.uow, f.index, f.embed, f.llm, f.events, f.metrics, f.log, ChatSettings{PromptLog: trace})
	_, err := svc.SendChat(context.Background(), session, &dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	require.NoError(t, trace.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"Prompt assembled"`)
	assert.Contains(t, string(raw), session)
	assert.Contains(t, string(raw), `"content":"hello"`)
}
