package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rag-notes-be/internal/constant"
	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/internal/repository/specification"
	"rag-notes-be/internal/repository/unitofwork"
	"rag-notes-be/pkg/embedding"
	"rag-notes-be/pkg/events"
	"rag-notes-be/pkg/llm"
	"rag-notes-be/pkg/metrics"
	"rag-notes-be/pkg/rag/prompt"
	"rag-notes-be/pkg/vectorindex"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IChatService interface {
	SendChat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatResponse, error)
	GetHistory(ctx context.Context, sessionId string) ([]*dto.ChatMessageResponse, error)
	SaveMessage(ctx context.Context, sessionId string, req *dto.SaveChatMessageRequest) (*dto.ChatMessageResponse, error)
}

type ChatSettings struct {
	TopK          int
	HistoryWindow int
	HistoryPage   int
	Timeout       time.Duration
	// PromptLog receives every assembled prompt when set.
	PromptLog logger.ILogger
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	index             vectorindex.Index
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	promptBuilder     *prompt.Builder
	eventPublisher    events.Publisher
	metrics           *metrics.Metrics
	logger            logger.ILogger
	settings          ChatSettings
	tracer            trace.Tracer
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	index vectorindex.Index,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	eventPublisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
	settings ChatSettings,
) IChatService {
	if settings.TopK <= 0 {
		settings.TopK = 3
	}
	if settings.HistoryWindow <= 0 {
		settings.HistoryWindow = 5
	}
	if settings.HistoryPage <= 0 {
		settings.HistoryPage = 50
	}
	return &chatService{
		uowFactory:        uowFactory,
		index:             index,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		promptBuilder:     prompt.NewBuilder(constant.ChatSystemPrompt, constant.ChatContextHeader),
		eventPublisher:    eventPublisher,
		metrics:           m,
		logger:            log,
		settings:          settings,
		tracer:            otel.Tracer("chat-service"),
	}
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string) ([]*dto.ChatMessageResponse, error) {
	rows, err := s.recent(ctx, s.uowFactory.NewUnitOfWork(ctx), sessionId, s.settings.HistoryPage)
	if err != nil {
		return nil, apperror.Storage(constant.ErrFetchChatHistory, err)
	}

	res := make([]*dto.ChatMessageResponse, 0, len(rows))
	for _, row := range rows {
		res = append(res, toChatMessageResponse(row))
	}
	return res, nil
}

func (s *chatService) SaveMessage(ctx context.Context, sessionId string, req *dto.SaveChatMessageRequest) (*dto.ChatMessageResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.Validation("Missing message")
	}
	if req.Role != constant.ChatMessageRoleUser && req.Role != constant.ChatMessageRoleAssistant {
		return nil, apperror.Validation("Invalid role")
	}

	row := &entity.ChatMessage{
		SessionId: sessionId,
		Message:   req.Message,
		Role:      req.Role,
		Timestamp: time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatHistoryRepository().Create(ctx, row); err != nil {
		return nil, apperror.Storage(constant.ErrSaveChatMessage, err)
	}
	return toChatMessageResponse(row), nil
}

// SendChat runs one retrieval-augmented turn. Steps run strictly in order and
// nothing is written unless generation succeeded.
func (s *chatService) SendChat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.Validation("Missing message")
	}

	if s.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(attribute.String("session.id", sessionId)))
	defer span.End()

	res, err := s.runTurn(ctx, sessionId, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat turn failed")
		s.metrics.ChatTurns.WithLabelValues(constant.OutcomeError).Inc()
		s.logger.Error("CHAT", "Chat turn failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil, apperror.WithMessage(err, constant.ErrProcessChat)
	}
	s.metrics.ChatTurns.WithLabelValues(constant.OutcomeOk).Inc()

	if err := s.eventPublisher.Publish(ctx, events.NewEvent(constant.EventChatTurnCompleted, map[string]interface{}{
		"session_id":    sessionId,
		"context_notes": len(res.Context),
	})); err != nil {
		s.logger.Warn("CHAT", "Failed to publish event", map[string]interface{}{
			"event": constant.EventChatTurnCompleted,
			"error": err.Error(),
		})
	}
	return res, nil
}

func (s *chatService) runTurn(ctx context.Context, sessionId, message string) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Embed the question
	var queryVector []float32
	err := s.step(ctx, "embed", func(ctx context.Context) error {
		res, err := s.embeddingProvider.Generate(ctx, message, embedding.TaskTypeQuery)
		if err != nil {
			return apperror.Inference("embedding failed", err)
		}
		queryVector = res.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 2. Nearest notes
	var matches []vectorindex.Match
	err = s.step(ctx, "retrieve", func(ctx context.Context) error {
		var err error
		matches, err = s.index.Query(ctx, queryVector, s.settings.TopK)
		if err != nil {
			return apperror.Index("vector query failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Resolve note text in rank order
	contextNotes := []string{}
	err = s.step(ctx, "context", func(ctx context.Context) error {
		var err error
		contextNotes, err = s.resolveContext(ctx, uow, matches)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 4. Recent history, oldest first
	var history []llm.Message
	err = s.step(ctx, "history", func(ctx context.Context) error {
		rows, err := s.recent(ctx, uow, sessionId, s.settings.HistoryWindow)
		if err != nil {
			return apperror.Storage("history fetch failed", err)
		}
		history = make([]llm.Message, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			history = append(history, llm.Message{Role: rows[i].Role, Content: rows[i].Message})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5-6. Prompt and generate
	var answer string
	err = s.step(ctx, "generate", func(ctx context.Context) error {
		messages := s.promptBuilder.Build(contextNotes, history, message)
		if s.settings.PromptLog != nil {
			s.settings.PromptLog.Debug("CHAT", "Prompt assembled", map[string]interface{}{
				"session_id": sessionId,
				"messages":   messages,
			})
		}
		var err error
		answer, err = s.llmProvider.Chat(ctx, messages)
		if err != nil {
			return apperror.Inference("generation failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 7. Persist the turn
	err = s.step(ctx, "persist", func(ctx context.Context) error {
		return s.persistTurn(ctx, uow, sessionId, message, answer)
	})
	if err != nil {
		return nil, err
	}

	return &dto.ChatResponse{
		Response: answer,
		Context:  contextNotes,
	}, nil
}

func (s *chatService) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "chat."+name)
	defer span.End()

	err := fn(ctx)
	s.metrics.ObserveStep(name, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return err
}

// resolveContext fetches matched notes in one lookup. Ids that no longer exist
// or do not parse as note ids are dropped.
func (s *chatService) resolveContext(ctx context.Context, uow unitofwork.UnitOfWork, matches []vectorindex.Match) ([]string, error) {
	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseUint(m.Id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, apperror.Storage("context fetch failed", err)
	}

	byId := make(map[uint]string, len(notes))
	for _, n := range notes {
		byId[n.Id] = n.Text
	}

	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		if text, ok := byId[id]; ok {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

func (s *chatService) recent(ctx context.Context, uow unitofwork.UnitOfWork, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	specs := []specification.Specification{specification.BySessionID{SessionID: sessionId}}
	specs = append(specs, specification.RecentFirst()...)
	specs = append(specs, specification.Pagination{Limit: limit})
	return uow.ChatHistoryRepository().FindAll(ctx, specs...)
}

// persistTurn writes the user row then the assistant row; neither survives
// unless both do.
func (s *chatService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, question, answer string) error {
	err := unitofwork.WithinTransaction(ctx, uow, func(tx unitofwork.UnitOfWork) error {
		repo := tx.ChatHistoryRepository()
		for _, row := range []*entity.ChatMessage{
			{SessionId: sessionId, Message: question, Role: constant.ChatMessageRoleUser},
			{SessionId: sessionId, Message: answer, Role: constant.ChatMessageRoleAssistant},
		} {
			row.Timestamp = time.Now()
			if err := repo.Create(ctx, row); err != nil {
				return fmt.Errorf("persist %s message: %w", row.Role, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperror.Storage("persist chat turn failed", err)
	}
	return nil
}

func toChatMessageResponse(row *entity.ChatMessage) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Id:        row.Id,
		SessionId: row.SessionId,
		Message:   row.Message,
		Role:      row.Role,
		Timestamp: row.Timestamp,
	}
}
