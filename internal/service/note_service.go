package service

import (
	"context"
	"encoding/json"
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
	"rag-notes-be/pkg/metrics"
	"rag-notes-be/pkg/vectorindex"
)

type INoteService interface {
	List(ctx context.Context) ([]*dto.NoteResponse, error)
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	Delete(ctx context.Context, id uint) error
}

type noteService struct {
	uowFactory        unitofwork.RepositoryFactory
	index             vectorindex.Index
	embeddingProvider embedding.EmbeddingProvider
	cleanupPublisher  IPublisherService
	eventPublisher    events.Publisher
	metrics           *metrics.Metrics
	logger            logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	index vectorindex.Index,
	embeddingProvider embedding.EmbeddingProvider,
	cleanupPublisher IPublisherService,
	eventPublisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:        uowFactory,
		index:             index,
		embeddingProvider: embeddingProvider,
		cleanupPublisher:  cleanupPublisher,
		eventPublisher:    eventPublisher,
		metrics:           m,
		logger:            log,
	}
}

// VectorId is the index key for a note.
func VectorId(noteId uint) string {
	return strconv.FormatUint(uint64(noteId), 10)
}

func (c *noteService) List(ctx context.Context) ([]*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, specification.NewestNotesFirst()...)
	if err != nil {
		return nil, apperror.Storage(constant.ErrFetchNotes, err)
	}

	res := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		res = append(res, &dto.NoteResponse{
			Id:        note.Id,
			Text:      note.Text,
			CreatedAt: note.CreatedAt,
		})
	}
	return res, nil
}

// Create stores the note and then indexes it. The row is kept when indexing
// fails; the reconcile sweep fills the missing vector later.
func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperror.Validation("Missing text")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	note := entity.Note{
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		c.metrics.NotesCreated.WithLabelValues(constant.OutcomeError).Inc()
		return nil, apperror.Storage(constant.ErrCreateNote, err)
	}

	inserted, err := c.indexNote(ctx, &note)
	if err != nil {
		c.metrics.NotesCreated.WithLabelValues(constant.OutcomeError).Inc()
		c.logger.Error("NOTE", "Note stored but indexing failed", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		return nil, apperror.WithMessage(err, constant.ErrCreateNote)
	}
	c.metrics.NotesCreated.WithLabelValues(constant.OutcomeOk).Inc()

	c.publishEvent(ctx, constant.EventNoteCreated, map[string]interface{}{
		"note_id": note.Id,
	})

	return &dto.CreateNoteResponse{
		Id:   note.Id,
		Text: note.Text,
		Inserted: &dto.InsertedVectors{
			Count: inserted.Count,
			Ids:   inserted.Ids,
		},
	}, nil
}

func (c *noteService) indexNote(ctx context.Context, note *entity.Note) (*vectorindex.MutationResult, error) {
	res, err := c.embeddingProvider.Generate(ctx, note.Text, embedding.TaskTypeDocument)
	if err != nil {
		return nil, apperror.Inference("embedding failed", err)
	}

	inserted, err := c.index.Upsert(ctx, []vectorindex.Vector{{
		Id:     VectorId(note.Id),
		Values: res.Embedding.Values,
	}})
	if err != nil {
		return nil, apperror.Index("vector upsert failed", err)
	}
	return inserted, nil
}

// Delete removes the row first, then the vector. If the second step fails the
// vector id is queued for cleanup and the caller still gets an error.
func (c *noteService) Delete(ctx context.Context, id uint) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		c.metrics.NotesDeleted.WithLabelValues(constant.OutcomeError).Inc()
		return apperror.Storage(constant.ErrDeleteNote, err)
	}

	vectorIds := []string{VectorId(id)}
	if _, err := c.index.DeleteByIds(ctx, vectorIds); err != nil {
		c.metrics.NotesDeleted.WithLabelValues(constant.OutcomeError).Inc()
		c.logger.Error("NOTE", "Note row deleted but vector delete failed", map[string]interface{}{
			"note_id": id,
			"error":   err.Error(),
		})
		c.scheduleCleanup(ctx, id, vectorIds)
		return apperror.Index(constant.ErrDeleteNote, err)
	}
	c.metrics.NotesDeleted.WithLabelValues(constant.OutcomeOk).Inc()

	c.publishEvent(ctx, constant.EventNoteDeleted, map[string]interface{}{
		"note_id": id,
	})
	return nil
}

func (c *noteService) scheduleCleanup(ctx context.Context, noteId uint, vectorIds []string) {
	payload, err := json.Marshal(dto.PublishVectorCleanupMessage{
		NoteId:    noteId,
		VectorIds: vectorIds,
		Attempt:   1,
	})
	if err != nil {
		return
	}

	// Detached: the request context is about to end.
	if err := c.cleanupPublisher.Publish(context.WithoutCancel(ctx), payload); err != nil {
		c.logger.Error("NOTE", "Failed to queue vector cleanup", map[string]interface{}{
			"note_id": noteId,
			"error":   err.Error(),
		})
		return
	}
	c.metrics.VectorCleanups.WithLabelValues("queued").Inc()
}

func (c *noteService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	// Events are auxiliary; failures never fail the request.
	if err := c.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		c.logger.Warn("NOTE", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
