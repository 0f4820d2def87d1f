package service

import (
	"context"
	"time"

	"rag-notes-be/internal/dto"
	"rag-notes-be/internal/pkg/apperror"
	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/internal/repository/unitofwork"
	"rag-notes-be/pkg/embedding"
	"rag-notes-be/pkg/metrics"
	"rag-notes-be/pkg/vectorindex"
)

// IReconcileService repairs drift between the notes table and the vector index.
type IReconcileService interface {
	Sweep(ctx context.Context) (*dto.ReconcileReport, error)
	Run(ctx context.Context, interval time.Duration)
}

type reconcileService struct {
	uowFactory        unitofwork.RepositoryFactory
	index             vectorindex.Index
	embeddingProvider embedding.EmbeddingProvider
	metrics           *metrics.Metrics
	logger            logger.ILogger
	// Notes younger than this may still be mid-indexing and are left alone.
	minAge time.Duration
}

func NewReconcileService(
	uowFactory unitofwork.RepositoryFactory,
	index vectorindex.Index,
	embeddingProvider embedding.EmbeddingProvider,
	m *metrics.Metrics,
	log logger.ILogger,
	minAge time.Duration,
) IReconcileService {
	return &reconcileService{
		uowFactory:        uowFactory,
		index:             index,
		embeddingProvider: embeddingProvider,
		metrics:           m,
		logger:            log,
		minAge:            minAge,
	}
}

func (s *reconcileService) Sweep(ctx context.Context) (*dto.ReconcileReport, error) {
	// Index first: a vector is only ever written after its row, so anything
	// listed here without a row afterwards is a true orphan.
	vectorIds, err := s.index.ListIds(ctx)
	if err != nil {
		return nil, apperror.Index("list vector ids failed", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx)
	if err != nil {
		return nil, apperror.Storage("list notes failed", err)
	}

	indexed := make(map[string]bool, len(vectorIds))
	for _, id := range vectorIds {
		indexed[id] = true
	}
	live := make(map[string]bool, len(notes))
	for _, n := range notes {
		live[VectorId(n.Id)] = true
	}

	report := &dto.ReconcileReport{}

	var orphans []string
	for _, id := range vectorIds {
		if !live[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		if _, err := s.index.DeleteByIds(ctx, orphans); err != nil {
			report.Failures += len(orphans)
			s.logger.Error("RECONCILE", "Failed to delete orphan vectors", map[string]interface{}{
				"count": len(orphans),
				"error": err.Error(),
			})
		} else {
			report.OrphanVectorsDeleted = len(orphans)
			s.metrics.ReconcileActions.WithLabelValues("orphan_deleted").Add(float64(len(orphans)))
		}
	}

	cutoff := time.Now().Add(-s.minAge)
	for _, n := range notes {
		if indexed[VectorId(n.Id)] || n.CreatedAt.After(cutoff) {
			continue
		}

		res, err := s.embeddingProvider.Generate(ctx, n.Text, embedding.TaskTypeDocument)
		if err == nil {
			_, err = s.index.Upsert(ctx, []vectorindex.Vector{{Id: VectorId(n.Id), Values: res.Embedding.Values}})
		}
		if err != nil {
			report.Failures++
			s.logger.Warn("RECONCILE", "Failed to index note", map[string]interface{}{
				"note_id": n.Id,
				"error":   err.Error(),
			})
			continue
		}
		report.MissingVectorsFilled++
		s.metrics.ReconcileActions.WithLabelValues("vector_filled").Inc()
	}

	return report, nil
}

func (s *reconcileService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("RECONCILE", "Sweep failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			s.logger.Info("RECONCILE", "Sweep finished", map[string]interface{}{
				"orphans_deleted": report.OrphanVectorsDeleted,
				"vectors_filled":  report.MissingVectorsFilled,
				"failures":        report.Failures,
			})
		}
	}
}
