package vectorindex

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NoteVector is left dimensionless so switching embedding models only needs a re-embed.
type NoteVector struct {
	VectorId       string          `gorm:"type:varchar(64);primaryKey"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector;not null"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (NoteVector) TableName() string {
	return "note_vectors"
}

type PgVectorIndex struct {
	db *gorm.DB
}

var _ Index = &PgVectorIndex{}

func NewPgVectorIndex(db *gorm.DB) *PgVectorIndex {
	return &PgVectorIndex{db: db}
}

func (i *PgVectorIndex) Upsert(ctx context.Context, vectors []Vector) (*MutationResult, error) {
	if len(vectors) == 0 {
		return mutated(nil), nil
	}

	rows := make([]NoteVector, len(vectors))
	ids := make([]string, len(vectors))
	for n, v := range vectors {
		rows[n] = NoteVector{VectorId: v.Id, EmbeddingValue: pgvector.NewVector(v.Values)}
		ids[n] = v.Id
	}

	err := i.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vector_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding_value", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return mutated(ids), nil
}

func (i *PgVectorIndex) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		VectorId string
		Score    float64
	}
	var results []result

	queryVector := pgvector.NewVector(values)
	err := i.db.WithContext(ctx).
		Table(NoteVector{}.TableName()).
		Select("vector_id, 1 - (embedding_value <=> ?) AS score", queryVector).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(results))
	for n, r := range results {
		matches[n] = Match{Id: r.VectorId, Score: float32(r.Score)}
	}
	return matches, nil
}

func (i *PgVectorIndex) DeleteByIds(ctx context.Context, ids []string) (*MutationResult, error) {
	if len(ids) == 0 {
		return mutated(nil), nil
	}
	err := i.db.WithContext(ctx).
		Where("vector_id IN ?", ids).
		Delete(&NoteVector{}).Error
	if err != nil {
		return nil, err
	}
	return mutated(ids), nil
}

func (i *PgVectorIndex) ListIds(ctx context.Context) ([]string, error) {
	var ids []string
	err := i.db.WithContext(ctx).
		Model(&NoteVector{}).
		Order("vector_id").
		Pluck("vector_id", &ids).Error
	return ids, err
}
