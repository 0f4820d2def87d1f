package implementation

import (
	"context"

	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/mapper"
	"rag-notes-be/internal/model"
	"rag-notes-be/internal/repository/contract"
	"rag-notes-be/internal/repository/specification"

	"gorm.io/gorm"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

// Create fills note.Id and note.CreatedAt from the inserted row.
func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	note.Id = m.Id
	note.CreatedAt = m.CreatedAt
	return nil
}

// Delete is a hard delete. Deleting a missing id is not an error.
func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Note{}, id).Error
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	m, err := first[model.Note](ctx, r.db, specs)
	if err != nil || m == nil {
		return nil, err
	}
	return r.mapper.ToEntity(m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	rows, err := findAll[model.Note](ctx, r.db, specs)
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(rows), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return count[model.Note](ctx, r.db, specs)
}
