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

// ChatHistoryRepositoryImpl is append-only.
type ChatHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatHistoryRepository(db *gorm.DB) contract.ChatHistoryRepository {
	return &ChatHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatHistoryRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.ChatMessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	message.Id = m.Id
	return nil
}

func (r *ChatHistoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	rows, err := findAll[model.ChatHistory](ctx, r.db, specs)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.ChatMessage, len(rows))
	for i, m := range rows {
		out[i] = r.mapper.ChatMessageToEntity(m)
	}
	return out, nil
}

func (r *ChatHistoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return count[model.ChatHistory](ctx, r.db, specs)
}
