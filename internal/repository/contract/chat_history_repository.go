package contract

import (
	"context"

	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/repository/specification"
)

type ChatHistoryRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
