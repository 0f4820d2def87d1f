package memory

import (
	"context"

	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/repository/contract"
	"rag-notes-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

type ChatHistoryRepository struct {
	store  *Store
	record func(undo func())
}

func NewChatHistoryRepository(store *Store) contract.ChatHistoryRepository {
	return &ChatHistoryRepository{store: store}
}

func (r *ChatHistoryRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextChatId++
	message.Id = r.store.nextChatId
	stored := *message
	k := key(message.Id)
	r.store.chats.Set(k, &stored, cache.NoExpiration)
	if r.record != nil {
		r.record(func() { r.store.chats.Delete(k) })
	}
	return nil
}

func (r *ChatHistoryRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	q := parseSpecs(specs)

	var rows []*entity.ChatMessage
	for _, item := range r.store.chats.Items() {
		m := item.Object.(*entity.ChatMessage)
		if q.sessionId != nil && m.SessionId != *q.sessionId {
			continue
		}
		if q.hasIds && !q.ids[m.Id] {
			continue
		}
		copied := *m
		rows = append(rows, &copied)
	}

	if len(q.orders) == 0 {
		q.orders = []specification.OrderBy{{Field: "id"}}
	}
	return sortAndPage(rows, q, compareChats), nil
}

func (r *ChatHistoryRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := r.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func compareChats(a, b *entity.ChatMessage, field string) int {
	switch field {
	case "timestamp":
		return a.Timestamp.Compare(b.Timestamp)
	default:
		return compareUint(a.Id, b.Id)
	}
}
