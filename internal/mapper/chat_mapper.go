package mapper

import (
	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatMessageToEntity(c *model.ChatHistory) *entity.ChatMessage {
	if c == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:        c.Id,
		SessionId: c.SessionId,
		Message:   c.Message,
		Role:      c.Role,
		Timestamp: c.Timestamp,
	}
}

func (m *ChatMapper) ChatMessageToModel(c *entity.ChatMessage) *model.ChatHistory {
	if c == nil {
		return nil
	}
	return &model.ChatHistory{
		Id:        c.Id,
		SessionId: c.SessionId,
		Message:   c.Message,
		Role:      c.Role,
		Timestamp: c.Timestamp,
	}
}
