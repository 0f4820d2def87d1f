package dto

import "time"

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response string   `json:"response"`
	Context  []string `json:"context"`
}

type SaveChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=user assistant"`
}

type ChatMessageResponse struct {
	Id        uint      `json:"id"`
	SessionId string    `json:"session_id"`
	Message   string    `json:"message"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}
