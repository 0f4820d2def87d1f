package entity

import "time"

type ChatMessage struct {
	Id        uint
	SessionId string
	Message   string
	Role      string
	Timestamp time.Time
}
