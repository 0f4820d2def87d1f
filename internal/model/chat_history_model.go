package model

import "time"

// ChatHistory rows are append-only; there is no session table, SessionId is
// the cookie token as-is.
type ChatHistory struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	SessionId string    `gorm:"type:varchar(64);not null;index:idx_chat_history_session_ts,priority:1"`
	Message   string    `gorm:"type:text;not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_history_session_ts,priority:2"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}
