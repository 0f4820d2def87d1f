package model

import "time"

type Note struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (Note) TableName() string {
	return "notes"
}
