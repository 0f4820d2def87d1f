package entity

import "time"

type Note struct {
	Id        uint
	Text      string
	CreatedAt time.Time
}
