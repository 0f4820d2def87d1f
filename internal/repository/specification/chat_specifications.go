package specification

import "gorm.io/gorm"

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// RecentFirst orders chat rows newest-first. Rows written in the same instant
// fall back to insertion order.
func RecentFirst() []Specification {
	return []Specification{
		OrderBy{Field: "timestamp", Desc: true},
		OrderBy{Field: "id", Desc: true},
	}
}
