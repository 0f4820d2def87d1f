package specification

// NewestNotesFirst orders notes by creation time, newest first.
func NewestNotesFirst() []Specification {
	return []Specification{
		OrderBy{Field: "created_at", Desc: true},
		OrderBy{Field: "id", Desc: true},
	}
}
