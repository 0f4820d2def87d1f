package memory

import (
	"context"

	"rag-notes-be/internal/entity"
	"rag-notes-be/internal/repository/contract"
	"rag-notes-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

type NoteRepository struct {
	store  *Store
	record func(undo func())
}

func NewNoteRepository(store *Store) contract.NoteRepository {
	return &NoteRepository{store: store}
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextNoteId++
	note.Id = r.store.nextNoteId
	stored := *note
	k := key(note.Id)
	r.store.notes.Set(k, &stored, cache.NoExpiration)
	if r.record != nil {
		r.record(func() { r.store.notes.Delete(k) })
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uint) error {
	k := key(id)
	prev, found := r.store.notes.Get(k)
	r.store.notes.Delete(k)
	if found && r.record != nil {
		r.record(func() { r.store.notes.Set(k, prev, cache.NoExpiration) })
	}
	return nil
}

func (r *NoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil || len(notes) == 0 {
		return nil, err
	}
	return notes[0], nil
}

func (r *NoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	q := parseSpecs(specs)

	var rows []*entity.Note
	for _, item := range r.store.notes.Items() {
		n := item.Object.(*entity.Note)
		if q.hasIds && !q.ids[n.Id] {
			continue
		}
		copied := *n
		rows = append(rows, &copied)
	}

	// Stable output even without an OrderBy.
	if len(q.orders) == 0 {
		q.orders = []specification.OrderBy{{Field: "id"}}
	}
	return sortAndPage(rows, q, compareNotes), nil
}

func (r *NoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	notes, err := r.FindAll(ctx, specs...)
	return int64(len(notes)), err
}

func compareNotes(a, b *entity.Note, field string) int {
	switch field {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "text":
		switch {
		case a.Text < b.Text:
			return -1
		case a.Text > b.Text:
			return 1
		}
		return 0
	default:
		return compareUint(a.Id, b.Id)
	}
}
