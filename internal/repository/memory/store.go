// Package memory is a process-local implementation of the repositories, used
// when no database is configured and in tests. It is safe for concurrent use.
package memory

import (
	"sort"
	"strconv"
	"sync"

	"rag-notes-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

type Store struct {
	mu         sync.Mutex
	notes      *cache.Cache
	chats      *cache.Cache
	nextNoteId uint
	nextChatId uint
}

func NewStore() *Store {
	return &Store{
		notes: cache.New(cache.NoExpiration, 0),
		chats: cache.New(cache.NoExpiration, 0),
	}
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// query is the subset of specifications the in-memory repositories understand.
type query struct {
	ids       map[uint]bool
	hasIds    bool
	sessionId *string
	orders    []specification.OrderBy
	limit     int
	offset    int
}

func parseSpecs(specs []specification.Specification) query {
	q := query{limit: -1}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			q.hasIds = true
			q.ids = map[uint]bool{s.ID: true}
		case specification.ByIDs:
			q.hasIds = true
			q.ids = make(map[uint]bool, len(s.IDs))
			for _, id := range s.IDs {
				q.ids[id] = true
			}
		case specification.BySessionID:
			sid := s.SessionID
			q.sessionId = &sid
		case specification.OrderBy:
			q.orders = append(q.orders, s)
		case specification.Pagination:
			q.limit = s.Limit
			q.offset = s.Offset
		}
	}
	return q
}

// sortAndPage orders rows by each OrderBy in turn using compare, then applies
// offset and limit.
func sortAndPage[T any](rows []T, q query, compare func(a, b T, field string) int) []T {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range q.orders {
			c := compare(rows[i], rows[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.offset > 0 {
		if q.offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[q.offset:]
	}
	if q.limit >= 0 && q.limit < len(rows) {
		rows = rows[:q.limit]
	}
	return rows
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
