// Package vectorindex stores note embeddings keyed by the stringified note id
// and answers nearest-neighbour queries over them.
package vectorindex

import (
	"context"
)

type Vector struct {
	Id     string
	Values []float32
}

type Match struct {
	Id    string  `json:"id"`
	Score float32 `json:"score"`
}

// MutationResult reports which ids an upsert or delete touched.
type MutationResult struct {
	Count int      `json:"count"`
	Ids   []string `json:"ids"`
}

type Index interface {
	// Upsert inserts or replaces vectors by id.
	Upsert(ctx context.Context, vectors []Vector) (*MutationResult, error)
	// Query returns at most topK matches, best first.
	Query(ctx context.Context, values []float32, topK int) ([]Match, error)
	// DeleteByIds removes vectors; unknown ids are ignored.
	DeleteByIds(ctx context.Context, ids []string) (*MutationResult, error)
	ListIds(ctx context.Context) ([]string, error)
}

func mutated(ids []string) *MutationResult {
	out := make([]string, len(ids))
	copy(out, ids)
	return &MutationResult{Count: len(out), Ids: out}
}
