package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex keeps vectors in an embedded chromem-go collection.
// chromem has no id listing, so the index tracks ids itself.
type ChromemIndex struct {
	collection *chromem.Collection
	ids        map[string]struct{}
	mu         sync.RWMutex
}

var _ Index = &ChromemIndex{}

func NewChromemIndex(db *chromem.DB, name string) (*ChromemIndex, error) {
	col, err := db.GetOrCreateCollection(
		name,
		nil, // no collection metadata
		nil, // embeddings are always supplied by the caller
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemIndex{
		collection: col,
		ids:        make(map[string]struct{}),
	}, nil
}

func (i *ChromemIndex) Upsert(ctx context.Context, vectors []Vector) (*MutationResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	ids := make([]string, 0, len(vectors))
	for _, v := range vectors {
		// AddDocument replaces an existing document with the same id
		err := i.collection.AddDocument(ctx, chromem.Document{
			ID:        v.Id,
			Embedding: v.Values,
		})
		if err != nil {
			return nil, fmt.Errorf("add document %s: %w", v.Id, err)
		}
		i.ids[v.Id] = struct{}{}
		ids = append(ids, v.Id)
	}
	return mutated(ids), nil
}

func (i *ChromemIndex) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	// chromem-go requires nResults <= collection size
	if n := i.collection.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return []Match{}, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, values, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, len(results))
	for n, r := range results {
		matches[n] = Match{Id: r.ID, Score: r.Similarity}
	}
	return matches, nil
}

func (i *ChromemIndex) DeleteByIds(ctx context.Context, ids []string) (*MutationResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	present := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := i.ids[id]; ok {
			present = append(present, id)
		}
	}

	if len(present) > 0 {
		if err := i.collection.Delete(ctx, nil, nil, present...); err != nil {
			return nil, fmt.Errorf("chromem delete: %w", err)
		}
		for _, id := range present {
			delete(i.ids, id)
		}
	}
	return mutated(ids), nil
}

func (i *ChromemIndex) ListIds(ctx context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	ids := make([]string, 0, len(i.ids))
	for id := range i.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
