package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashProvider is an offline embedding based on signed feature hashing of
// lower-cased word tokens. Texts sharing words land close together, which is
// enough for local development and tests without a model server.
type HashProvider struct {
	Dimensions int
}

func NewHashProvider(dimensions int) EmbeddingProvider {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &HashProvider{Dimensions: dimensions}
}

func (p *HashProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]float32, p.Dimensions)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, token := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()

		idx := int(sum % uint32(p.Dimensions))
		if sum&(1<<31) != 0 {
			values[idx]--
		} else {
			values[idx]++
		}
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(values),
		},
	}, nil
}
