// Package hash is an offline embedder based on feature hashing. It needs no
// model server, so the index works out of the box; semantic recall is limited
// to shared words and word pairs.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultDimensions is used when New is given a non-positive size.
const DefaultDimensions = 384

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Embedder hashes unigrams and bigrams into a fixed-size, L2-normalised
// vector.
type Embedder struct {
	dim int
}

// New creates an Embedder producing vectors of the given size.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dim: dimensions}
}

// Dimension returns the vector size.
func (e *Embedder) Dimension() int { return e.dim }

// EmbedDocuments embeds each text independently.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

// EmbedQuery embeds a query as-is; hashed vectors take no query prefix.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float64, e.dim)
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		e.add(vec, tok, 1.0)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// add hashes feature into a bucket; a second hash bit picks the sign so
// collisions tend to cancel.
func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
