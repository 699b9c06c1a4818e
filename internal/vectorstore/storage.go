// Package vectorstore defines the vector index contract shared by the
// memory, sqlite and qdrant backends.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"

	"docqa/internal/domain"
)

// ErrDimensionMismatch is returned when a vector does not match the store's dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Storage persists document vectors and supports similarity search.
type Storage interface {
	// Init prepares an empty store for vectors of the given dimension.
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, docs []domain.IndexedDocument, vectors [][]float64) error
	// Search returns up to topK documents ordered by descending similarity.
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	// Drop removes everything the store persisted.
	Drop(ctx context.Context) error
	Close() error
}

// Factory opens the storage that belongs to one index generation. dir is
// the generation's private directory.
type Factory interface {
	Name() string
	Open(ctx context.Context, dir, generation string) (Storage, error)
}

// Cosine returns the cosine similarity of a and b, or zero when either is a
// zero vector.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Rank returns the indexes of the topK highest scores. Equal scores keep
// insertion order so results are deterministic.
func Rank(scores []float64, topK int) []int {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return scores[idxs[i]] > scores[idxs[j]] })
	if topK > 0 && topK < len(idxs) {
		idxs = idxs[:topK]
	}
	return idxs
}

// CheckBatch validates an Upsert batch against the expected dimension.
func CheckBatch(docs []domain.IndexedDocument, vectors [][]float64, dimension int) error {
	if len(docs) != len(vectors) {
		return errors.New("documents and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return ErrDimensionMismatch
		}
	}
	return nil
}
