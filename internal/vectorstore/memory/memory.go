package memory

import (
	"context"
	"errors"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

var (
	_ vectorstore.Storage = (*Storage)(nil)
	_ vectorstore.Factory = (*Factory)(nil)
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	docs      []domain.IndexedDocument
	release   func()
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.docs = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, docs []domain.IndexedDocument, vectors [][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := vectorstore.CheckBatch(docs, vectors, s.dimension); err != nil {
		return err
	}
	s.docs = append(s.docs, docs...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = vectorstore.Cosine(s.vectors[i], vector)
	}
	idxs := vectorstore.Rank(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{Document: s.docs[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *Storage) Drop(context.Context) error {
	s.mu.Lock()
	s.vectors = nil
	s.docs = nil
	release := s.release
	s.mu.Unlock()
	if release != nil {
		release()
	}
	return nil
}

func (s *Storage) Close() error { return nil }

// Factory keeps one Storage per generation for the life of the process.
type Factory struct {
	mu     sync.Mutex
	stores map[string]*Storage
}

func NewFactory() *Factory { return &Factory{stores: make(map[string]*Storage)} }

func (f *Factory) Name() string { return "memory" }

func (f *Factory) Open(_ context.Context, _ string, generation string) (vectorstore.Storage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[generation]
	if !ok {
		s = NewStorage()
		s.release = func() { f.forget(generation) }
		f.stores[generation] = s
	}
	return s, nil
}

// forget releases the store of a dropped generation.
func (f *Factory) forget(generation string) {
	f.mu.Lock()
	delete(f.stores, generation)
	f.mu.Unlock()
}
