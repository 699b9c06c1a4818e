// Package retrieval answers a query with the nearest indexed documents and
// expands them into the context block given to the answer model.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/keyword"
	"docqa/internal/vectorstore"
)

// DefaultTopK is the number of documents returned per query.
const DefaultTopK = 5

// Options tunes a Retriever.
type Options struct {
	TopK int
	// KeywordFallback answers from the keyword index when the query has no
	// vector signal (zero vector or all-zero scores).
	KeywordFallback bool
	Logger          zerolog.Logger
}

// Retriever returns the top-k documents for a query. It keeps no state
// between calls.
type Retriever struct {
	store    vectorstore.Storage
	keywords *keyword.Index
	embedder domain.Embedder
	topK     int
	fallback bool
	log      zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewRetriever wires a Retriever over a built index. keywords may be nil.
func NewRetriever(store vectorstore.Storage, keywords *keyword.Index, embedder domain.Embedder, opts Options) *Retriever {
	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{
		store:    store,
		keywords: keywords,
		embedder: embedder,
		topK:     k,
		fallback: opts.KeywordFallback && keywords != nil,
		log:      opts.Logger,
	}
}

// TopK returns the number of documents requested per query.
func (r *Retriever) TopK() int { return r.topK }

// Retrieve returns up to TopK documents ordered by similarity to query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.IndexedDocument, error) {
	if r == nil || r.store == nil || r.embedder == nil {
		return nil, domain.ErrIndexUnavailable
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if vectorstore.IsZero(vec) && r.fallback {
		r.log.Debug().Str("reason", "zero query vector").Msg("keyword fallback")
		return r.keywordSearch(ctx, query)
	}
	results, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if r.fallback && allZero(results) {
		r.log.Debug().Str("reason", "no similar documents").Msg("keyword fallback")
		return r.keywordSearch(ctx, query)
	}
	return documents(results), nil
}

func (r *Retriever) keywordSearch(ctx context.Context, query string) ([]domain.IndexedDocument, error) {
	results, err := r.keywords.Search(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}
	return documents(results), nil
}

// Close releases the underlying indexes. Later calls return the first result.
func (r *Retriever) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.store != nil {
			errs = append(errs, r.store.Close())
		}
		if r.keywords != nil {
			errs = append(errs, r.keywords.Close())
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

func allZero(results []domain.SearchResult) bool {
	for _, res := range results {
		if res.Score != 0 {
			return false
		}
	}
	return true
}

func documents(results []domain.SearchResult) []domain.IndexedDocument {
	docs := make([]domain.IndexedDocument, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}
	return docs
}
