// Package tfidf is a local embedder for offline runs and tests.
package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"

	"docqa/internal/domain"
)

var _ domain.Embedder = (*Embedder)(nil)

// Embedder vectorizes text against the vocabulary of the indexed corpus.
// Weights are sublinear term frequency times smoothed IDF, L2-normalized.
// Text sharing no term with the corpus embeds to the zero vector, which the
// retriever treats as "no vector signal".
type Embedder struct {
	terms map[string]int
	idf   []float64
}

// NewEmbedder creates an embedder that must be prepared before use.
func NewEmbedder() *Embedder { return &Embedder{} }

func (e *Embedder) Name() string { return "tfidf" }

// Prepare fits the vocabulary to corpus, replacing any earlier fit. The
// corpus is every document about to be indexed: table summaries and text.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("tfidf: empty corpus")
	}
	df := make(map[string]int)
	for _, doc := range corpus {
		for term := range termCounts(doc) {
			df[term]++
		}
	}
	if len(df) == 0 {
		return errors.New("tfidf: corpus has no indexable terms")
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(corpus))
	e.terms = make(map[string]int, len(vocab))
	e.idf = make([]float64, len(vocab))
	for i, term := range vocab {
		e.terms[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Dimension is the vocabulary size, zero before Prepare.
func (e *Embedder) Dimension() int { return len(e.idf) }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.terms == nil {
		return nil, errors.New("tfidf: embedder not prepared")
	}
	vec := make([]float64, len(e.idf))
	var norm float64
	for term, count := range termCounts(text) {
		i, ok := e.terms[term]
		if !ok {
			continue
		}
		w := (1 + math.Log(float64(count))) * e.idf[i]
		vec[i] = w
		norm += w * w
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, t := range analyze(text) {
		counts[t]++
	}
	return counts
}
