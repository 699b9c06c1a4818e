package domain

import "context"

// Partitioner converts a source document into ordered content units.
type Partitioner interface {
	Partition(ctx context.Context, path string) ([]ContentUnit, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator maps a prompt to a completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
