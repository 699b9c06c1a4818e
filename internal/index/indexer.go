// Package index builds the dual-representation vector index: table
// summaries and text chunks are embedded, full tables stay in a SideMapping.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/keyword"
	"docqa/internal/progress"
	"docqa/internal/retrieval"
	"docqa/internal/vectorstore"
)

// Options configures an Indexer.
type Options struct {
	// Dir is the persist directory. Empty keeps the keyword index in memory
	// and writes nothing to disk.
	Dir             string
	Factory         vectorstore.Factory
	Embedder        domain.Embedder
	TopK            int
	KeywordFallback bool
	Progress        progress.Reporter
	Logger          zerolog.Logger
	// NewRef overrides table reference minting.
	NewRef func() domain.TableRef
}

// Indexer owns the persisted index while it is being rebuilt.
type Indexer struct {
	opts Options
	log  zerolog.Logger
}

// New creates an Indexer.
func New(opts Options) *Indexer {
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	return &Indexer{opts: opts, log: opts.Logger}
}

// Build indexes texts and tables (with their summaries) and returns Indexed,
// or Empty when there is nothing to index. A new generation is written
// beside the live one and only replaces it once complete; every other
// generation is then removed.
func (ix *Indexer) Build(ctx context.Context, texts, summaries, tables []string) (Outcome, error) {
	docs, mapping, err := BuildDocuments(texts, summaries, tables, ix.opts.NewRef)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		ix.log.Info().Msg("no documents to index")
		return Empty{}, nil
	}
	start := time.Now()

	vectors, err := ix.embed(ctx, docs)
	if err != nil {
		return nil, err
	}

	gen := uuid.NewString()
	store, kw, err := ix.write(ctx, gen, docs, vectors)
	if err != nil {
		return nil, err
	}

	var replaced string
	if ix.opts.Dir != "" {
		if replaced, err = Current(ix.opts.Dir); err != nil {
			ix.discard(ctx, gen, store, kw)
			return nil, err
		}
		if err := publish(ix.opts.Dir, gen); err != nil {
			ix.discard(ctx, gen, store, kw)
			return nil, err
		}
		ix.prune(ctx, gen)
	}
	ix.log.Info().
		Str("generation", gen).
		Str("replaced", replaced).
		Str("store", ix.opts.Factory.Name()).
		Int("documents", len(docs)).
		Int("tables", len(tables)).
		Dur("took", time.Since(start)).
		Msg("index published")

	return &Indexed{
		Retriever: retrieval.NewRetriever(store, kw, ix.opts.Embedder, retrieval.Options{
			TopK:            ix.opts.TopK,
			KeywordFallback: ix.opts.KeywordFallback,
			Logger:          ix.log,
		}),
		Formatter:  retrieval.NewFormatter(mapping),
		Generation: gen,
		Documents:  len(docs),
		Tables:     len(tables),
	}, nil
}

func (ix *Indexer) embed(ctx context.Context, docs []domain.IndexedDocument) ([][]float64, error) {
	corpus := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Content
	}
	if err := ix.opts.Embedder.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("prepare %s embedder: %w", ix.opts.Embedder.Name(), err)
	}
	ix.opts.Progress.Start(len(corpus))
	defer ix.opts.Progress.Finish()
	vectors := make([][]float64, len(corpus))
	for i, text := range corpus {
		v, err := ix.opts.Embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		if i > 0 && len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("embed document %d: %w", i, vectorstore.ErrDimensionMismatch)
		}
		vectors[i] = v
		ix.opts.Progress.Increment()
	}
	if len(vectors[0]) == 0 {
		return nil, errors.New("embedder returned empty vectors")
	}
	return vectors, nil
}

func (ix *Indexer) write(ctx context.Context, gen string, docs []domain.IndexedDocument, vectors [][]float64) (vectorstore.Storage, *keyword.Index, error) {
	var genDir string
	if ix.opts.Dir != "" {
		removed, err := resetForeign(ix.opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		if removed {
			ix.log.Warn().Str("dir", ix.opts.Dir).Msg("removed existing vector store to avoid dimension conflicts")
		}
		genDir = GenerationDir(ix.opts.Dir, gen)
		if err := os.MkdirAll(genDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create generation dir: %w", err)
		}
	}

	store, err := ix.opts.Factory.Open(ctx, genDir, gen)
	if err != nil {
		ix.removeDir(genDir)
		return nil, nil, fmt.Errorf("open %s store: %w", ix.opts.Factory.Name(), err)
	}
	fail := func(err error) (vectorstore.Storage, *keyword.Index, error) {
		ix.discard(ctx, gen, store, nil)
		return nil, nil, err
	}
	if err := store.Init(ctx, len(vectors[0])); err != nil {
		return fail(fmt.Errorf("init store: %w", err))
	}
	if err := store.Upsert(ctx, docs, vectors); err != nil {
		return fail(fmt.Errorf("store vectors: %w", err))
	}

	var kw *keyword.Index
	if genDir != "" {
		kw, err = keyword.Create(filepath.Join(genDir, keyword.DirName))
	} else {
		kw, err = keyword.NewMemOnly()
	}
	if err != nil {
		return fail(err)
	}
	if err := kw.Add(0, docs); err != nil {
		ix.closeKeywords(gen, kw)
		return fail(err)
	}
	return store, kw, nil
}

// discard drops a generation that never went live.
func (ix *Indexer) discard(ctx context.Context, gen string, store vectorstore.Storage, kw *keyword.Index) {
	ix.closeKeywords(gen, kw)
	if store != nil {
		if err := store.Drop(ctx); err != nil {
			ix.log.Warn().Err(err).Str("generation", gen).Msg("drop unpublished generation")
		}
		ix.closeStore(gen, store)
	}
	if ix.opts.Dir != "" {
		ix.removeDir(GenerationDir(ix.opts.Dir, gen))
	}
}

// prune removes every generation except keep. Failures are logged; the
// live generation is already published.
func (ix *Indexer) prune(ctx context.Context, keep string) {
	gens, err := generations(ix.opts.Dir)
	if err != nil {
		ix.log.Warn().Err(err).Msg("list generations")
		return
	}
	for _, gen := range gens {
		if gen == keep {
			continue
		}
		dir := GenerationDir(ix.opts.Dir, gen)
		store, err := ix.opts.Factory.Open(ctx, dir, gen)
		if err != nil {
			ix.log.Warn().Err(err).Str("generation", gen).Msg("open old generation")
		} else {
			if err := store.Drop(ctx); err != nil {
				ix.log.Warn().Err(err).Str("generation", gen).Msg("drop old generation")
			}
			ix.closeStore(gen, store)
		}
		ix.removeDir(dir)
		ix.log.Debug().Str("generation", gen).Msg("old generation removed")
	}
}

func (ix *Indexer) removeDir(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		ix.log.Warn().Err(err).Str("dir", dir).Msg("remove generation dir")
	}
}

func (ix *Indexer) closeStore(gen string, store vectorstore.Storage) {
	if err := store.Close(); err != nil {
		ix.log.Warn().Err(err).Str("generation", gen).Msg("close vector store")
	}
}

func (ix *Indexer) closeKeywords(gen string, kw *keyword.Index) {
	if kw == nil {
		return
	}
	if err := kw.Close(); err != nil {
		ix.log.Warn().Err(err).Str("generation", gen).Msg("close keyword index")
	}
}
