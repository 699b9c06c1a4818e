// Package service runs ingestion: partition the source document, summarize
// its tables and build the index.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/index"
	"docqa/internal/progress"
)

// TableSummarizer produces one summary per table, in order.
type TableSummarizer interface {
	Summarize(ctx context.Context, tables []string) ([]string, error)
}

// IndexBuilder turns partitioned content into an index Outcome.
type IndexBuilder interface {
	Build(ctx context.Context, texts, summaries, tables []string) (index.Outcome, error)
}

// RAGService ingests a single source document.
type RAGService struct {
	partitioner domain.Partitioner
	summarizer  TableSummarizer
	indexer     IndexBuilder
	log         zerolog.Logger
	spinner     bool
}

func NewRAGService(partitioner domain.Partitioner, summarizer TableSummarizer, indexer IndexBuilder, logger zerolog.Logger) *RAGService {
	return &RAGService{partitioner: partitioner, summarizer: summarizer, indexer: indexer, log: logger}
}

// WithSpinner shows a terminal spinner while the document is partitioned.
func (s *RAGService) WithSpinner(enabled bool) *RAGService {
	s.spinner = enabled
	return s
}

// Ingest partitions path, summarizes tables and builds the index. Any error
// stops ingestion before a new index is published.
func (s *RAGService) Ingest(ctx context.Context, path string) (index.Outcome, error) {
	start := time.Now()
	stop := progress.StartSpinner(s.spinner, "partitioning")
	units, err := s.partitioner.Partition(ctx, path)
	stop()
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", path, err)
	}
	texts, tables := domain.SplitUnits(units)
	s.log.Info().
		Str("path", path).
		Int("texts", len(texts)).
		Int("tables", len(tables)).
		Msg("document partitioned")

	summaries, err := s.summarizer.Summarize(ctx, tables)
	if err != nil {
		return nil, err
	}

	outcome, err := s.indexer.Build(ctx, texts, summaries, tables)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	s.log.Debug().Dur("took", time.Since(start)).Msg("ingestion finished")
	return outcome, nil
}
