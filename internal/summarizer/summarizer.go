// Package summarizer turns table units into short descriptions that are
// embedded in place of the full table.
package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"docqa/internal/progress"
)

// DefaultMaxConcurrency caps in-flight summary requests.
const DefaultMaxConcurrency = 5

// Strategy summarizes a single table.
type Strategy interface {
	Name() string
	SummarizeTable(ctx context.Context, table string) (string, error)
}

// Options tunes a Summarizer.
type Options struct {
	MaxConcurrency int
	// RequestsPerSecond paces calls to the strategy; zero means unpaced.
	RequestsPerSecond float64
	Progress          progress.Reporter
	Logger            zerolog.Logger
}

// Summarizer runs a Strategy over a batch of tables with bounded parallelism.
// A failure for any table fails the whole batch; nothing is retried here.
type Summarizer struct {
	strategy Strategy
	limit    int
	limiter  *rate.Limiter
	progress progress.Reporter
	log      zerolog.Logger
}

// New creates a Summarizer.
func New(strategy Strategy, opts Options) *Summarizer {
	limit := opts.MaxConcurrency
	if limit < 1 {
		limit = DefaultMaxConcurrency
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	rep := opts.Progress
	if rep == nil {
		rep = progress.Nop{}
	}
	return &Summarizer{
		strategy: strategy,
		limit:    limit,
		limiter:  limiter,
		progress: rep,
		log:      opts.Logger,
	}
}

// Summarize returns one summary per table, in input order.
func (s *Summarizer) Summarize(ctx context.Context, tables []string) ([]string, error) {
	if len(tables) == 0 {
		return []string{}, nil
	}
	start := time.Now()
	s.progress.Start(len(tables))
	defer s.progress.Finish()

	out := make([]string, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, table := range tables {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("summarize table %d: %w", i, err)
				}
			}
			summary, err := s.strategy.SummarizeTable(gctx, table)
			if err != nil {
				return fmt.Errorf("summarize table %d: %w", i, err)
			}
			out[i] = summary
			s.progress.Increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("strategy", s.strategy.Name()).
		Int("tables", len(tables)).
		Dur("took", time.Since(start)).
		Msg("tables summarized")
	return out, nil
}
