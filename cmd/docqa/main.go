package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"docqa/internal/chat"
	"docqa/internal/config"
	"docqa/internal/domain"
	embopenai "docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/index"
	"docqa/internal/llm/openai"
	"docqa/internal/logging"
	"docqa/internal/partition"
	"docqa/internal/progress"
	"docqa/internal/repl"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/tui"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
	"docqa/internal/vectorstore/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("Usage: docqa [--config=config.yaml] document.pdf")
		return 1
	}
	path := flag.Arg(0)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return 1
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Assemble components; remote clients check credentials here.
	emb, err := newEmbedder(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("embedder init failed")
		return 1
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("llm init failed")
		return 1
	}
	strategy, err := newSummaryStrategy(cfg, gen)
	if err != nil {
		logger.Error().Err(err).Msg("summarizer init failed")
		return 1
	}
	factory, dir, err := newStoreFactory(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("vector store init failed")
		return 1
	}

	showProgress := progress.Enabled()
	sum := summarizer.New(strategy, summarizer.Options{
		MaxConcurrency:    cfg.Summarizer.MaxConcurrency,
		RequestsPerSecond: cfg.Summarizer.RequestsPerSecond,
		Progress:          progress.New(showProgress, "summarizing tables"),
		Logger:            logger,
	})
	ix := index.New(index.Options{
		Dir:             dir,
		Factory:         factory,
		Embedder:        emb,
		TopK:            cfg.Retriever.TopK,
		KeywordFallback: cfg.Retriever.KeywordFallback,
		Progress:        progress.New(showProgress, "embedding"),
		Logger:          logger,
	})
	parts := partition.New(partition.Options{
		SentencesPerChunk: cfg.Partition.SentencesPerChunk,
		OverlapSentences:  cfg.Partition.OverlapSentences,
		PDFTextFallback:   cfg.Partition.PDFTextFallback,
	})
	svc := service.NewRAGService(parts, sum, ix, logger).WithSpinner(showProgress)

	outcome, err := svc.Ingest(ctx, path)
	if errors.Is(err, domain.ErrSourceNotFound) {
		fmt.Printf("Error: The file was not found at %s\n", path)
		return 1
	}
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("ingestion failed")
		return 1
	}

	switch o := outcome.(type) {
	case index.Empty:
		fmt.Println("No documents were processed. Please check the PDF path and partitioning process.")
		return 0
	case *index.Indexed:
		defer o.Close()
		engine := chat.NewEngine(o.Retriever, o.Formatter, gen, chat.NewMemory(), logger)
		if err := converse(ctx, cfg, engine, path, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("interactive session failed")
			return 1
		}
		return 0
	default:
		logger.Error().Msgf("unexpected index outcome %T", outcome)
		return 1
	}
}

func converse(ctx context.Context, cfg *config.AppConfig, engine *chat.Engine, source string, logger zerolog.Logger) error {
	if cfg.UI.Mode == "tui" {
		_, err := tea.NewProgram(tui.New(ctx, engine, source), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}
	return repl.New(engine, os.Stdin, os.Stdout, logger).Run(ctx)
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			Timeout:    time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Embedder.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newGenerator(cfg *config.AppConfig) (*openai.Client, error) {
	switch cfg.LLM.Type {
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			APIKeyEnv:   cfg.LLM.OpenAI.APIKeyEnv,
			Model:       cfg.LLM.OpenAI.Model,
			Timeout:     time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
			Temperature: cfg.LLM.Temperature,
			MaxRetries:  cfg.LLM.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

// Table summaries never retry: one failure fails the ingestion run.
func newSummaryStrategy(cfg *config.AppConfig, gen *openai.Client) (summarizer.Strategy, error) {
	switch cfg.Summarizer.Type {
	case "llm":
		return summarizer.NewLLMStrategy(gen.WithRetries(0)), nil
	case "frequency":
		return summarizer.NewFrequencySummarizer(cfg.Summarizer.MaxSentences), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
}

func newStoreFactory(cfg *config.AppConfig) (vectorstore.Factory, string, error) {
	switch cfg.VectorStore.Type {
	case "sqlite":
		return sqlite.Factory{}, cfg.VectorStore.Path, nil
	case "memory":
		return memory.NewFactory(), "", nil
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		return qdrant.NewFactory(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), cfg.VectorStore.Path, nil
	default:
		return nil, "", fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}
