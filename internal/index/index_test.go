package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/sqlite"
)

var (
	scenarioTexts  = []string{"Loan terms are fixed for 30 years.", "Rates updated quarterly."}
	scenarioTables = []string{"Rate|Term\n3.5%|30y"}
	scenarioSums   = []string{"A table listing interest rate by loan term."}
)

func seqRefs() func() domain.TableRef {
	n := 0
	return func() domain.TableRef {
		n++
		return domain.TableRef(fmt.Sprintf("ref-%d", n))
	}
}

// countingEmbedder wraps tfidf and counts calls.
type countingEmbedder struct {
	*tfidf.Embedder
	prepares, embeds int
	failAt           int
}

func newCounting() *countingEmbedder { return &countingEmbedder{Embedder: tfidf.NewEmbedder(), failAt: -1} }

func (c *countingEmbedder) Prepare(corpus []string) error {
	c.prepares++
	return c.Embedder.Prepare(corpus)
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	defer func() { c.embeds++ }()
	if c.embeds == c.failAt {
		return nil, errors.New("embedding service unavailable")
	}
	return c.Embedder.Embed(ctx, text)
}

func newIndexer(dir string, emb domain.Embedder) *Indexer {
	return New(Options{
		Dir:      dir,
		Factory:  sqlite.Factory{},
		Embedder: emb,
		TopK:     5,
		Logger:   zerolog.Nop(),
		NewRef:   seqRefs(),
	})
}

func mustIndexed(t *testing.T, out Outcome) *Indexed {
	t.Helper()
	idx, ok := out.(*Indexed)
	require.True(t, ok, "expected *Indexed, got %T", out)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBuildDocuments_ScenarioA(t *testing.T) {
	docs, mapping, err := BuildDocuments(scenarioTexts, scenarioSums, scenarioTables, seqRefs())
	require.NoError(t, err)

	assert.Equal(t, []domain.IndexedDocument{
		{Content: "A table listing interest rate by loan term.", Metadata: domain.Metadata{Type: domain.DocTable, Ref: "ref-1"}},
		{Content: "Loan terms are fixed for 30 years.", Metadata: domain.Metadata{Type: domain.DocText}},
		{Content: "Rates updated quarterly.", Metadata: domain.Metadata{Type: domain.DocText}},
	}, docs)
	assert.Equal(t, domain.SideMapping{"ref-1": "Rate|Term\n3.5%|30y"}, mapping)
}

func TestBuildDocuments_RoutingAndReferenceIntegrity(t *testing.T) {
	tables := []string{"A|B\n1|2", "C|D\n3|4", "E|F\n5|6"}
	sums := []string{"letters ab", "letters cd", "letters ef"}
	docs, mapping, err := BuildDocuments([]string{"prose"}, sums, tables, nil)
	require.NoError(t, err)
	require.Len(t, mapping, 3)

	for _, d := range docs {
		for _, table := range tables {
			assert.NotEqual(t, table, d.Content, "full table must never be the searchable content")
		}
		if d.Metadata.Type == domain.DocTable {
			full, ok := mapping.Lookup(d.Metadata.Ref)
			require.True(t, ok)
			assert.Contains(t, tables, full)
		} else {
			assert.Empty(t, d.Metadata.Ref)
		}
	}
}

func TestBuildDocuments_Errors(t *testing.T) {
	_, _, err := BuildDocuments(nil, []string{"one"}, []string{"a", "b"}, nil)
	assert.Error(t, err)

	same := func() domain.TableRef { return "dup" }
	_, _, err = BuildDocuments(nil, []string{"x", "y"}, []string{"a", "b"}, same)
	assert.Error(t, err)
}

func TestBuild_ScenarioA(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vector_store_advanced")
	out, err := newIndexer(dir, tfidf.NewEmbedder()).Build(context.Background(), scenarioTexts, scenarioSums, scenarioTables)
	require.NoError(t, err)
	idx := mustIndexed(t, out)
	assert.Equal(t, 3, idx.Documents)
	assert.Equal(t, 1, idx.Tables)

	docs, err := idx.Retriever.Retrieve(context.Background(), "what is the 30 year rate")
	require.NoError(t, err)
	assert.Contains(t, docs, domain.IndexedDocument{
		Content:  "A table listing interest rate by loan term.",
		Metadata: domain.Metadata{Type: domain.DocTable, Ref: "ref-1"},
	})
	formatted := idx.Formatter.Format(docs)
	assert.Contains(t, formatted, "--- Relevant Table ---\nRate|Term\n3.5%|30y")
	assert.NotContains(t, formatted, "A table listing interest rate by loan term.")

	cur, err := Current(dir)
	require.NoError(t, err)
	assert.Equal(t, idx.Generation, cur)
	assert.FileExists(t, filepath.Join(GenerationDir(dir, cur), sqlite.FileName))
}

func TestBuild_RebuildDiscardsOldIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := mustIndexed(t, must(newIndexer(dir, tfidf.NewEmbedder()).Build(ctx, scenarioTexts, scenarioSums, scenarioTables)))
	require.NoError(t, first.Close())
	second := mustIndexed(t, must(newIndexer(dir, tfidf.NewEmbedder()).Build(ctx, scenarioTexts, scenarioSums, scenarioTables)))

	assert.Equal(t, first.Documents, second.Documents)
	assert.NotEqual(t, first.Generation, second.Generation)

	gens, err := generations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{second.Generation}, gens)

	st, err := sqlite.Open(ctx, filepath.Join(GenerationDir(dir, second.Generation), sqlite.FileName))
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func must(out Outcome, err error) Outcome {
	if err != nil {
		panic(err)
	}
	return out
}

func TestBuild_EmptyCorpusTouchesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	emb := newCounting()
	out, err := newIndexer(dir, emb).Build(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Empty{}, out)
	assert.Zero(t, emb.prepares)
	assert.Zero(t, emb.embeds)
	assert.NoDirExists(t, dir)
}

func TestBuild_RemovesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "chroma.sqlite3")
	require.NoError(t, os.WriteFile(junk, []byte("old"), 0o644))

	mustIndexed(t, must(newIndexer(dir, tfidf.NewEmbedder()).Build(context.Background(), scenarioTexts, nil, nil)))
	assert.NoFileExists(t, junk)
	assert.FileExists(t, filepath.Join(dir, currentFile))
}

func TestBuild_EmbedFailureKeepsLiveIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	live := mustIndexed(t, must(newIndexer(dir, tfidf.NewEmbedder()).Build(ctx, scenarioTexts, nil, nil)))

	emb := newCounting()
	emb.failAt = 1
	_, err := newIndexer(dir, emb).Build(ctx, scenarioTexts, scenarioSums, scenarioTables)
	require.Error(t, err)

	cur, err := Current(dir)
	require.NoError(t, err)
	assert.Equal(t, live.Generation, cur)
	gens, err := generations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{live.Generation}, gens)
}

func TestBuild_InMemory(t *testing.T) {
	ix := New(Options{
		Factory:  memory.NewFactory(),
		Embedder: tfidf.NewEmbedder(),
		Logger:   zerolog.Nop(),
	})
	idx := mustIndexed(t, must(ix.Build(context.Background(), scenarioTexts, scenarioSums, scenarioTables)))
	assert.Equal(t, 5, idx.Retriever.TopK())
	docs, err := idx.Retriever.Retrieve(context.Background(), "quarterly updates")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCurrent_Missing(t *testing.T) {
	cur, err := Current(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cur)
}

func TestIndexed_CloseIsIdempotent(t *testing.T) {
	idx := mustIndexed(t, must(newIndexer(t.TempDir(), tfidf.NewEmbedder()).Build(context.Background(), scenarioTexts, scenarioSums, scenarioTables)))
	require.NoError(t, idx.Close())
	assert.NotPanics(t, func() { assert.NoError(t, idx.Close()) })
}

// brokenStore fails writes and reports an error on Close.
type brokenStore struct {
	*memory.Storage
}

func (brokenStore) Upsert(context.Context, []domain.IndexedDocument, [][]float64) error {
	return errors.New("disk full")
}

func (brokenStore) Close() error { return errors.New("close failed") }

type brokenFactory struct{}

func (brokenFactory) Name() string { return "broken" }

func (brokenFactory) Open(context.Context, string, string) (vectorstore.Storage, error) {
	return brokenStore{memory.NewStorage()}, nil
}

func TestBuild_LogsCloseErrorsOnDiscard(t *testing.T) {
	var buf bytes.Buffer
	ix := New(Options{
		Factory:  brokenFactory{},
		Embedder: tfidf.NewEmbedder(),
		Logger:   zerolog.New(&buf),
	})
	_, err := ix.Build(context.Background(), scenarioTexts, scenarioSums, scenarioTables)
	require.ErrorContains(t, err, "disk full")
	assert.Contains(t, buf.String(), "close vector store")
	assert.Contains(t, buf.String(), "close failed")
}

func TestBuild_LogsReplacedGeneration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := mustIndexed(t, must(newIndexer(dir, tfidf.NewEmbedder()).Build(ctx, scenarioTexts, scenarioSums, scenarioTables)))
	require.NoError(t, first.Close())

	var buf bytes.Buffer
	ix := New(Options{
		Dir:      dir,
		Factory:  sqlite.Factory{},
		Embedder: tfidf.NewEmbedder(),
		Logger:   zerolog.New(&buf),
	})
	mustIndexed(t, must(ix.Build(ctx, scenarioTexts, scenarioSums, scenarioTables)))
	assert.Contains(t, buf.String(), `"replaced":"`+first.Generation+`"`)
}
