package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

func TestStorage_SearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	docs := []domain.IndexedDocument{
		{Content: "east", Metadata: domain.Metadata{Type: domain.DocText}},
		{Content: "north", Metadata: domain.Metadata{Type: domain.DocTable, Ref: "r1"}},
		{Content: "north-east", Metadata: domain.Metadata{Type: domain.DocText}},
	}
	require.NoError(t, s.Upsert(ctx, docs, [][]float64{{1, 0}, {0, 1}, {1, 1}}))

	res, err := s.Search(ctx, []float64{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "north", res[0].Document.Content)
	assert.Equal(t, domain.TableRef("r1"), res[0].Document.Metadata.Ref)
	assert.Equal(t, "north-east", res[1].Document.Content)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStorage_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 3))
	err := s.Upsert(ctx, []domain.IndexedDocument{{Content: "x"}}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	assert.Error(t, s.Init(ctx, 0))
}

func TestStorage_Drop(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 1))
	require.NoError(t, s.Upsert(ctx, []domain.IndexedDocument{{Content: "x"}}, [][]float64{{1}}))
	require.NoError(t, s.Drop(ctx))
	n, _ := s.Count(ctx)
	assert.Zero(t, n)
}

func TestFactory_OneStorePerGeneration(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	a1, _ := f.Open(ctx, "", "a")
	a2, _ := f.Open(ctx, "", "a")
	b, _ := f.Open(ctx, "", "b")
	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	require.NoError(t, a1.Drop(ctx))
	a3, _ := f.Open(ctx, "", "a")
	assert.NotSame(t, a1, a3)
}
