package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbed_RequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), "mortgage rates")
	assert.Error(t, err)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbed_NormalizedAndRanked(t *testing.T) {
	corpus := []string{
		"Mortgage rates for a 30 year fixed loan are 6.1 percent.",
		"Escrow covers property tax and homeowners insurance.",
		"Origination fees are charged at closing.",
	}
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 0)

	ctx := context.Background()
	q, err := e.Embed(ctx, "what is the 30 year mortgage rate?")
	require.NoError(t, err)
	assert.Len(t, q, e.Dimension())
	assert.InDelta(t, 1.0, math.Sqrt(dot(q, q)), 1e-9)

	var best int
	bestScore := -1.0
	for i, doc := range corpus {
		v, err := e.Embed(ctx, doc)
		require.NoError(t, err)
		if s := dot(q, v); s > bestScore {
			best, bestScore = i, s
		}
	}
	assert.Equal(t, 0, best)
}

func TestEmbed_UnknownTermsGiveZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"escrow account balance"}))
	v, err := e.Embed(context.Background(), "zebra giraffe")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"numbers kept", "The rate is 3.5% for 30y.", []string{"rate", "3.5", "30y"}},
		{"pipe separated row", "Rate|Term\n3.5%|30y", []string{"rate", "term", "3.5", "30y"}},
		{"thousands and trailing zeros", "Fees: 1,000.50 and 6.10 and 5.00", []string{"fee", "1000.5", "6.1", "5"}},
		{"plurals fold", "Rates, taxes, policies and classes", []string{"rate", "tax", "policy", "class"}},
		{"short and latin endings kept", "bus status analysis", []string{"bus", "status", "analysis"}},
		{"possessive", "the bank’s fees", []string{"bank", "fee"}},
		{"question words dropped", "What does the table show?", []string{"table"}},
		{"hyphenated term", "30-year fixed", []string{"30", "year", "fixed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyze(tt.text))
		})
	}
}

func TestEmbed_SummaryMatchesPluralQuery(t *testing.T) {
	corpus := []string{
		"A table listing interest rate by loan term.",
		"Escrow covers property tax and homeowners insurance.",
	}
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	ctx := context.Background()
	q, err := e.Embed(ctx, "What are the interest rates?")
	require.NoError(t, err)
	summary, err := e.Embed(ctx, corpus[0])
	require.NoError(t, err)
	escrow, err := e.Embed(ctx, corpus[1])
	require.NoError(t, err)
	assert.Greater(t, dot(q, summary), 0.0)
	assert.Zero(t, dot(q, escrow))
}

func TestEmbed_SublinearTermFrequency(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"rate rate rate rate term", "escrow"}))
	v, err := e.Embed(context.Background(), "rate rate rate rate term")
	require.NoError(t, err)
	rate, term := v[e.terms["rate"]], v[e.terms["term"]]
	// idf is equal for both terms, so the ratio is 1+ln(4).
	assert.InDelta(t, 1+math.Log(4), rate/term, 1e-9)
}

func TestPrepare_Refits(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"escrow account"}))
	require.NoError(t, e.Prepare([]string{"loan rate", "loan term"}))
	assert.Equal(t, 3, e.Dimension())
	v, err := e.Embed(context.Background(), "escrow")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, v)
}

func TestEmbed_CanceledContext(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"loan"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, "loan")
	assert.ErrorIs(t, err, context.Canceled)
}
