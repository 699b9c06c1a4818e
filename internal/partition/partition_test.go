package partition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPartitioner() *Partitioner {
	return New(Options{SentencesPerChunk: 5, OverlapSentences: 1})
}

func TestPartition_TextWithTable(t *testing.T) {
	path := writeFile(t, "handbook.txt", "Loan terms are fixed for 30 years.\n\nRate|Term\n3.5%|30y\n\nRates updated quarterly.\n")

	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []domain.ContentUnit{
		domain.TextUnit("Loan terms are fixed for 30 years."),
		domain.TableUnit("Rate|Term\n3.5%|30y"),
		domain.TextUnit("Rates updated quarterly."),
	}, units)
}

func TestPartition_TitlesStartNewSections(t *testing.T) {
	path := writeFile(t, "notes.txt", "Fixed Rate Loans\n\nThe rate never changes.\n\nAdjustable Rate Loans\n\nThe rate resets yearly.\n")

	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, domain.TextUnit("Fixed Rate Loans\n\nThe rate never changes."), units[0])
	assert.Equal(t, domain.TextUnit("Adjustable Rate Loans\n\nThe rate resets yearly."), units[1])
}

func TestPartition_Markdown(t *testing.T) {
	src := "# Rates\n\nCurrent mortgage pricing.\n\n| Product | Rate |\n|---|---|\n| 30y fixed | 6.1% |\n| 15y fixed | 5.4% |\n\n## Fees\n\n- Origination fee applies.\n- Appraisal is extra.\n"
	path := writeFile(t, "rates.md", src)

	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)

	texts, tables := domain.SplitUnits(units)
	require.Len(t, tables, 1)
	assert.Equal(t, "Product | Rate\n30y fixed | 6.1%\n15y fixed | 5.4%", tables[0])
	require.Len(t, texts, 2)
	assert.Equal(t, "Rates\n\nCurrent mortgage pricing.", texts[0])
	assert.Equal(t, "Fees\n\nOrigination fee applies.\nAppraisal is extra.", texts[1])
}

func TestPartition_HTML(t *testing.T) {
	src := `<html><head><title>x</title><style>p{}</style></head><body>
<h1>Escrow</h1><p>Taxes are paid from escrow.</p>
<table><tr><th>Item</th><th>Monthly</th></tr><tr><td>Tax</td><td>$300</td></tr></table>
<script>var a = 1;</script></body></html>`
	path := writeFile(t, "escrow.html", src)

	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentUnit{
		domain.TextUnit("Escrow\n\nTaxes are paid from escrow."),
		domain.TableUnit("Item | Monthly\nTax | $300"),
	}, units)
}

func TestPartition_CSVIsOneTable(t *testing.T) {
	path := writeFile(t, "rates.csv", "term,rate\n30y,3.5%\n15y,2.9%\n")

	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentUnit{domain.TableUnit("term | rate\n30y | 3.5%\n15y | 2.9%")}, units)
}

func TestPartition_EmptyFileYieldsNoUnits(t *testing.T) {
	path := writeFile(t, "empty.txt", "\n\n")
	units, err := newTestPartitioner().Partition(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestPartition_MissingFile(t *testing.T) {
	_, err := newTestPartitioner().Partition(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestPartition_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "slides.pptx", "binary")
	_, err := newTestPartitioner().Partition(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.ErrorContains(t, err, `".pptx"`)
	for _, ext := range SupportedExtensions {
		assert.ErrorContains(t, err, ext)
	}
}

func TestLooksLikeTable(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  bool
	}{
		{"pipes", "Rate|Term\n3.5%|30y", true},
		{"markdown separator", "| a | b |\n|---|---|\n| 1 | 2 |", true},
		{"tabs", "Fee\tAmount\nAppraisal\t$450", true},
		{"layout columns", "Product      Rate    Points\n30y fixed    6.1%    0.5", true},
		{"single row", "Rate|Term", false},
		{"prose", "Loans are fixed.\nRates change.", false},
		{"double spaced prose", "The borrower must submit income records before closing.  Lenders verify them.\nAppraisals are ordered by the lender after the application.  Fees apply here.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeTable(tt.block))
		})
	}
}
