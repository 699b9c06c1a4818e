package summarizer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// FrequencySummarizer describes a table without a model: its shape and
// header, followed by the rows whose terms recur most across the table.
type FrequencySummarizer struct {
	maxRows      int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequencySummarizer creates an offline summarizer that quotes at most
// maxRows body rows.
func NewFrequencySummarizer(maxRows int) *FrequencySummarizer {
	if maxRows <= 0 {
		maxRows = 2
	}
	return &FrequencySummarizer{
		maxRows:      maxRows,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (s *FrequencySummarizer) Name() string { return "frequency" }

// SummarizeTable ranks body rows by normalized token frequency and keeps
// the best ones in their original order.
func (s *FrequencySummarizer) SummarizeTable(ctx context.Context, table string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var rows [][]string
	for _, line := range strings.Split(table, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitRow(line))
	}
	if len(rows) == 0 {
		return "Empty table.", nil
	}
	header := rows[0]
	body := rows[1:]
	summary := fmt.Sprintf("Table with %d columns (%s) and %d rows.",
		len(header), strings.Join(header, ", "), len(body))
	if len(body) == 0 {
		return summary, nil
	}

	// Compute word frequencies
	freq := map[string]float64{}
	for _, row := range body {
		for _, tok := range s.tokens(strings.Join(row, " ")) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(body))
	for i, row := range body {
		toks := s.tokens(strings.Join(row, " "))
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// Normalize by row length to avoid bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	n := s.maxRows
	if n > len(scores) {
		n = len(scores)
	}
	// Keep original order among selected
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	quoted := make([]string, 0, n)
	for _, idx := range selected {
		quoted = append(quoted, strings.Join(body[idx], ", "))
	}
	return summary + " Includes: " + strings.Join(quoted, "; ") + ".", nil
}

func (s *FrequencySummarizer) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := s.stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
