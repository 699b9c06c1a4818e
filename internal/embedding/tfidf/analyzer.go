package tfidf

import (
	"regexp"
	"strings"
)

// termPattern matches numbers (with decimal or thousands separators and an
// optional unit suffix such as "30y") before plain words.
var termPattern = regexp.MustCompile(`\p{N}+(?:[.,]\p{N}+)*[\p{L}\p{N}]*|[\p{L}\p{N}]+(?:['’.][\p{L}\p{N}]+)*`)

// analyze lowercases text and returns its index terms in order. Table
// separators ("|", tabs, dashes) never become terms; numbers are normalized
// so "1,000.50" and "1000.5" agree; plurals fold onto their singular.
func analyze(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	terms := raw[:0]
	for _, t := range raw {
		if isStopword(t) {
			continue
		}
		if isNumeric(t) {
			t = normalizeNumber(t)
		} else {
			t = singular(trimPossessive(t))
		}
		if t == "" || isStopword(t) {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

func isStopword(t string) bool {
	_, ok := stopwords[t]
	return ok
}

func isNumeric(t string) bool {
	return t[0] >= '0' && t[0] <= '9'
}

// normalizeNumber drops thousands separators and trailing fractional zeros.
func normalizeNumber(t string) string {
	t = strings.ReplaceAll(t, ",", "")
	i := strings.IndexByte(t, '.')
	if i < 0 {
		return t
	}
	end := i + 1
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	frac := strings.TrimRight(t[i+1:end], "0")
	if frac == "" {
		return t[:i] + t[end:]
	}
	return t[:i+1] + frac + t[end:]
}

func trimPossessive(t string) string {
	t = strings.ReplaceAll(t, "’", "'")
	return strings.TrimSuffix(t, "'s")
}

// singular folds regular English plurals.
func singular(t string) string {
	switch {
	case len(t) <= 3:
		return t
	case strings.HasSuffix(t, "ies") && len(t) > 4:
		return t[:len(t)-3] + "y"
	case strings.HasSuffix(t, "sses"), strings.HasSuffix(t, "xes"):
		return t[:len(t)-2]
	case strings.HasSuffix(t, "ss"), strings.HasSuffix(t, "us"), strings.HasSuffix(t, "is"):
		return t
	case strings.HasSuffix(t, "s"):
		return t[:len(t)-1]
	}
	return t
}

// stopwords covers function words and the question words users open with.
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "don", "should", "now", "do", "does", "did", "there",
		"what", "which", "who", "whom", "when", "where", "why", "how", "i", "me", "my", "we", "our", "you",
		"your", "please", "tell", "show",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
