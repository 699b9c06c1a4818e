package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentenceChunker_ShortTextUnchanged(t *testing.T) {
	c := NewSentenceChunker(3, 1)
	assert.Equal(t, []string{"One. Two."}, c.Chunk("  One. Two.  "))
	assert.Nil(t, c.Chunk("   "))
}

func TestSentenceChunker_WindowsWithOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	got := c.Chunk("A one. B two. C three. D four.")
	assert.Equal(t, []string{"A one. B two.", "B two. C three.", "C three. D four."}, got)
}

func TestSentenceChunker_DecimalsDoNotSplit(t *testing.T) {
	c := NewSentenceChunker(1, 0)
	got := c.Chunk("The rate is 3.5% today. It was 4.1% before.")
	assert.Equal(t, []string{"The rate is 3.5% today.", "It was 4.1% before."}, got)
}

func TestNewSentenceChunker_ClampsOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 5)
	assert.Equal(t, 1, c.overlapSentences)
	c = NewSentenceChunker(0, -1)
	assert.Equal(t, 5, c.sentencesPerChunk)
	assert.Equal(t, 0, c.overlapSentences)
}
