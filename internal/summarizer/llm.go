package summarizer

import (
	"context"
	"strings"

	"docqa/internal/domain"
)

const promptTemplate = `You are an assistant tasked with summarizing tables for a Retrieval Augmented Generation (RAG) system.
Give a concise summary of the table below. This summary will be used to decide whether to pull the full table for a user query.
Be precise about the type of data included.

Table:
{table}

Summary:`

// Prompt builds the summary request for one table.
func Prompt(table string) string {
	return strings.Replace(promptTemplate, "{table}", table, 1)
}

// LLMStrategy asks a generative model for each summary. The generator
// should be configured without retries.
type LLMStrategy struct {
	gen domain.Generator
}

// NewLLMStrategy wraps gen.
func NewLLMStrategy(gen domain.Generator) *LLMStrategy {
	return &LLMStrategy{gen: gen}
}

func (s *LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) SummarizeTable(ctx context.Context, table string) (string, error) {
	out, err := s.gen.Generate(ctx, Prompt(table))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
