package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
)

// State is the engine's turn state.
type State int32

const (
	StateReady State = iota
	StateAnswering
)

func (s State) String() string {
	if s == StateAnswering {
		return "answering"
	}
	return "ready"
}

// Retriever finds documents relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.IndexedDocument, error)
}

// Formatter turns retrieved documents into a context block.
type Formatter interface {
	Format(docs []domain.IndexedDocument) string
}

// Engine answers questions grounded in retrieved context and the
// conversation so far. Turns are serialized; memory only changes when a
// turn succeeds.
type Engine struct {
	retriever Retriever
	formatter Formatter
	gen       domain.Generator
	memory    *Memory
	log       zerolog.Logger

	turn  sync.Mutex
	state atomic.Int32
}

// NewEngine wires an Engine. memory must not be shared with another engine.
func NewEngine(retriever Retriever, formatter Formatter, gen domain.Generator, memory *Memory, logger zerolog.Logger) *Engine {
	if memory == nil {
		memory = NewMemory()
	}
	return &Engine{
		retriever: retriever,
		formatter: formatter,
		gen:       gen,
		memory:    memory,
		log:       logger,
	}
}

// State reports whether a turn is in flight.
func (e *Engine) State() State { return State(e.state.Load()) }

// Memory returns the conversation memory.
func (e *Engine) Memory() *Memory { return e.memory }

// Ask runs one turn. The model's answer is returned as is.
func (e *Engine) Ask(ctx context.Context, question string) (string, error) {
	e.turn.Lock()
	defer e.turn.Unlock()
	e.state.Store(int32(StateAnswering))
	defer e.state.Store(int32(StateReady))

	start := time.Now()
	docs, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	prompt := BuildPrompt(
		RenderHistory(e.memory.Messages()),
		e.formatter.Format(docs),
		question,
	)
	answer, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	e.memory.Append(question, answer)
	e.log.Debug().
		Int("documents", len(docs)).
		Int("turn", e.memory.Len()).
		Dur("took", time.Since(start)).
		Msg("turn answered")
	return answer, nil
}
