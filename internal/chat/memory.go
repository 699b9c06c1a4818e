// Package chat runs the conversational answer loop: retrieve, format,
// prompt, generate, remember.
package chat

import (
	"sync"

	"docqa/internal/domain"
)

// Memory is the ordered transcript of one conversation.
type Memory struct {
	mu        sync.RWMutex
	exchanges []domain.Exchange
}

// NewMemory returns an empty conversation memory.
func NewMemory() *Memory { return &Memory{} }

// Append records a completed question/answer pair.
func (m *Memory) Append(question, answer string) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, domain.Exchange{Question: question, Answer: answer})
	m.mu.Unlock()
}

// Exchanges returns a copy of the transcript, oldest first.
func (m *Memory) Exchanges() []domain.Exchange {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Exchange, len(m.exchanges))
	copy(out, m.exchanges)
	return out
}

// Messages flattens the transcript into role-tagged messages, oldest first.
func (m *Memory) Messages() []domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Message, 0, 2*len(m.exchanges))
	for _, ex := range m.exchanges {
		out = append(out,
			domain.Message{Role: domain.RoleHuman, Content: ex.Question},
			domain.Message{Role: domain.RoleAI, Content: ex.Answer},
		)
	}
	return out
}

// Len returns the number of recorded exchanges.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exchanges)
}
