package chat

import (
	"strings"

	"docqa/internal/domain"
)

// DontKnow is the reply the model is told to give when the context is insufficient.
const DontKnow = "I don't know."

const answerTemplate = `You are a precise banking assistant. Answer the user's question based ONLY on the following context and chat history.
If unsure, say "` + DontKnow + `"

Chat history:
{chat_history}

Context:
{context}

Question: {question}

Answer:`

// RenderHistory formats messages one per line as "Role: content".
func RenderHistory(msgs []domain.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = string(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt fills the answer template. Slots are filled in a single pass
// so placeholder text inside a slot value is left alone.
func BuildPrompt(history, context, question string) string {
	r := strings.NewReplacer(
		"{chat_history}", history,
		"{context}", context,
		"{question}", question,
	)
	return r.Replace(answerTemplate)
}
