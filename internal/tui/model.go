// Package tui is the full-screen chat front end.
package tui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/repl"
)

type role int

const (
	roleUser role = iota
	roleAssistant
	roleError
)

type entry struct {
	role     role
	text     string
	question string
}

// answerMsg carries the result of one turn back into Update.
type answerMsg struct {
	question string
	answer   string
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	ctx        context.Context
	asker      repl.Asker
	source     string
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	status     string
	pending    bool
	ready      bool
}

// New creates a chat model answering through asker. source is shown in the header.
func New(ctx context.Context, asker repl.Asker, source string) Model {
	ti := textinput.New()
	ti.Prompt = "You: "
	ti.Placeholder = "Ask about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		asker:    asker,
		source:   source,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   repl.Hint,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around transcript and input boxes
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{role: roleError, text: "error: " + msg.err.Error()})
			m.status = "Turn failed; ask again or type quit."
		} else {
			m.transcript = append(m.transcript, entry{role: roleAssistant, text: msg.answer, question: msg.question})
			m.status = repl.Hint
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if repl.IsExit(line) {
		m.transcript = append(m.transcript, entry{role: roleAssistant, text: repl.Farewell})
		m.refresh()
		return m, tea.Quit
	}
	q := strings.TrimSpace(line)
	if q == "" || m.pending {
		return m, nil
	}
	m.input.SetValue("")
	m.transcript = append(m.transcript, entry{role: roleUser, text: q})
	m.pending = true
	m.status = "Answering..."
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

func (m Model) ask(q string) tea.Cmd {
	ctx, asker := m.ctx, m.asker
	return func() tea.Msg {
		answer, err := asker.Ask(ctx, q)
		return answerMsg{question: q, answer: answer, err: err}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(repl.Banner)
	source := mutedStyle.Render(m.source)
	status := m.status
	if m.pending {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + source + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return mutedStyle.Render("No questions yet.")
	}
	blocks := make([]string, len(m.transcript))
	for i, e := range m.transcript {
		switch e.role {
		case roleUser:
			blocks[i] = userStyle.Render("You: ") + e.text
		case roleError:
			blocks[i] = errorStyle.Render("Assistant: " + e.text)
		default:
			blocks[i] = assistantStyle.Render("Assistant: ") + highlightBestSentence(e.text, e.question)
		}
	}
	return strings.Join(blocks, "\n\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	mutedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe             = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.][\p{L}\p{N}]+)*`)
	sentenceRe         = regexp.MustCompile(`(?s).+?(?:[.!?]+(?:\s+|$)|$)`)
)

// highlightBestSentence emphasizes the answer sentence sharing the most
// words with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(query) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) < 2 {
		return text
	}
	qTokens := toTokenSet(query)
	bestIdx, bestScore := 0, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestScore == 0 {
		return text
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sentences[i])
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range wordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
