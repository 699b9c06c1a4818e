// Package repl is the line-oriented question loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	Banner   = "--- Banking Assistant Ready ---"
	Hint     = "Enter 'quit' to exit."
	Prompt   = "You: "
	Farewell = "Goodbye!"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// IsExit reports whether input is a sentinel that ends the session.
func IsExit(input string) bool {
	s := strings.TrimSpace(input)
	return strings.EqualFold(s, "quit") || strings.EqualFold(s, "exit")
}

// Loop reads one question per line and prints the answer.
type Loop struct {
	asker Asker
	in    io.Reader
	out   io.Writer
	log   zerolog.Logger
}

func New(asker Asker, in io.Reader, out io.Writer, logger zerolog.Logger) *Loop {
	return &Loop{asker: asker, in: in, out: out, log: logger}
}

// Run blocks until the user quits, input ends or ctx is cancelled. A failed
// turn is reported and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintf(l.out, "\n%s\n%s\n", Banner, Hint)
	sc := bufio.NewScanner(l.in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(l.out, Prompt)
		if !sc.Scan() {
			fmt.Fprintln(l.out)
			return sc.Err()
		}
		line := sc.Text()
		if IsExit(line) {
			fmt.Fprintf(l.out, "Assistant: %s\n", Farewell)
			return nil
		}
		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		answer, err := l.asker.Ask(ctx, question)
		if err != nil {
			l.log.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(l.out, "Assistant: error: %v\n", err)
			continue
		}
		fmt.Fprintf(l.out, "Assistant: %s\n", answer)
	}
}
