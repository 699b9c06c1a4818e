package partition

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
)

func parseText(_ context.Context, path string) ([]element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return plainElements(f)
}

// plainElements splits unstructured text into blank-line separated blocks and
// classifies each block as title, table or text.
func plainElements(r io.Reader) ([]element, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []string
	var current strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\f")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				blocks = append(blocks, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	elements := make([]element, 0, len(blocks))
	for _, b := range blocks {
		switch {
		case looksLikeTable(b):
			elements = append(elements, element{kind: elemTable, text: trimLines(b)})
		case looksLikeTitle(b):
			elements = append(elements, element{kind: elemTitle, text: strings.TrimSpace(b)})
		default:
			elements = append(elements, element{kind: elemText, text: b})
		}
	}
	return elements, nil
}

func trimLines(block string) string {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}
