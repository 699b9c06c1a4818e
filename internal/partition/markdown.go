package partition

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func parseMarkdown(_ context.Context, path string) ([]element, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return markdownElements(src), nil
}

func markdownElements(src []byte) []element {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var elements []element
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			elements = append(elements, element{kind: elemTitle, text: inlineText(node, src)})
		case *east.Table:
			elements = append(elements, element{kind: elemTable, text: renderRows(markdownRows(node, src))})
		case *ast.ThematicBreak:
		default:
			if t := blockText(n, src); t != "" {
				elements = append(elements, element{kind: elemText, text: t})
			}
		}
	}
	return elements
}

func markdownRows(table *east.Table, src []byte) [][]string {
	var rows [][]string
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			row = append(row, strings.TrimSpace(inlineText(c, src)))
		}
		rows = append(rows, row)
	}
	return rows
}

// blockText returns the text of a block node, recursing through containers
// such as lists and blockquotes.
func blockText(n ast.Node, src []byte) string {
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	if first := n.FirstChild(); first != nil && first.Type() == ast.TypeInline {
		return strings.TrimSpace(inlineText(n, src))
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
