package partition

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

func parseHTML(_ context.Context, path string) ([]element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	return htmlElements(root), nil
}

func htmlElements(root *html.Node) []element {
	var elements []element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "template":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				elements = append(elements, element{kind: elemTitle, text: textContent(n)})
				return
			case "table":
				if t := renderRows(htmlRows(n)); t != "" {
					elements = append(elements, element{kind: elemTable, text: t})
				}
				return
			case "p", "li", "blockquote", "pre", "dd", "dt", "caption":
				elements = append(elements, element{kind: elemText, text: textContent(n)})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return elements
}

// htmlRows collects th/td text per tr, skipping rows of nested tables.
func htmlRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, strings.Join(strings.Fields(textContent(c)), " "))
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "table" {
				continue
			}
			walk(c)
		}
	}
	walk(table)
	return rows
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
