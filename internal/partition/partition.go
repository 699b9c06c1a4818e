// Package partition turns a source document into ordered text and table units.
package partition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/domain"
)

type elementKind int

const (
	elemTitle elementKind = iota
	elemText
	elemTable
)

// element is a structural piece produced by a format-specific parser, before
// title grouping and chunking.
type element struct {
	kind elementKind
	text string
}

// parseFunc extracts structural elements from the file at path.
type parseFunc func(ctx context.Context, path string) ([]element, error)

// Options controls chunking and format fallbacks.
type Options struct {
	SentencesPerChunk int
	OverlapSentences  int
	PDFTextFallback   bool
}

// Partitioner picks a parser by file extension and groups the result into
// content units.
type Partitioner struct {
	chunker *SentenceChunker
	opts    Options
}

var _ domain.Partitioner = (*Partitioner)(nil)

// New creates a Partitioner.
func New(opts Options) *Partitioner {
	return &Partitioner{
		chunker: NewSentenceChunker(opts.SentencesPerChunk, opts.OverlapSentences),
		opts:    opts,
	}
}

// SupportedExtensions lists file extensions this partitioner can handle.
var SupportedExtensions = []string{".pdf", ".md", ".markdown", ".html", ".htm", ".docx", ".csv", ".txt"}

// Partition reads the document at path. A path that does not resolve yields
// an error wrapping domain.ErrSourceNotFound.
func (p *Partitioner) Partition(ctx context.Context, path string) ([]domain.ContentUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrSourceNotFound, path)
	}
	parse, err := p.parserFor(path)
	if err != nil {
		return nil, err
	}
	elements, err := parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", filepath.Base(path), err)
	}
	return p.assemble(elements), nil
}

func (p *Partitioner) parserFor(path string) (parseFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return pdfParser(p.opts.PDFTextFallback), nil
	case ".md", ".markdown":
		return parseMarkdown, nil
	case ".html", ".htm":
		return parseHTML, nil
	case ".docx":
		return parseDOCX, nil
	case ".csv":
		return parseCSV, nil
	case ".txt":
		return parseText, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", domain.ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
}

// assemble groups text under its nearest title and keeps every table as its
// own unit, in source order. Long sections are re-chunked by sentence.
func (p *Partitioner) assemble(elements []element) []domain.ContentUnit {
	var units []domain.ContentUnit
	var section []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(section, "\n\n"))
		section = section[:0]
		if text == "" {
			return
		}
		for _, chunk := range p.chunker.Chunk(text) {
			units = append(units, domain.TextUnit(chunk))
		}
	}

	for _, el := range elements {
		text := strings.TrimSpace(el.text)
		if text == "" {
			continue
		}
		switch el.kind {
		case elemTitle:
			flush()
			section = append(section, text)
		case elemTable:
			flush()
			units = append(units, domain.TableUnit(text))
		default:
			section = append(section, text)
		}
	}
	flush()
	return units
}
