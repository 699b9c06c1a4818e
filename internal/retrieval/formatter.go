package retrieval

import (
	"strings"

	"docqa/internal/domain"
)

const (
	tableMarker   = "--- Relevant Table ---"
	tableNotFound = "Table not found."
)

// Formatter expands retrieved documents into a context string, putting the
// full table back in place of each table summary.
type Formatter struct {
	tables domain.SideMapping
}

// NewFormatter returns a Formatter resolving references against tables.
func NewFormatter(tables domain.SideMapping) *Formatter {
	return &Formatter{tables: tables}
}

// Format joins one block per document with blank lines, in retrieval order.
// A table reference missing from the mapping yields a placeholder block.
func (f *Formatter) Format(docs []domain.IndexedDocument) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Metadata.Type != domain.DocTable {
			blocks = append(blocks, doc.Content)
			continue
		}
		table, ok := f.tables.Lookup(doc.Metadata.Ref)
		if !ok {
			table = tableNotFound
		}
		blocks = append(blocks, tableMarker+"\n"+table)
	}
	return strings.Join(blocks, "\n\n")
}
