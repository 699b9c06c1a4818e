package index

import (
	"fmt"

	"github.com/google/uuid"

	"docqa/internal/domain"
)

// NewRef mints a globally unique table reference.
func NewRef() domain.TableRef { return domain.TableRef(uuid.NewString()) }

// BuildDocuments assembles the searchable corpus. Each table gets a fresh
// reference, a SideMapping entry holding the full table, and a document whose
// content is its summary. Table documents come first, then text documents,
// each group in input order.
func BuildDocuments(texts, summaries, tables []string, newRef func() domain.TableRef) ([]domain.IndexedDocument, domain.SideMapping, error) {
	if len(summaries) != len(tables) {
		return nil, nil, fmt.Errorf("got %d summaries for %d tables", len(summaries), len(tables))
	}
	if newRef == nil {
		newRef = NewRef
	}
	mapping := make(domain.SideMapping, len(tables))
	docs := make([]domain.IndexedDocument, 0, len(tables)+len(texts))
	for i, table := range tables {
		ref := newRef()
		if _, dup := mapping[ref]; dup {
			return nil, nil, fmt.Errorf("duplicate table reference %q", ref)
		}
		mapping[ref] = table
		docs = append(docs, domain.IndexedDocument{
			Content:  summaries[i],
			Metadata: domain.Metadata{Type: domain.DocTable, Ref: ref},
		})
	}
	for _, text := range texts {
		docs = append(docs, domain.IndexedDocument{
			Content:  text,
			Metadata: domain.Metadata{Type: domain.DocText},
		})
	}
	return docs, mapping, nil
}
