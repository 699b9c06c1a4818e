// Package keyword keeps a bleve full-text index next to the vector index.
// Retrieval falls back to it when a query carries no vector signal.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"docqa/internal/domain"
)

// DirName is the index directory inside a generation directory.
const DirName = "keyword.bleve"

// Index is a full-text index over IndexedDocuments.
type Index struct {
	index bleve.Index
}

// Create builds an empty on-disk index at dir, replacing anything there.
func Create(dir string) (*Index, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset keyword index dir: %w", err)
	}
	index, err := bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// NewMemOnly builds an index that lives only in memory.
func NewMemOnly() (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Add indexes docs in one batch. IDs follow insertion order, starting at offset.
func (x *Index) Add(offset int, docs []domain.IndexedDocument) error {
	batch := x.index.NewBatch()
	for i, doc := range docs {
		rec := map[string]any{
			"content": doc.Content,
			"type":    string(doc.Metadata.Type),
			"ref":     string(doc.Metadata.Ref),
		}
		if err := batch.Index(fmt.Sprintf("%08d", offset+i), rec); err != nil {
			return fmt.Errorf("index document %d: %w", offset+i, err)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("commit keyword batch: %w", err)
	}
	return nil
}

// Search returns up to topK documents matching query, best first.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequestOptions(q, topK, 0, false)
	req.Fields = []string{"content", "type", "ref"}

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		content, _ := hit.Fields["content"].(string)
		docType, _ := hit.Fields["type"].(string)
		ref, _ := hit.Fields["ref"].(string)
		out = append(out, domain.SearchResult{
			Document: domain.IndexedDocument{
				Content:  content,
				Metadata: domain.Metadata{Type: domain.DocType(docType), Ref: domain.TableRef(ref)},
			},
			Score: hit.Score,
		})
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (x *Index) Count() (int, error) {
	n, err := x.index.DocCount()
	return int(n), err
}

func (x *Index) Close() error { return x.index.Close() }

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "content"

	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true
	contentField.Index = true
	docMapping.AddFieldMappingsAt("content", contentField)

	typeField := bleve.NewTextFieldMapping()
	typeField.Store = true
	typeField.Index = true
	typeField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("type", typeField)

	refField := bleve.NewTextFieldMapping()
	refField.Store = true
	refField.Index = false
	docMapping.AddFieldMappingsAt("ref", refField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
