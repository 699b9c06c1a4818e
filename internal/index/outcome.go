package index

import "docqa/internal/retrieval"

// Outcome is the result of an indexing run: either Indexed or Empty.
type Outcome interface {
	outcome()
}

// Indexed carries the components that can only exist once an index is built.
type Indexed struct {
	Retriever  *retrieval.Retriever
	Formatter  *retrieval.Formatter
	Generation string
	Documents  int
	Tables     int
}

// Empty reports that there was nothing to index. No index was touched.
type Empty struct{}

func (Indexed) outcome() {}
func (Empty) outcome()   {}

// Close releases the retriever's indexes.
func (i *Indexed) Close() error {
	if i.Retriever == nil {
		return nil
	}
	return i.Retriever.Close()
}
