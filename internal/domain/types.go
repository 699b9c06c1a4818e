package domain

import (
	"errors"
	"fmt"
)

// ContentKind tags a ContentUnit. It is decided once by the partitioner and
// carried unchanged through every later stage.
type ContentKind int

const (
	KindText ContentKind = iota
	KindTable
)

func (k ContentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTable:
		return "table"
	default:
		return fmt.Sprintf("ContentKind(%d)", int(k))
	}
}

// ContentUnit is one piece of extracted document content.
type ContentUnit struct {
	Kind    ContentKind
	Content string
}

// TextUnit returns a text ContentUnit.
func TextUnit(content string) ContentUnit { return ContentUnit{Kind: KindText, Content: content} }

// TableUnit returns a table ContentUnit.
func TableUnit(content string) ContentUnit { return ContentUnit{Kind: KindTable, Content: content} }

// SplitUnits separates units by kind, preserving source order within each kind.
func SplitUnits(units []ContentUnit) (texts, tables []string) {
	for _, u := range units {
		switch u.Kind {
		case KindTable:
			tables = append(tables, u.Content)
		default:
			texts = append(texts, u.Content)
		}
	}
	return texts, tables
}

// TableRef links a table summary in the index back to the full table.
type TableRef string

// SideMapping resolves a TableRef to the full table content.
type SideMapping map[TableRef]string

// Lookup returns the table content for ref.
func (m SideMapping) Lookup(ref TableRef) (string, bool) {
	content, ok := m[ref]
	return content, ok
}

// DocType is the metadata type of an IndexedDocument.
type DocType string

const (
	DocText  DocType = "text"
	DocTable DocType = "table"
)

// Metadata travels with an IndexedDocument through the vector index.
// Ref is set only for DocTable documents.
type Metadata struct {
	Type DocType
	Ref  TableRef
}

// IndexedDocument is the unit stored in and returned from the vector index.
// For tables Content holds the summary, never the full table.
type IndexedDocument struct {
	Content  string
	Metadata Metadata
}

// SearchResult is an indexed document with its similarity score.
type SearchResult struct {
	Document IndexedDocument
	Score    float64
}

// Exchange is one question/answer pair in a conversation.
type Exchange struct {
	Question string
	Answer   string
}

// Role tags a chat history message.
type Role string

const (
	RoleHuman Role = "Human"
	RoleAI    Role = "AI"
)

// Message is one role-tagged line of chat history.
type Message struct {
	Role    Role
	Content string
}

var (
	// ErrSourceNotFound is returned when the source document path does not resolve.
	ErrSourceNotFound = errors.New("source document not found")
	// ErrUnsupportedFormat is returned for file types no partitioner handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrIndexUnavailable is returned by retrieval when no index has been built.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
