// Package sqlite stores document vectors in a single SQLite file and
// answers similarity queries by brute-force cosine scan.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

//go:embed schema.sql
var schema string

// FileName is the database file inside a generation directory.
const FileName = "vectors.db"

var (
	_ vectorstore.Storage = (*Storage)(nil)
	_ vectorstore.Factory = Factory{}
)

// Storage is a vectorstore.Storage backed by SQLite.
type Storage struct {
	db        *sql.DB
	path      string
	dimension int
}

// Open opens or creates a database at the given path.
func Open(ctx context.Context, path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; keeps WAL readers consistent with the single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	s := &Storage{db: db, path: path}
	if err := s.loadDimension(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) loadDimension(ctx context.Context) error {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'dimension'").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read dimension: %w", err)
	}
	d, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("corrupt dimension %q: %w", v, err)
	}
	s.dimension = d
	return nil
}

// Init empties the store and records the vector dimension.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('dimension', ?)", strconv.Itoa(dimension)); err != nil {
		return fmt.Errorf("failed to store dimension: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.dimension = dimension
	return nil
}

// Upsert inserts documents and their vectors in one transaction.
func (s *Storage) Upsert(ctx context.Context, docs []domain.IndexedDocument, vectors [][]float64) error {
	if err := vectorstore.CheckBatch(docs, vectors, s.dimension); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (content, doc_type, ref, dimension, vector) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		var ref sql.NullString
		if doc.Metadata.Ref != "" {
			ref = sql.NullString{String: string(doc.Metadata.Ref), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, doc.Content, string(doc.Metadata.Type), ref,
			len(vectors[i]), vectorToBlob(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Search scans every stored vector and returns the topK most similar documents.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, errors.New("query vector is empty")
	}
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.db.QueryContext(ctx, "SELECT content, doc_type, ref, vector FROM documents ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var (
		docs   []domain.IndexedDocument
		scores []float64
	)
	for rows.Next() {
		var (
			doc     domain.IndexedDocument
			docType string
			ref     sql.NullString
			blob    []byte
		)
		if err := rows.Scan(&doc.Content, &docType, &ref, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vec, err := blobToVector(blob)
		if err != nil || len(vec) != len(vector) {
			continue // skip malformed vectors
		}
		doc.Metadata = domain.Metadata{Type: domain.DocType(docType), Ref: domain.TableRef(ref.String)}
		docs = append(docs, doc)
		scores = append(scores, vectorstore.Cosine(vector, vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	idxs := vectorstore.Rank(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{Document: docs[j], Score: scores[j]})
	}
	return results, nil
}

// Count returns the number of stored documents.
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Drop closes the database and removes its files.
func (s *Storage) Drop(context.Context) error {
	_ = s.db.Close()
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Storage) Close() error { return s.db.Close() }

// Factory opens <dir>/vectors.db for each generation.
type Factory struct{}

func (Factory) Name() string { return "sqlite" }

func (Factory) Open(ctx context.Context, dir, _ string) (vectorstore.Storage, error) {
	return Open(ctx, filepath.Join(dir, FileName))
}

func vectorToBlob(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return buf
}

func blobToVector(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
