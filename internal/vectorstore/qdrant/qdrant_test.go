package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

// fakeQdrant records requests and serves canned search results.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []string
	points   []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	switch {
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docqa_g1/points":
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		_, _ = w.Write([]byte(`{"result":{}}`))
	case r.URL.Path == "/collections/docqa_g1/points/search":
		_, _ = w.Write([]byte(`{"result":[{"score":0.8,"payload":{"content":"rates table","type":"table","ref":"r-1"}}]}`))
	case r.URL.Path == "/collections/docqa_g1/points/count":
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.points)}})
	default:
		_, _ = w.Write([]byte(`{"result":true}`))
	}
}

func TestStorage_Lifecycle(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	st, err := NewFactory(Config{URL: srv.URL + "/", Collection: "docqa"}).Open(ctx, "", "g-1")
	require.NoError(t, err)
	s := st.(*Storage)
	assert.Equal(t, "docqa_g1", s.Collection())

	require.NoError(t, s.Init(ctx, 2))
	docs := []domain.IndexedDocument{
		{Content: "rates table", Metadata: domain.Metadata{Type: domain.DocTable, Ref: "r-1"}},
		{Content: "text", Metadata: domain.Metadata{Type: domain.DocText}},
	}
	require.NoError(t, s.Upsert(ctx, docs, [][]float64{{1, 0}, {0, 1}}))

	res, err := s.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, docs[0], res[0].Document)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "DELETE /collections/docqa_g1", fake.requests[0])
	assert.Equal(t, "PUT /collections/docqa_g1", fake.requests[1])
	require.Len(t, fake.points, 2)
	payload := fake.points[1]["payload"].(map[string]any)
	assert.Equal(t, "text", payload["type"])
	assert.EqualValues(t, 1, payload["seq"])
}

func TestStorage_DropPropagatesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewStorage(Config{URL: srv.URL, Collection: "x"})
	assert.Error(t, s.Drop(context.Background()))
}
