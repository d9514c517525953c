package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vec := make([]float64, dims)
		for i := range vec {
			vec[i] = 0.5
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
	}))
}

func TestOllamaProviderGenerate(t *testing.T) {
	srv := ollamaServer(t, Dimension)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")

	res, err := p.Generate(context.Background(), "city election turnout", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Len(t, res.Embedding.Values, Dimension)

	var magnitude float64
	for _, v := range res.Embedding.Values {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, magnitude, 1e-4, "vectors must be unit length for cosine distance")
}

func TestOllamaProviderRejectsWrongDimension(t *testing.T) {
	srv := ollamaServer(t, 8)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")

	_, err := p.Generate(context.Background(), "city election turnout", "RETRIEVAL_QUERY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}
