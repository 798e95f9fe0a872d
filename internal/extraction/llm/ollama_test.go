package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow-backend/internal/extraction/llm"
	"github.com/docuflow/docuflow-backend/pkg/config"
	"github.com/docuflow/docuflow-backend/pkg/logger"
)

func ollamaConfig(url string) *config.OllamaConfig {
	return &config.OllamaConfig{
		URL:         url,
		Model:       "llama3.2",
		Timeout:     5 * time.Second,
		Temperature: 0.1,
		NumPredict:  2000,
	}
}

func TestOllama_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Contains(t, req["prompt"], "OCR TEXT HERE")

		opts, ok := req["options"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, 0.1, opts["temperature"])
		assert.Equal(t, float64(2000), opts["num_predict"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": `{"vendor_name": "ACME"}`,
			"done":     true,
		})
	}))
	defer srv.Close()

	client := llm.NewOllama(ollamaConfig(srv.URL), logger.New("test", "test"))

	out, err := client.Complete(context.Background(), "prompt with OCR TEXT HERE")
	require.NoError(t, err)
	assert.Equal(t, `{"vendor_name": "ACME"}`, out)
}

func TestOllama_CompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llm.NewOllama(ollamaConfig(srv.URL), logger.New("test", "test"))

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOllama_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	client := llm.NewOllama(ollamaConfig(srv.URL), logger.New("test", "test"))
	assert.True(t, client.Available(context.Background()))

	srv.Close()
	assert.False(t, client.Available(context.Background()))
}
