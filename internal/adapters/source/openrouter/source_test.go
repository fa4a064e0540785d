package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `{
  "data": [
    {
      "id": "openai/gpt-4o-mini",
      "name": "OpenAI: GPT-4o-mini",
      "created": 1721260800,
      "description": "Small multimodal model",
      "context_length": 128000,
      "architecture": {"modality": "text+image->text", "input_modalities": ["text", "image"], "output_modalities": ["text"], "tokenizer": "GPT"},
      "pricing": {"prompt": "0.00000015", "completion": "0.0000006", "request": "0", "image": "0.000217"},
      "top_provider": {"context_length": 128000, "max_completion_tokens": 16384, "is_moderated": true},
      "supported_parameters": ["tools", "tool_choice", "response_format", "temperature"]
    }
  ]
}`

func TestFetchModels_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models", r.URL.Path)
		assert.Equal(t, "model-selector", r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(listing))
	}))
	defer srv.Close()

	src := NewSource(srv.Client(), srv.URL+"/api/v1/", WithHeader("X-Title", "model-selector"))
	data, err := src.FetchModels(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Data, 1)

	m := data.Data[0]
	assert.Equal(t, "openai/gpt-4o-mini", m.ID)
	assert.Equal(t, 0.00000015, m.Pricing.Prompt.Value)
	assert.Equal(t, []string{"text", "image"}, m.Architecture.InputModalities)
	assert.Equal(t, int64(1721260800), m.Created)
}

func TestFetchModels_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewSource(srv.Client(), srv.URL).FetchModels(context.Background())

	var fetchErr *domain.RegistryFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Equal(t, srv.URL+"/models", fetchErr.URL)
}

func TestFetchModels_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := NewSource(srv.Client(), srv.URL).FetchModels(context.Background())

	var fetchErr *domain.RegistryFetchError
	require.ErrorAs(t, err, &fetchErr)
	var decodeErr *httpclient.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestFetchModels_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSource(http.DefaultClient, url).FetchModels(context.Background())

	var fetchErr *domain.RegistryFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
}

func TestFetchModels_BadEntryDoesNotFailListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"good/model","context_length":8192,"pricing":{"prompt":"0.000001","completion":"0.000002"}},
			{"id":"bad/model","context_length":"128000"}
		]}`))
	}))
	defer srv.Close()

	data, err := NewSource(srv.Client(), srv.URL).FetchModels(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Data, 1)
	assert.Equal(t, "good/model", data.Data[0].ID)
	assert.Equal(t, 1, data.Skipped)
}
