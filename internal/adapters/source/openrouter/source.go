package openrouter

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/internal/httpclient"
	"github.com/nulzo/model-selector/pkg/schema"
)

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Source reads the public model listing. The endpoint needs no credentials.
type Source struct {
	client  httpclient.HTTPClient
	baseURL string
	headers map[string]string
}

type Option func(*Source)

// WithHeader adds a header to every listing request (e.g. HTTP-Referer).
func WithHeader(key, value string) Option {
	return func(s *Source) {
		s.headers[key] = value
	}
}

func NewSource(client httpclient.HTTPClient, baseURL string, opts ...Option) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	s := &Source{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ModelSource = (*Source)(nil)

func (s *Source) Endpoint() string {
	return s.baseURL + "/models"
}

func (s *Source) FetchModels(ctx context.Context) (*schema.ModelsResponse, error) {
	var out schema.ModelsResponse
	err := httpclient.SendRequest(ctx, s.client, http.MethodGet, s.Endpoint(), s.headers, nil, &out)
	if err != nil {
		fetchErr := &domain.RegistryFetchError{URL: s.Endpoint(), Err: err}
		var upstream *httpclient.UpstreamError
		if errors.As(err, &upstream) {
			fetchErr.StatusCode = upstream.StatusCode
		}
		return nil, fetchErr
	}
	return &out, nil
}
