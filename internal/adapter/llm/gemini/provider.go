package gemini

import (
	"context"
	"fmt"

	"github.com/tbraack/critique/internal/usecase/review"
)

const providerName = "gemini"

// Client abstracts the Gemini HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider implements the review.Provider port.
type Provider struct {
	model   string
	client  Client
	options CallOptions
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		model:  model,
		client: client,
	}
}

// SetCallOptions overrides temperature/token limits for all calls.
func (p *Provider) SetCallOptions(options CallOptions) {
	p.options = options
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// Generate sends the prompt to Gemini and translates the response.
func (p *Provider) Generate(ctx context.Context, prompt string) (review.ProviderResponse, error) {
	if p.client == nil {
		return review.ProviderResponse{}, fmt.Errorf("gemini client missing")
	}

	response, err := p.client.Call(ctx, prompt, p.options)
	if err != nil {
		return review.ProviderResponse{}, err
	}

	return review.ProviderResponse{
		Text:      response.Text,
		ModelName: p.model,
		TokensIn:  response.TokensIn,
		TokensOut: response.TokensOut,
	}, nil
}
