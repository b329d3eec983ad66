package ai

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Provider sends one system + user prompt to a model and returns the text reply.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ProviderConfig carries the settings every provider factory understands.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  *zap.Logger
	Debug   bool
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(ctx context.Context, cfg ProviderConfig) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a registry with the built in providers.
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]ProviderFactory)}
	r.Register(ProviderOpenAI, func(_ context.Context, cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg), nil
	})
	r.Register(ProviderGemini, func(ctx context.Context, cfg ProviderConfig) (Provider, error) {
		return NewGeminiProvider(ctx, cfg)
	})
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(ctx context.Context, name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return factory(ctx, cfg)
}

// Names lists the registered providers.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}

// NewAssistantFromConfig builds the named provider through the registry and
// wraps it in an Assistant.
func NewAssistantFromConfig(ctx context.Context, name string, cfg ProviderConfig) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for AI provider %s", name)
	}
	provider, err := NewProviderRegistry().GetProvider(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	return NewAssistant(provider, cfg.Logger), nil
}
