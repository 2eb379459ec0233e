package chain

import (
	"context"
	"fmt"

	"ticket-marketplace/internal/chain/evm"
)

// Factory implements ProviderFactory
type Factory struct{}

// NewFactory creates a new chain provider factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateProvider creates a provider instance based on type and configuration
func (f *Factory) CreateProvider(ctx context.Context, name ProviderName, config interface{}) (Provider, error) {
	switch name {
	case ProviderEVM:
		evmConfig, ok := config.(*evm.Config)
		if !ok {
			return nil, fmt.Errorf("invalid EVM config type, expected *evm.Config")
		}
		return NewEVMAdapter(ctx, evmConfig)

	default:
		return nil, fmt.Errorf("unsupported chain provider: %s", name)
	}
}

// GetSupportedProviders returns list of supported chain providers
func (f *Factory) GetSupportedProviders() []ProviderName {
	return []ProviderName{
		ProviderEVM,
	}
}

// Registry manages multiple provider instances
type Registry struct {
	providers map[ProviderName]Provider
	factory   ProviderFactory
	primary   ProviderName
}

// NewRegistry creates a new provider registry
func NewRegistry(factory ProviderFactory) *Registry {
	return &Registry{
		providers: make(map[ProviderName]Provider),
		factory:   factory,
	}
}

// Register creates and registers a provider instance
func (r *Registry) Register(ctx context.Context, name ProviderName, config interface{}) error {
	provider, err := r.factory.CreateProvider(ctx, name, config)
	if err != nil {
		return fmt.Errorf("failed to create %s provider: %w", name, err)
	}

	r.providers[name] = provider

	// Set first registered provider as primary
	if r.primary == "" {
		r.primary = name
	}

	return nil
}

// Get returns a provider instance by name
func (r *Registry) Get(name ProviderName) (Provider, error) {
	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("chain provider %s not registered", name)
	}
	return provider, nil
}

// Primary returns the primary provider instance
func (r *Registry) Primary() (Provider, error) {
	if r.primary == "" {
		return nil, fmt.Errorf("no primary chain provider configured")
	}
	return r.Get(r.primary)
}

// Close gracefully closes all provider connections
func (r *Registry) Close(ctx context.Context) error {
	for name, provider := range r.providers {
		if err := provider.Close(ctx); err != nil {
			fmt.Printf("Error closing %s provider: %v\n", name, err)
		}
	}
	return nil
}
