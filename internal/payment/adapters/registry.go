package adapters

import (
	"strings"

	"github.com/devcircularity/commerce-backend/internal/payment/domain"
)

// Registry indexes payment providers by identifier for the host framework's
// dispatch paths.
type Registry struct {
	providers map[string]domain.Provider
}

func NewRegistry(providers ...domain.Provider) *Registry {
	index := make(map[string]domain.Provider, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		id := strings.ToLower(strings.TrimSpace(provider.Identifier()))
		if id == "" {
			continue
		}
		index[id] = provider
	}
	return &Registry{providers: index}
}

func (r *Registry) ProviderExists(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.providers[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

func (r *Registry) Provider(id string) (domain.Provider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider, ok := r.providers[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return provider, nil
}
