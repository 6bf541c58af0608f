package connector

import (
	"fmt"
	"sync"
)

var globalManager = &manager{
	providers: make(map[string]Provider),
}

type manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under the given driver name.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// providerFor looks up a registered provider.
func providerFor(name string) (Provider, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector: provider %s not registered", name)
	}
	return provider, nil
}
