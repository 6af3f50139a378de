package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
)

// Factory creates a backend from its configuration.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a backend available to New. Backend packages call
// it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers lists registered backend names.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the backend selected by cfg.Provider. The backend package
// must have been imported so its factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.InvalidInput("storage.provider", "provider "+cfg.Provider+" is not registered")
	}

	l := logger.OrGlobal(log).WithComponent("storage")
	l.Info("initializing storage", logger.Fields("provider", cfg.Provider, "prefix", cfg.Prefix))

	st, err := f(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return WithPrefix(st, cfg.Prefix), nil
}
