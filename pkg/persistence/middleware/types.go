package middleware

import "github.com/aretw0/paradigm/pkg/ports"

// Middleware wraps a TrialStore to add behavior.
type Middleware func(ports.TrialStore) ports.TrialStore

// Chain applies middlewares so that the first one listed sees calls first.
func Chain(store ports.TrialStore, mws ...Middleware) ports.TrialStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// listAll forwards List when the wrapped store supports it.
func listAll(next ports.TrialStore) ports.SessionLister {
	if l, ok := next.(ports.SessionLister); ok {
		return l
	}
	return nil
}
