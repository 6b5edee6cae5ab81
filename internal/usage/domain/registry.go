package domain

import (
	"context"
	"fmt"
	"sync"

	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"gorm.io/gorm"
)

// Counter returns the live number of rows representing prior uses of q.Action.
type Counter func(ctx context.Context, db *gorm.DB, q Query) (int64, error)

// Registry maps each action to the counter that measures it.
type Registry struct {
	mu       sync.RWMutex
	counters map[plandomain.ActionType]Counter
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[plandomain.ActionType]Counter)}
}

func (r *Registry) Register(action plandomain.ActionType, counter Counter) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %s", plandomain.ErrUnknownAction, action)
	}
	if counter == nil {
		return fmt.Errorf("nil counter for %s", action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.counters[action]; exists {
		return fmt.Errorf("counter for %s already registered", action)
	}
	r.counters[action] = counter
	return nil
}

func (r *Registry) Counter(action plandomain.ActionType) (Counter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counter, ok := r.counters[action]
	return counter, ok
}
