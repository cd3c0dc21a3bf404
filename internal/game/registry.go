package game

import (
	"fmt"
	"sync"
)

// Registry keeps the playable games in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []Game
	byCmd map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byCmd: make(map[string]int)}
}

// Register adds a game. Two games cannot share a command.
func (r *Registry) Register(g Game) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	cmd := g.Command()
	if cmd == "" {
		return fmt.Errorf("game %q has no command", g.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byCmd[cmd]; ok {
		return fmt.Errorf("command /%s already belongs to %s", cmd, r.order[i].Name())
	}
	r.byCmd[cmd] = len(r.order)
	r.order = append(r.order, g)
	return nil
}

// List returns the games in the order they were registered.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Game(nil), r.order...)
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
