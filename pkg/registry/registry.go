// Package registry implements the process-wide algorithm registry: two
// name->strategy tables, one for 1D and one for 2D algorithms.
package registry

import (
	"sync"

	"github.com/cutstock/engine/pkg/cuterr"
	"github.com/cutstock/engine/pkg/strategy"
)

// Algorithm name constants, bit-exact per the external interface.
const (
	Algorithm1DFFD        = "1D_FFD"
	Algorithm1DBFD        = "1D_BFD"
	Algorithm2DBottomLeft = "2D_BOTTOM_LEFT"
	Algorithm2DGuillotine = "2D_GUILLOTINE"

	// AlgorithmMaxRects is a historical alias: requests naming MAXRECTS
	// resolve to 2D_GUILLOTINE. Whether the original system intended
	// this alias or left a TODO behind it is unclear; it is preserved
	// as-is rather than guessed at.
	AlgorithmMaxRects = "MAXRECTS"
)

// WarningFunc receives a message when registration overwrites an
// existing entry.
type WarningFunc func(table, name string)

// Registry holds the separate 1D and 2D algorithm tables.
type Registry struct {
	mu   sync.RWMutex
	oneD map[string]strategy.Strategy
	twoD map[string]strategy.Strategy
	warn WarningFunc
}

// New creates an empty registry. warn may be nil.
func New(warn WarningFunc) *Registry {
	return &Registry{
		oneD: make(map[string]strategy.Strategy),
		twoD: make(map[string]strategy.Strategy),
		warn: warn,
	}
}

// Register1D adds a 1D strategy under name, overwriting (with a warning)
// any existing entry.
func (r *Registry) Register1D(name string, s strategy.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.oneD[name]; exists && r.warn != nil {
		r.warn("1D", name)
	}
	r.oneD[name] = s
}

// Register2D adds a 2D strategy under name, overwriting (with a warning)
// any existing entry.
func (r *Registry) Register2D(name string, s strategy.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.twoD[name]; exists && r.warn != nil {
		r.warn("2D", name)
	}
	r.twoD[name] = s
}

// Unregister removes name from both tables, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.oneD, name)
	delete(r.twoD, name)
}

// resolve maps the MAXRECTS alias onto its target before lookup.
func resolve(name string) string {
	if name == AlgorithmMaxRects {
		return Algorithm2DGuillotine
	}
	return name
}

// Get resolves name (applying the MAXRECTS alias) and returns the
// matching strategy, searching 1D then 2D tables. Unknown names return
// ERR_UNKNOWN_ALGORITHM.
func (r *Registry) Get(name string) (strategy.Strategy, error) {
	resolved := resolve(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.oneD[resolved]; ok {
		return s, nil
	}
	if s, ok := r.twoD[resolved]; ok {
		return s, nil
	}
	return nil, cuterr.Newf(cuterr.ErrUnknownAlgorithm, "unknown algorithm %q", name)
}

// Has reports whether name (after alias resolution) is registered in
// either table.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// List returns the registered names in each table.
func (r *Registry) List() (oneD []string, twoD []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.oneD {
		oneD = append(oneD, name)
	}
	for name := range r.twoD {
		twoD = append(twoD, name)
	}
	return oneD, twoD
}
