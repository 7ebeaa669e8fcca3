package regrid

import (
	"fmt"
	"sort"
	"strings"

	"go.ngs.io/harmonize/internal/domain"
)

// Method names understood by DefaultRegistry.
const (
	MethodAdaptive     = "adaptive"
	MethodConservative = "conservative"
)

// Backend is one regridding implementation.
type Backend interface {
	Name() string
	// Available returns nil when the backend can run, or an error wrapping
	// ErrBackendUnavailable that tells the user how to enable it.
	Available() error
	Regrid(g *domain.Grid, b domain.SpatialBounds, res float64) (*domain.Grid, error)
}

// MethodInfo describes a registered backend.
type MethodInfo struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Available bool     `json:"available"`
	Reason    string   `json:"reason,omitempty"`
}

// Registry maps method names to backends.
type Registry struct {
	backends map[string]Backend
	aliases  map[string]string
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		aliases:  make(map[string]string),
	}
}

// DefaultRegistry registers the adaptive engine (alias "flox") and the
// conservative backend (alias "esmf").
func DefaultRegistry(engine *Engine, conservative *Conservative) *Registry {
	r := NewRegistry()
	r.Register(engine, "flox")
	r.Register(conservative, "esmf")
	return r
}

// Register adds b under its name and the given aliases. A later registration
// with the same name replaces the earlier one.
func (r *Registry) Register(b Backend, aliases ...string) {
	name := normalizeMethod(b.Name())
	if _, ok := r.backends[name]; !ok {
		r.order = append(r.order, name)
	}
	r.backends[name] = b
	for _, a := range aliases {
		r.aliases[normalizeMethod(a)] = name
	}
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

// Lookup resolves a method token. An empty token selects the adaptive engine.
// Unknown tokens yield a *MethodError; disabled backends an error wrapping
// ErrBackendUnavailable.
func (r *Registry) Lookup(method string) (Backend, error) {
	name := normalizeMethod(method)
	if name == "" {
		name = MethodAdaptive
	}
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	b, ok := r.backends[name]
	if !ok {
		return nil, &MethodError{Method: method, Known: r.known()}
	}
	if err := b.Available(); err != nil {
		return nil, fmt.Errorf("method '%s': %w", name, err)
	}
	return b, nil
}

func (r *Registry) known() []string {
	known := append([]string(nil), r.order...)
	for a := range r.aliases {
		known = append(known, a)
	}
	sort.Strings(known)
	return known
}

// Methods lists the registered backends in registration order.
func (r *Registry) Methods() []MethodInfo {
	infos := make([]MethodInfo, 0, len(r.order))
	for _, name := range r.order {
		info := MethodInfo{Name: name, Available: true}
		for a, canonical := range r.aliases {
			if canonical == name {
				info.Aliases = append(info.Aliases, a)
			}
		}
		sort.Strings(info.Aliases)
		if err := r.backends[name].Available(); err != nil {
			info.Available = false
			info.Reason = err.Error()
		}
		infos = append(infos, info)
	}
	return infos
}

// Regrid validates its inputs and resamples g with the backend named by method.
func (r *Registry) Regrid(g *domain.Grid, b domain.SpatialBounds, res float64, method string) (*domain.Grid, error) {
	backend, err := r.prepare(g, b, res, method)
	if err != nil {
		return nil, err
	}
	return backend.Regrid(g, b, res)
}

func (r *Registry) prepare(g *domain.Grid, b domain.SpatialBounds, res float64, method string) (Backend, error) {
	backend, err := r.Lookup(method)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := domain.CheckResolution(res); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return backend, nil
}
