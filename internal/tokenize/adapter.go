// Package tokenize provides the tokenizer backends compared by the analysis
// package. Every backend is an Adapter registered by name at startup.
package tokenize

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// ErrUnavailable marks a backend that cannot run: it was not configured,
// its model failed to load, or it timed out.
var ErrUnavailable = errors.New("tokenize: backend unavailable")

// Adapter turns text into an ordered token sequence. Implementations must
// be safe for concurrent use and keep no state visible to callers.
type Adapter interface {
	Name() string
	Tokenize(ctx context.Context, text string) ([]string, error)
}

type funcAdapter struct {
	name string
	fn   func(string) []string
}

// NewFunc wraps a pure function as an Adapter.
func NewFunc(name string, fn func(string) []string) Adapter {
	return funcAdapter{name: name, fn: fn}
}

func (f funcAdapter) Name() string { return f.name }

func (f funcAdapter) Tokenize(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(text), nil
}

type unavailable struct {
	name string
	err  error
}

// Unavailable returns an Adapter that always fails with ErrUnavailable.
// It keeps a configured-but-broken backend visible in reports.
func Unavailable(name string, cause error) Adapter {
	return unavailable{name: name, err: fmt.Errorf("%w: %s: %v", ErrUnavailable, name, cause)}
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Tokenize(context.Context, string) ([]string, error) { return nil, u.err }

// Registry is the set of adapters known to a process.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns a registry holding the given adapters.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds the built-in word-level adapters.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Naive(), Regex(), WordPunct(), UAX29())
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds an adapter. Names must be unique.
func (r *Registry) Register(a Adapter) error {
	if a == nil || a.Name() == "" {
		return errors.New("tokenize: adapter must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[a.Name()]; ok {
		return fmt.Errorf("tokenize: adapter %q already registered", a.Name())
	}
	r.adapters[a.Name()] = a
	return nil
}

// Get looks up an adapter by name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.adapters)
	slices.Sort(names)
	return names
}

// Select resolves names to adapters. An empty list selects everything.
// Names that are not registered are returned in missing rather than
// failing the call.
func (r *Registry) Select(names []string) (found []Adapter, missing []string) {
	if len(names) == 0 {
		names = r.Names()
	}
	for _, n := range lo.Uniq(names) {
		if a, ok := r.Get(n); ok {
			found = append(found, a)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}
