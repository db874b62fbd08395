// Package buildrun dispatches per-target package builds. A Runner wraps
// the external build tool as a synchronous task returning a structured
// result, which keeps the pipeline deterministic and lets tests swap in
// a fake tool.
package buildrun

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/perigee-labs/packship/src/config"
	"github.com/perigee-labs/packship/src/store"
)

// Request carries everything one target build needs.
type Request struct {
	Target   config.Target
	Channel  string
	Version  string
	Features []string
	Verbose  bool
}

// Runner is the interface every build runner implements. Build either
// stages every produced artifact or fails the target as a unit — no
// partial artifacts reach the store on failure.
type Runner interface {
	Name() string
	Build(ctx context.Context, req Request, st store.Store) (*Result, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func(cfg config.BuildConfig) Runner{}
)

// Register adds a runner constructor to the global registry.
// Called from init() in each runner implementation.
func Register(name string, constructor func(cfg config.BuildConfig) Runner) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("buildrun: duplicate runner registration: %s", name))
	}
	registry[name] = constructor
}

// Get returns a new instance of the named runner.
func Get(name string, cfg config.BuildConfig) (Runner, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("buildrun: unknown runner: %s", name)
	}
	return ctor(cfg), nil
}

// All returns sorted names of all registered runners.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
