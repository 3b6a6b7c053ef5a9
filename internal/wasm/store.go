package wasm

import (
	"context"
	"fmt"
	"sync"
)

// Store is the insertion-ordered registry of live ModuleInstances (spec.md
// §3.4). Names must be unique while registered; a module that is still
// imported by another cannot be dropped.
//
// Grounded on tetratelabs/wazero's internal/wasm store (test-only
// retrieval: store_test.go) for the registration/drop contract, generalized
// to the ModuleInUse dependency-tracking rule spec.md §3.4 requires.
type Store struct {
	mu sync.Mutex

	// order preserves registration order for deterministic Close-all
	// iteration (spec.md §3.4 "insertion-ordered").
	order   []string
	modules map[string]*ModuleInstance

	// dependents[x] is the set of module names that import from x, used to
	// refuse Drop(x) while any dependent remains registered.
	dependents map[string]map[string]struct{}
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		modules:    map[string]*ModuleInstance{},
		dependents: map[string]map[string]struct{}{},
	}
}

var (
	// ErrModuleNameConflict is returned by Register when the name is already
	// in use by another live module.
	ErrModuleNameConflict = fmt.Errorf("wasm: module name already registered")
	// ErrModuleInUse is returned by Drop when other registered modules still
	// import from this one.
	ErrModuleInUse = fmt.Errorf("wasm: module still imported by another module")
	// ErrModuleNotFound is returned by Drop/Module for an unregistered name.
	ErrModuleNotFound = fmt.Errorf("wasm: module not found")
)

// Register adds m under its own ModuleName, recording importedFrom (the
// distinct set of module names m imports from) for later ModuleInUse
// checks.
func (s *Store) Register(m *ModuleInstance, importedFrom []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.modules[m.ModuleName]; exists {
		return fmt.Errorf("%w: %q", ErrModuleNameConflict, m.ModuleName)
	}
	s.modules[m.ModuleName] = m
	s.order = append(s.order, m.ModuleName)
	for _, dep := range importedFrom {
		set, ok := s.dependents[dep]
		if !ok {
			set = map[string]struct{}{}
			s.dependents[dep] = set
		}
		set[m.ModuleName] = struct{}{}
	}
	return nil
}

// Module looks up a registered module by name.
func (s *Store) Module(name string) (*ModuleInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[name]
	return m, ok
}

// Drop unregisters name, refusing with ErrModuleInUse if any other
// registered module still imports from it (spec.md §3.4). ctx is accepted
// but not used; dropping only marks the module closed.
func (s *Store) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	m, ok := s.modules[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	if deps := s.dependents[name]; len(deps) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrModuleInUse, name)
	}
	delete(s.modules, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	// This module is no longer anyone's dependent; drop its own entries in
	// other modules' dependent sets.
	for dep, set := range s.dependents {
		delete(set, name)
		if len(set) == 0 {
			delete(s.dependents, dep)
		}
	}
	s.mu.Unlock()

	m.markClosed()
	_ = ctx
	return nil
}

// Names returns registered module names in registration order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// CloseAll drops every registered module regardless of dependents, in
// reverse registration order, for process-wide teardown.
func (s *Store) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	s.mu.Unlock()

	for i := len(names) - 1; i >= 0; i-- {
		s.mu.Lock()
		delete(s.dependents, names[i])
		for _, set := range s.dependents {
			delete(set, names[i])
		}
		m, ok := s.modules[names[i]]
		delete(s.modules, names[i])
		s.mu.Unlock()
		if ok {
			m.markClosed()
		}
	}
	s.mu.Lock()
	s.order = nil
	s.mu.Unlock()
	return nil
}
