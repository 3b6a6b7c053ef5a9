package core

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ModuleCache bounds the in-memory CompiledModule cache so a long-running
// host that compiles many transient modules doesn't grow it unboundedly
// (SPEC_FULL.md domain stack, Interpreter Engine (F)). Grounded on the
// teacher's Cache type, but adapted: the teacher persists a second,
// on-disk compiled-function cache keyed by wazero version plus GOARCH/GOOS,
// which assumes a native-code compiler emitting bytes worth persisting
// across process restarts. This engine has only the interpreter path
// (spec.md §6.3 "the interpreter dispatches identically" whether or not a
// compiled entry point exists), so there is nothing machine-specific to
// persist — only the in-memory bound is kept, via an LRU rather than the
// teacher's unbounded map.
type ModuleCache struct {
	entries *lru.Cache[string, *CompiledModule]
}

// NewModuleCache returns a cache holding at most size compiled modules,
// evicting the least recently used entry once full.
func NewModuleCache(size int) *ModuleCache {
	c, err := lru.New[string, *CompiledModule](size)
	if err != nil {
		// Only returned by golang-lru for size <= 0; fall back to the
		// smallest usable cache rather than propagate a constructor error
		// for what is always a programmer mistake.
		c, _ = lru.New[string, *CompiledModule](1)
	}
	return &ModuleCache{entries: c}
}

func (c *ModuleCache) get(key string) (*CompiledModule, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *ModuleCache) put(key string, cm *CompiledModule) {
	if c == nil || key == "" {
		return
	}
	c.entries.Add(key, cm)
}

// Close purges every cached entry. Compiled modules already instantiated
// are unaffected; this only drops the cache's own retaining references.
func (c *ModuleCache) Close() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
