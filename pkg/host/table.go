// Package host holds the command table a host process dispatches from.
package host

import (
	"sort"
	"strings"
	"sync"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/samber/lo"
)

// Adapter plugs a resolved descriptor into the host table.
type Adapter struct {
	Descriptor *command.Descriptor
	Owner      string
}

// Name returns the primary name of the wrapped descriptor.
func (a *Adapter) Name() string {
	return a.Descriptor.Name()
}

// Label returns the namespaced key, "owner:name".
func (a *Adapter) Label() string {
	return a.Owner + ":" + a.Descriptor.Name()
}

type slot struct {
	adapter *Adapter
	primary bool
}

// MemoryTable is an in-memory host command table. Keys are
// case-insensitive. A primary name always takes its key; an alias only
// takes a free key, so the first command to claim an alias keeps it.
type MemoryTable struct {
	mu    sync.RWMutex
	known map[string]slot
}

// NewMemoryTable creates an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{known: make(map[string]slot)}
}

// Register adds a under name and prefix:name, then under each alias.
// It returns the aliases that could not be claimed.
func (t *MemoryTable) Register(prefix, name string, a *Adapter) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix = command.Fold(strings.TrimSpace(prefix))
	t.put(prefix+":"+name, a, true)
	t.put(name, a, true)

	var skipped []string
	for _, alias := range a.Descriptor.Aliases() {
		t.put(prefix+":"+alias, a, false)
		if !t.put(alias, a, false) {
			skipped = append(skipped, alias)
		}
	}
	return skipped
}

func (t *MemoryTable) put(key string, a *Adapter, primary bool) bool {
	key = command.Fold(key)
	if existing, ok := t.known[key]; ok && !primary && existing.adapter != a {
		return false
	}
	t.known[key] = slot{adapter: a, primary: primary}
	return true
}

// Unregister removes every key held by a.
func (t *MemoryTable) Unregister(a *Adapter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, s := range t.known {
		if s.adapter == a {
			delete(t.known, key)
		}
	}
}

// Lookup finds the adapter registered under name, which may be a primary
// name, an alias or a prefix:name label.
func (t *MemoryTable) Lookup(name string) (*Adapter, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.known[command.Fold(name)]
	if !ok {
		return nil, false
	}
	return s.adapter, true
}

// Keys returns every registered key, sorted.
func (t *MemoryTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := lo.Keys(t.known)
	sort.Strings(keys)
	return keys
}

// All returns each registered adapter once, sorted by label.
func (t *MemoryTable) All() []*Adapter {
	t.mu.RLock()
	adapters := lo.Uniq(lo.Map(lo.Values(t.known), func(s slot, _ int) *Adapter {
		return s.adapter
	}))
	t.mu.RUnlock()

	sort.Slice(adapters, func(i, j int) bool {
		return adapters[i].Label() < adapters[j].Label()
	})
	return adapters
}
