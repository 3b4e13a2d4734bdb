// Package resolve maps qualified type names to the handler types that
// declare commands. Handler authors fill a Table at compile time; nothing
// is discovered by scanning binaries.
package resolve

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/kcaldas/cmdcore/pkg/command"
)

// Member is one method of a handler type that may act as a command or
// sub-command.
type Member struct {
	Name string
	// Command is set when the member is a top-level command.
	Command *command.Meta
	// Sub is set when the member is a sub-command.
	Sub  *command.Meta
	Func command.MethodFunc
}

// Tagged reports whether the member carries sub-command metadata.
func (m Member) Tagged() bool { return m.Sub != nil }

// Type describes a handler-defining type.
type Type struct {
	// Name is the qualified name, Package + "." + short name.
	Name    string
	Package string
	// GoType is the dynamic type of the instances New returns.
	GoType   reflect.Type
	Abstract bool
	// Enclosing names the type whose instance New needs. Empty when New
	// takes no enclosing instance.
	Enclosing string
	New       func(enclosing any) (any, error)
	Members   []Member
}

// ShortName returns the name without its package.
func (t *Type) ShortName() string {
	return strings.TrimPrefix(t.Name, t.Package+".")
}

// Member returns the member called name.
func (t *Type) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// TypeResolver is the capability the grammar and the registry need to turn
// names into types.
type TypeResolver interface {
	Resolve(name string) (*Type, error)
	IsInstantiable(t *Type) bool
	ListTaggedMembers(t *Type) []Member
}

// Discoverer enumerates the handler types the host ships with.
type Discoverer interface {
	Candidates() []*Type
	IsConcrete(t *Type) bool
}

// Table is the compile-time registration table. It implements TypeResolver
// and Discoverer.
type Table struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byGo   map[reflect.Type]*Type
	order  []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		byName: make(map[string]*Type),
		byGo:   make(map[reflect.Type]*Type),
	}
}

// Add registers a type. The name must be qualified and unique.
func (tb *Table) Add(t Type) error {
	if t.Package == "" {
		return fmt.Errorf("type %q has no package", t.Name)
	}
	if !strings.HasPrefix(t.Name, t.Package+".") || len(t.Name) == len(t.Package)+1 {
		return fmt.Errorf("type %q must be qualified with package %q", t.Name, t.Package)
	}
	seen := make(map[string]bool, len(t.Members))
	for _, m := range t.Members {
		if m.Name == "" || seen[m.Name] {
			return fmt.Errorf("type %q has an empty or duplicate member %q", t.Name, m.Name)
		}
		if m.Func == nil {
			return fmt.Errorf("member %s.%s has no function", t.Name, m.Name)
		}
		seen[m.Name] = true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	if _, exists := tb.byName[t.Name]; exists {
		return fmt.Errorf("type %q already registered", t.Name)
	}
	stored := t
	tb.byName[t.Name] = &stored
	if t.GoType != nil {
		tb.byGo[t.GoType] = &stored
	}
	tb.order = append(tb.order, t.Name)
	return nil
}

// MustAdd is Add for static registration code.
func (tb *Table) MustAdd(t Type) {
	if err := tb.Add(t); err != nil {
		panic(err)
	}
}

// Resolve looks up a qualified type name.
func (tb *Table) Resolve(name string) (*Type, error) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	t, ok := tb.byName[name]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", name, command.ErrNotFound)
	}
	return t, nil
}

// TypeOf finds the table entry whose instances have the given Go type.
func (tb *Table) TypeOf(goType reflect.Type) (*Type, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	t, ok := tb.byGo[goType]
	return t, ok
}

// IsInstantiable reports whether instances of t can be built.
func (tb *Table) IsInstantiable(t *Type) bool {
	return t != nil && !t.Abstract && t.New != nil
}

// ListTaggedMembers returns the members carrying sub-command metadata, in
// declaration order.
func (tb *Table) ListTaggedMembers(t *Type) []Member {
	var tagged []Member
	for _, m := range t.Members {
		if m.Tagged() {
			tagged = append(tagged, m)
		}
	}
	return tagged
}

// Candidates returns every registered type in registration order.
func (tb *Table) Candidates() []*Type {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	types := make([]*Type, 0, len(tb.order))
	for _, name := range tb.order {
		types = append(types, tb.byName[name])
	}
	return types
}

// IsConcrete is IsInstantiable under the discovery vocabulary.
func (tb *Table) IsConcrete(t *Type) bool {
	return tb.IsInstantiable(t)
}

// Names returns the registered type names, sorted.
func (tb *Table) Names() []string {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	names := append([]string(nil), tb.order...)
	sort.Strings(names)
	return names
}
