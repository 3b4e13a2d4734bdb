package suggest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kcaldas/cmdcore/pkg/command"
)

// Source yields completion candidates in display order.
type Source interface {
	Values() []string
}

// StaticList is a literal candidate list. It is split once, on first use.
type StaticList struct {
	raw    string
	once   sync.Once
	values []string
}

// NewStaticList wraps the comma-separated body of a "[a, b]" list.
func NewStaticList(raw string) *StaticList {
	return &StaticList{raw: raw}
}

func (s *StaticList) Values() []string {
	s.once.Do(func() {
		s.values = splitList(s.raw)
	})
	return s.values
}

func splitList(raw string) []string {
	values := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	return values
}

// Placeholder is a named list supplied by the host. It is resolved again on
// every query so host state such as connected users stays current.
type Placeholder struct {
	Name    string
	Resolve func() []string
}

func (p Placeholder) Values() []string {
	if p.Resolve == nil {
		return nil
	}
	return p.Resolve()
}

// Placeholders holds the named dynamic sources a host exposes. It must be
// populated before any spec referencing a name is parsed.
type Placeholders struct {
	mu      sync.RWMutex
	sources map[string]Placeholder
}

// NewPlaceholders creates an empty placeholder registry.
func NewPlaceholders() *Placeholders {
	return &Placeholders{sources: make(map[string]Placeholder)}
}

// Register adds a named source. Names are matched ignoring case and may not
// be registered twice.
func (p *Placeholders) Register(name string, resolve func() []string) error {
	name = strings.Trim(strings.TrimSpace(name), "$")
	if name == "" {
		return fmt.Errorf("placeholder name cannot be empty")
	}
	if resolve == nil {
		return fmt.Errorf("placeholder '%s' needs a resolver", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := command.Fold(name)
	if _, exists := p.sources[key]; exists {
		return fmt.Errorf("placeholder '%s' already registered", name)
	}
	p.sources[key] = Placeholder{Name: name, Resolve: resolve}
	return nil
}

// MustRegister is Register for host wiring code, where a failure is a
// programming error.
func (p *Placeholders) MustRegister(name string, resolve func() []string) {
	if err := p.Register(name, resolve); err != nil {
		panic(err)
	}
}

// Lookup finds a placeholder by name, with or without the surrounding '$'.
func (p *Placeholders) Lookup(name string) (Placeholder, bool) {
	if p == nil {
		return Placeholder{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	ph, ok := p.sources[command.Fold(strings.Trim(name, "$"))]
	return ph, ok
}

// Names returns the registered placeholder names, sorted.
func (p *Placeholders) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.sources))
	for _, ph := range p.sources {
		names = append(names, ph.Name)
	}
	sort.Strings(names)
	return names
}
