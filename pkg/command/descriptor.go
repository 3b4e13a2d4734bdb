package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// reserved tokens of the sub-command grammar
const reservedTokens = "*[]"

// Descriptor describes one invocable command or sub-command. It is built
// during registration and sealed afterwards, so readers never lock it.
type Descriptor struct {
	name        string
	permission  string
	description string
	usage       string
	aliases     []string
	target      UsageTarget
	subSpecs    []string
	suggestSpec string

	children  map[string]*Descriptor // folded name -> child
	binding   Binding
	suggester Suggester
	completer Completer
	parent    *Descriptor
	sealed    bool
}

// Fold returns the case-insensitive key for a command name.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ValidateName checks a command name against the descriptor invariants.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, reservedTokens) || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: '%s' contains a reserved character", ErrInvalidName, name)
	}
	return nil
}

// New builds an unsealed descriptor from metadata.
func New(meta Meta) (*Descriptor, error) {
	if err := ValidateName(meta.Name); err != nil {
		return nil, err
	}
	aliases := lo.Uniq(lo.Filter(meta.Aliases, func(a string, _ int) bool {
		return strings.TrimSpace(a) != "" && !strings.EqualFold(a, meta.Name)
	}))
	return &Descriptor{
		name:        meta.Name,
		permission:  meta.Permission,
		description: meta.Description,
		usage:       meta.Usage,
		aliases:     aliases,
		target:      meta.Target,
		subSpecs:    append([]string(nil), meta.SubCommands...),
		suggestSpec: meta.Suggestions,
		children:    make(map[string]*Descriptor),
	}, nil
}

func (d *Descriptor) Name() string              { return d.name }
func (d *Descriptor) Permission() string        { return d.permission }
func (d *Descriptor) Description() string       { return d.description }
func (d *Descriptor) Usage() string             { return d.usage }
func (d *Descriptor) Aliases() []string         { return append([]string(nil), d.aliases...) }
func (d *Descriptor) Target() UsageTarget       { return d.target }
func (d *Descriptor) SubCommandSpecs() []string { return append([]string(nil), d.subSpecs...) }
func (d *Descriptor) SuggestionSpec() string    { return d.suggestSpec }
func (d *Descriptor) Binding() Binding          { return d.binding }
func (d *Descriptor) Completer() Completer      { return d.completer }
func (d *Descriptor) Parent() *Descriptor       { return d.parent }
func (d *Descriptor) Sealed() bool              { return d.sealed }

// HandlerType is the qualified name of the type the handler is defined on.
func (d *Descriptor) HandlerType() string { return d.binding.Type }

// Path returns the names from the root command down to d.
func (d *Descriptor) Path() []string {
	var path []string
	for cur := d; cur != nil; cur = cur.parent {
		path = append([]string{cur.name}, path...)
	}
	return path
}

// Meta rebuilds the metadata record d was created from.
func (d *Descriptor) Meta() Meta {
	return Meta{
		Name:        d.name,
		Permission:  d.permission,
		Description: d.description,
		Usage:       d.usage,
		Aliases:     d.Aliases(),
		SubCommands: d.SubCommandSpecs(),
		Suggestions: d.suggestSpec,
		Target:      d.target,
	}
}

// IsUsableBy reports whether a source of the given kind may run d.
func (d *Descriptor) IsUsableBy(kind SourceKind) bool {
	return d.target.Allows(kind)
}

// ResolveChild looks up a direct sub-command by name, ignoring case.
func (d *Descriptor) ResolveChild(token string) *Descriptor {
	if len(d.children) == 0 {
		return nil
	}
	return d.children[Fold(token)]
}

// HasChildren reports whether d has sub-commands.
func (d *Descriptor) HasChildren() bool { return len(d.children) > 0 }

// Children returns the direct sub-commands sorted by name.
func (d *Descriptor) Children() []*Descriptor {
	children := lo.Values(d.children)
	sort.Slice(children, func(i, j int) bool {
		return children[i].name < children[j].name
	})
	return children
}

// ChildNames returns the sorted names of the direct sub-commands.
func (d *Descriptor) ChildNames() []string {
	return lo.Map(d.Children(), func(c *Descriptor, _ int) string { return c.name })
}

// AddChild attaches a sub-command. Names are unique ignoring case.
func (d *Descriptor) AddChild(child *Descriptor) error {
	if d.sealed {
		return ErrSealed
	}
	if child == nil {
		return fmt.Errorf("%w: nil sub-command", ErrInvalidName)
	}
	if child == d {
		return fmt.Errorf("%w: '%s' cannot be its own sub-command", ErrInvalidName, d.name)
	}
	key := Fold(child.name)
	if existing, ok := d.children[key]; ok {
		return fmt.Errorf("%w: '%s' already defined under '%s' (as '%s')",
			ErrDuplicateChild, child.name, d.name, existing.name)
	}
	child.parent = d
	d.children[key] = child
	return nil
}

// Bind attaches the handler binding.
func (d *Descriptor) Bind(b Binding) error {
	if d.sealed {
		return ErrSealed
	}
	d.binding = b
	return nil
}

// SetSuggester attaches per-position suggestion rules.
func (d *Descriptor) SetSuggester(s Suggester) error {
	if d.sealed {
		return ErrSealed
	}
	d.suggester = s
	return nil
}

// SetCompleter attaches a custom completer that takes precedence over the
// suggestion rules when completing from the host.
func (d *Descriptor) SetCompleter(c Completer) error {
	if d.sealed {
		return ErrSealed
	}
	d.completer = c
	return nil
}

// Seal freezes d and its whole sub-tree.
func (d *Descriptor) Seal() {
	d.Walk(func(n *Descriptor) bool {
		n.sealed = true
		return true
	})
}

// Walk visits d and its descendants depth first, in name order. Returning
// false from fn skips the node's children.
func (d *Descriptor) Walk(fn func(*Descriptor) bool) {
	if !fn(d) {
		return
	}
	for _, child := range d.Children() {
		child.Walk(fn)
	}
}

// Suggest returns the rule-based candidates for an argument position.
func (d *Descriptor) Suggest(pos int, partial string) []string {
	if d.suggester == nil {
		return []string{}
	}
	return d.suggester.Suggest(pos, partial)
}

func (d *Descriptor) String() string {
	return strings.Join(d.Path(), " ")
}
