// Package registry maps command names and handler types to live
// descriptors and keeps the shared receivers their handlers run on.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/kcaldas/cmdcore/pkg/cache"
	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/events"
	"github.com/kcaldas/cmdcore/pkg/grammar"
	"github.com/kcaldas/cmdcore/pkg/host"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/resolve"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

// CommandTable is the host command table the registry publishes into.
type CommandTable interface {
	// Register stores a under name and prefix:name and returns the aliases
	// it could not claim.
	Register(prefix, name string, a *host.Adapter) []string
	Unregister(a *host.Adapter)
	Lookup(name string) (*host.Adapter, bool)
	All() []*host.Adapter
}

// Owner identifies the plugin a registry registers commands for.
type Owner struct {
	// Name is the prefix of namespaced labels, "name:command".
	Name string
	// Root is handed out as the instance of RootType instead of building a
	// new one.
	Root     any
	RootType string
}

// Options configures a Registry.
type Options struct {
	Owner        Owner
	Table        CommandTable
	Types        resolve.TypeResolver
	Discoverer   resolve.Discoverer
	Placeholders *suggest.Placeholders
	// Cache is the template for the three registry caches. The zero value
	// means cache.DefaultOptions.
	Cache  cache.Options
	Bus    events.Publisher
	Logger logging.Logger
}

// goTypeIndex is implemented by resolvers that can map Go types back to
// table entries, like resolve.Table.
type goTypeIndex interface {
	TypeOf(reflect.Type) (*resolve.Type, bool)
}

var commandInterface = reflect.TypeOf((*command.Command)(nil)).Elem()

// Registry registers commands into a host table and answers lookups
// through bounded caches. It is safe for concurrent use; registrations
// are serialized.
type Registry struct {
	owner        Owner
	table        CommandTable
	types        resolve.TypeResolver
	discoverer   resolve.Discoverer
	placeholders *suggest.Placeholders
	bus          events.Publisher
	logger       logging.Logger
	builder      *grammar.Builder

	mu sync.Mutex

	byName        *cache.LoadingCache[*command.Descriptor]
	byHandlerType *cache.LoadingCache[*command.Descriptor]
	instances     *cache.LoadingCache[any]
}

// New creates a registry.
func New(opts Options) (*Registry, error) {
	if strings.TrimSpace(opts.Owner.Name) == "" {
		return nil, errors.New("registry owner name is required")
	}
	if opts.Table == nil {
		return nil, errors.New("registry command table is required")
	}
	if opts.Types == nil {
		return nil, errors.New("registry type resolver is required")
	}
	if opts.Placeholders == nil {
		opts.Placeholders = suggest.NewPlaceholders()
	}
	if opts.Discoverer == nil {
		if d, ok := opts.Types.(resolve.Discoverer); ok {
			opts.Discoverer = d
		}
	}

	logger := logging.ForComponent(opts.Logger, "registry").With("owner", opts.Owner.Name)
	r := &Registry{
		owner:        opts.Owner,
		table:        opts.Table,
		types:        opts.Types,
		discoverer:   opts.Discoverer,
		placeholders: opts.Placeholders,
		bus:          opts.Bus,
		logger:       logger,
	}

	r.byName = cache.New(cacheOptions(opts, "byName"), r.loadByName)
	r.byHandlerType = cache.New(cacheOptions(opts, "byHandlerType"), r.loadByHandlerType)
	r.instances = cache.New(cacheOptions(opts, "instances"), r.loadInstance)

	r.builder = &grammar.Builder{
		Types:        r.types,
		Instances:    r,
		Placeholders: r.placeholders,
		Logger:       logger,
	}
	return r, nil
}

func cacheOptions(opts Options, name string) cache.Options {
	co := opts.Cache
	if co.MaxEntries == 0 && co.ExpireAfterAccess == 0 && co.Clock == nil {
		co = cache.DefaultOptions(name)
	}
	co.Name = name
	if co.Logger == nil {
		co.Logger = opts.Logger
	}
	return co
}

// Owner returns the plugin identity of the registry.
func (r *Registry) Owner() Owner { return r.owner }

// Types returns the type resolver handler types are looked up in.
func (r *Registry) Types() resolve.TypeResolver { return r.types }

// Placeholders returns the placeholder registry suggestion specs are
// parsed against.
func (r *Registry) Placeholders() *suggest.Placeholders { return r.placeholders }

// Register binds d, builds its sub-command tree and suggestion rules,
// seals it and publishes it to the host table. Registering a name again
// replaces the earlier command.
func (r *Registry) Register(d *command.Descriptor, binding command.Binding) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", command.ErrInvalidName)
	}
	if binding.Handler == nil {
		return fmt.Errorf("command %s: %w", d.Name(), command.ErrNoHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Sealed() {
		if current, ok := r.table.Lookup(r.owner.Name + ":" + d.Name()); ok && current.Descriptor == d {
			return nil
		}
		return fmt.Errorf("command %s: %w", d.Name(), command.ErrSealed)
	}
	if err := r.prepare(d, binding); err != nil {
		r.logger.Error("command registration failed", "command", d.Name(), "entry", errorEntry(err), "err", err)
		return err
	}
	d.Seal()

	affected := []*command.Descriptor{d}
	// owner:name may be another command's prefixed alias; only the same
	// name is replaced
	if old, ok := r.table.Lookup(r.owner.Name + ":" + d.Name()); ok && old.Owner == r.owner.Name &&
		command.Fold(old.Descriptor.Name()) == command.Fold(d.Name()) {
		r.table.Unregister(old)
		affected = append(affected, old.Descriptor)
	}

	adapter := &host.Adapter{Descriptor: d, Owner: r.owner.Name}
	if skipped := r.table.Register(r.owner.Name, d.Name(), adapter); len(skipped) > 0 {
		r.logger.Warn("aliases already taken by other commands", "command", d.Name(), "aliases", skipped)
	}
	r.invalidate(affected...)

	r.logger.Info("command registered", "command", d.Name(), "type", d.HandlerType(), "subcommands", len(d.ChildNames()))
	events.Emit(r.bus, events.CommandRegisteredEvent{
		Name:        d.Name(),
		Prefix:      r.owner.Name,
		Aliases:     d.Aliases(),
		HandlerType: d.HandlerType(),
		SubCommands: d.ChildNames(),
	})
	return nil
}

func (r *Registry) prepare(d *command.Descriptor, binding command.Binding) error {
	if err := d.Bind(binding); err != nil {
		return fmt.Errorf("command %s: %w", d.Name(), err)
	}
	if c, ok := binding.Handler.(command.Completer); ok && d.Completer() == nil {
		if err := d.SetCompleter(c); err != nil {
			return err
		}
	}
	if err := r.builder.AttachSuggestions(d); err != nil {
		return err
	}

	specs := d.SubCommandSpecs()
	if len(specs) == 0 {
		return nil
	}
	var owner *resolve.Type
	if binding.Type != "" {
		t, err := r.types.Resolve(binding.Type)
		if err != nil {
			return &command.ResolutionError{Command: d.Name(), Entry: binding.Type, Reason: "handler type not found", Err: err}
		}
		owner = t
	}

	// the tree is built on a scratch parent so a failed entry leaves d
	// without any of the children resolved before it
	scratch, err := command.New(d.Meta())
	if err != nil {
		return err
	}
	if err := r.builder.Build(scratch, owner, specs); err != nil {
		return err
	}
	children := scratch.Children()
	for _, child := range children {
		if existing := d.ResolveChild(child.Name()); existing != nil {
			return &command.ParseError{
				Command: d.Name(),
				Entry:   child.Name(),
				Reason:  "sub-command name collision",
				Err:     fmt.Errorf("%w: '%s' already defined under '%s'", command.ErrDuplicateChild, child.Name(), d.Name()),
			}
		}
	}
	for _, child := range children {
		if err := d.AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

// invalidate drops every cached lookup the given descriptors could have
// answered.
func (r *Registry) invalidate(ds ...*command.Descriptor) {
	var names, types []string
	for _, d := range ds {
		for _, n := range append([]string{d.Name()}, d.Aliases()...) {
			names = append(names, command.Fold(n), command.Fold(r.owner.Name+":"+n))
		}
		if d.HandlerType() != "" {
			types = append(types, d.HandlerType())
		}
	}
	r.byName.Invalidate(lo.Uniq(names)...)
	r.byHandlerType.Invalidate(lo.Uniq(types)...)
}

// Unregister removes the command this registry registered under name.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.table.Lookup(r.owner.Name + ":" + name)
	if !ok || a.Owner != r.owner.Name {
		return false
	}
	r.table.Unregister(a)
	r.invalidate(a.Descriptor)
	r.logger.Info("command unregistered", "command", a.Name())
	return true
}

// RegisterHandlerType registers a command object type. Its instance comes
// from the instance cache and must implement command.Command.
func (r *Registry) RegisterHandlerType(typeName string) error {
	inst, err := r.InstanceOf(typeName)
	if err != nil {
		r.logger.Error("command registration failed", "command", typeName, "entry", typeName, "err", err)
		return err
	}
	cmd, ok := inst.(command.Command)
	if !ok {
		err := &command.ResolutionError{Entry: typeName, Reason: fmt.Sprintf("%T does not implement command.Command", inst)}
		r.logger.Error("command registration failed", "command", typeName, "entry", typeName, "err", err)
		return err
	}

	d, err := command.New(cmd.Meta())
	if err != nil {
		return fmt.Errorf("command type %s: %w", typeName, err)
	}
	return r.Register(d, command.Binding{Handler: cmd, Type: typeName})
}

// RegisterMember registers the command declared by a member of instance.
// The instance's Go type must be known to the type resolver.
func (r *Registry) RegisterMember(instance any, memberName string) error {
	index, ok := r.types.(goTypeIndex)
	if !ok {
		return fmt.Errorf("type resolver %T cannot map Go types", r.types)
	}
	t, ok := index.TypeOf(reflect.TypeOf(instance))
	if !ok {
		return &command.ResolutionError{Entry: fmt.Sprintf("%T", instance), Reason: "type not registered", Err: command.ErrNotFound}
	}
	return r.registerMember(t, instance, memberName)
}

// RegisterTypeMember registers the command declared by a member of the
// named type, running on the type's cached instance.
func (r *Registry) RegisterTypeMember(typeName, memberName string) error {
	t, err := r.types.Resolve(typeName)
	if err != nil {
		return &command.ResolutionError{Entry: typeName + "::" + memberName, Reason: "type not found", Err: err}
	}
	inst, err := r.InstanceOf(typeName)
	if err != nil {
		return err
	}
	return r.registerMember(t, inst, memberName)
}

func (r *Registry) registerMember(t *resolve.Type, instance any, memberName string) error {
	entry := t.Name + "::" + memberName
	m, ok := t.Member(memberName)
	if !ok {
		err := &command.ResolutionError{Entry: entry, Reason: "member not found", Err: command.ErrNotFound}
		r.logger.Error("command registration failed", "command", memberName, "entry", entry, "err", err)
		return err
	}
	if m.Command == nil {
		err := &command.ResolutionError{Entry: entry, Reason: "member has no command metadata"}
		r.logger.Error("command registration failed", "command", memberName, "entry", entry, "err", err)
		return err
	}

	d, err := command.New(*m.Command)
	if err != nil {
		return fmt.Errorf("%s: %w", entry, err)
	}
	return r.Register(d, command.Binding{Handler: command.BindMethod(instance, m.Func), Type: t.Name})
}

// RegisterAllMembers registers every top-level command member of the named
// type. Sub-command members are left to the grammar. A failing member does
// not stop the others.
func (r *Registry) RegisterAllMembers(typeName string) error {
	t, err := r.types.Resolve(typeName)
	if err != nil {
		return &command.ResolutionError{Entry: typeName, Reason: "type not found", Err: err}
	}

	var errs []error
	for _, m := range commandMembers(t) {
		if err := r.RegisterTypeMember(typeName, m.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func commandMembers(t *resolve.Type) []resolve.Member {
	return lo.Filter(t.Members, func(m resolve.Member, _ int) bool {
		return m.Command != nil && m.Sub == nil
	})
}

// Discover registers everything the discoverer knows about: command object
// types as handler types, and the command members of every concrete type.
func (r *Registry) Discover() error {
	if r.discoverer == nil {
		return errors.New("registry has no discoverer")
	}

	var errs []error
	for _, t := range r.discoverer.Candidates() {
		if t.GoType != nil && t.GoType.Implements(commandInterface) && r.discoverer.IsConcrete(t) {
			if err := r.RegisterHandlerType(t.Name); err != nil {
				errs = append(errs, err)
			}
		}
		if r.discoverer.IsConcrete(t) && len(commandMembers(t)) > 0 {
			if err := r.RegisterAllMembers(t.Name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	r.logger.Debug("discovery finished", "types", len(r.discoverer.Candidates()), "failures", len(errs))
	return errors.Join(errs...)
}

// FindByName returns the descriptor registered under name, an alias or a
// prefixed label.
func (r *Registry) FindByName(name string) (*command.Descriptor, bool) {
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	d, err := r.byName.Get(command.Fold(name))
	if err != nil {
		if !errors.Is(err, command.ErrNotFound) {
			r.logger.Warn("lookup by name failed", "name", name, "err", err)
		}
		return nil, false
	}
	return d, true
}

// FindByHandlerType returns a descriptor whose handler is defined on the
// named type.
func (r *Registry) FindByHandlerType(typeName string) (*command.Descriptor, bool) {
	if typeName == "" {
		return nil, false
	}
	d, err := r.byHandlerType.Get(typeName)
	if err != nil {
		return nil, false
	}
	return d, true
}

// FindByHandler is FindByHandlerType for the type of v.
func (r *Registry) FindByHandler(v any) (*command.Descriptor, bool) {
	index, ok := r.types.(goTypeIndex)
	if !ok || v == nil {
		return nil, false
	}
	t, ok := index.TypeOf(reflect.TypeOf(v))
	if !ok {
		return nil, false
	}
	return r.FindByHandlerType(t.Name)
}

// InstanceOf returns the shared receiver of the named type, building it on
// first use.
func (r *Registry) InstanceOf(typeName string) (any, error) {
	return r.instances.Get(typeName)
}

// Suggest returns the rule-based candidates of d for an argument position.
func (r *Registry) Suggest(d *command.Descriptor, pos int, partial string) []string {
	if d == nil {
		return []string{}
	}
	return d.Suggest(pos, partial)
}

// Complete answers a host tab-completion request for the command called
// name. args holds the words typed after the name; the last one is the
// word being completed. Sub-command names come first, then the custom
// completer's answer or, without one, the suggestion rules.
func (r *Registry) Complete(src command.Source, name string, args command.Args) []string {
	d, ok := r.FindByName(name)
	if !ok || len(args) == 0 {
		return []string{}
	}

	consumed := 0
	for consumed < len(args)-1 && d.HasChildren() {
		child := d.ResolveChild(args[consumed])
		if child == nil {
			break
		}
		d = child
		consumed++
	}
	rest := args[consumed:]
	partial := rest[len(rest)-1]

	var out []string
	if len(rest) == 1 && d.HasChildren() {
		var names []string
		for _, child := range d.Children() {
			if src == nil || child.IsUsableBy(src.Kind()) {
				names = append(names, child.Name())
			}
		}
		out = suggest.Filter(names, partial)
	}
	if c := d.Completer(); c != nil {
		out = append(out, c.Complete(src, d, rest)...)
	} else {
		out = append(out, d.Suggest(len(rest), partial)...)
	}
	return lo.Uniq(out)
}

// Names returns the primary names of every command in the host table,
// sorted.
func (r *Registry) Names() []string {
	names := lo.Uniq(lo.Map(r.table.All(), func(a *host.Adapter, _ int) string {
		return a.Name()
	}))
	sort.Strings(names)
	return names
}

// CacheStats returns the counters of the three caches keyed by cache name.
func (r *Registry) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		r.byName.Name():        r.byName.Stats(),
		r.byHandlerType.Name(): r.byHandlerType.Stats(),
		r.instances.Name():     r.instances.Stats(),
	}
}

func errorEntry(err error) string {
	var pe *command.ParseError
	if errors.As(err, &pe) {
		return pe.Entry
	}
	var re *command.ResolutionError
	if errors.As(err, &re) {
		return re.Entry
	}
	return ""
}
