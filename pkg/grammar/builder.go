package grammar

import (
	"fmt"
	"strings"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/resolve"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

// InstanceSource hands out the shared receiver of a handler type.
type InstanceSource interface {
	InstanceOf(typeName string) (any, error)
}

// Builder turns sub-command declarations into descriptor trees.
type Builder struct {
	Types        resolve.TypeResolver
	Instances    InstanceSource
	Placeholders *suggest.Placeholders
	Logger       logging.Logger
}

// Build resolves every entry and attaches the resulting sub-commands to
// parent. owner is the type that declared the entries; it may be nil for
// commands backed by free functions, in which case only fully qualified
// locators work.
func (b *Builder) Build(parent *command.Descriptor, owner *resolve.Type, entries []string) error {
	for _, raw := range entries {
		entry, err := ParseEntry(raw)
		if err != nil {
			return &command.ParseError{Command: parent.Name(), Entry: raw, Reason: err.Error()}
		}
		if err := b.buildEntry(parent, owner, entry); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildEntry(parent *command.Descriptor, owner *resolve.Type, entry Entry) error {
	t, err := b.locate(parent, owner, entry)
	if err != nil {
		return err
	}
	if !b.Types.IsInstantiable(t) {
		return &command.ResolutionError{
			Command: parent.Name(),
			Entry:   entry.Raw,
			Reason:  fmt.Sprintf("type '%s' isn't a concrete type", t.Name),
		}
	}

	instance, err := b.Instances.InstanceOf(t.Name)
	if err != nil {
		return &command.ResolutionError{
			Command: parent.Name(),
			Entry:   entry.Raw,
			Reason:  fmt.Sprintf("cannot create '%s'", t.Name),
			Err:     err,
		}
	}

	names := entry.Selector.Names
	if entry.Selector.All {
		for _, m := range b.Types.ListTaggedMembers(t) {
			names = append(names, m.Name)
		}
	}

	for _, name := range names {
		child, err := b.buildMember(parent, t, instance, entry, name)
		if err != nil {
			return err
		}
		if err := parent.AddChild(child); err != nil {
			return &command.ParseError{Command: parent.Name(), Entry: entry.Raw, Reason: "sub-command name collision", Err: err}
		}
	}
	return nil
}

func (b *Builder) buildMember(parent *command.Descriptor, t *resolve.Type, instance any, entry Entry, name string) (*command.Descriptor, error) {
	member, ok := t.Member(name)
	if !ok {
		return nil, &command.ResolutionError{
			Command: parent.Name(),
			Entry:   entry.Raw,
			Reason:  fmt.Sprintf("member '%s' not found on '%s'", name, t.Name),
		}
	}
	if member.Sub == nil {
		return nil, &command.ResolutionError{
			Command: parent.Name(),
			Entry:   entry.Raw,
			Reason:  fmt.Sprintf("member '%s' has no sub-command metadata", name),
		}
	}

	child, err := command.New(*member.Sub)
	if err != nil {
		return nil, &command.ParseError{Command: parent.Name(), Entry: entry.Raw, Reason: "invalid sub-command", Err: err}
	}
	if err := child.Bind(command.Binding{Handler: command.BindMethod(instance, member.Func), Type: t.Name}); err != nil {
		return nil, err
	}
	if err := b.AttachSuggestions(child); err != nil {
		return nil, err
	}

	// children are complete before the node joins its parent
	if len(member.Sub.SubCommands) > 0 {
		if err := b.Build(child, t, member.Sub.SubCommands); err != nil {
			return nil, err
		}
	}

	b.logger().Debug("sub-command resolved", "parent", parent.String(), "name", child.Name(), "type", t.Name, "member", name)
	return child, nil
}

// locate resolves the locator half of an entry to a type.
func (b *Builder) locate(parent *command.Descriptor, owner *resolve.Type, entry Entry) (*resolve.Type, error) {
	if entry.IsSelf() {
		if owner == nil {
			return nil, &command.ResolutionError{
				Command: parent.Name(),
				Entry:   entry.Raw,
				Reason:  "'this' used by a command without a declaring type",
			}
		}
		return owner, nil
	}

	name := entry.Locator
	if !strings.Contains(name, ".") {
		if owner == nil {
			return nil, &command.ResolutionError{
				Command: parent.Name(),
				Entry:   entry.Raw,
				Reason:  fmt.Sprintf("cannot qualify '%s' without a declaring type", name),
			}
		}
		name = owner.Package + "." + name
	}

	t, err := b.Types.Resolve(name)
	if err != nil {
		return nil, &command.ResolutionError{
			Command: parent.Name(),
			Entry:   entry.Raw,
			Reason:  fmt.Sprintf("type '%s' not found", name),
			Err:     err,
		}
	}
	return t, nil
}

// AttachSuggestions parses the descriptor's suggestion spec, if any, and
// attaches the resulting rules.
func (b *Builder) AttachSuggestions(d *command.Descriptor) error {
	spec := d.SuggestionSpec()
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	rules, err := suggest.Parse(d.Name(), spec, b.Placeholders)
	if err != nil {
		return err
	}
	return d.SetSuggester(rules)
}

func (b *Builder) logger() logging.Logger {
	return logging.OrGlobal(b.Logger)
}
