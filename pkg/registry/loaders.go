package registry

import (
	"fmt"
	"strings"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/resolve"
)

// loadByName reads the live host table. Absent names are errors so that
// nothing is cached for them.
func (r *Registry) loadByName(key string) (*command.Descriptor, error) {
	a, ok := r.table.Lookup(key)
	if !ok || a.Descriptor == nil {
		return nil, fmt.Errorf("command %s: %w", key, command.ErrNotFound)
	}
	return a.Descriptor, nil
}

func (r *Registry) loadByHandlerType(typeName string) (*command.Descriptor, error) {
	for _, a := range r.table.All() {
		if a.Descriptor != nil && a.Descriptor.HandlerType() == typeName {
			return a.Descriptor, nil
		}
	}
	return nil, fmt.Errorf("command with handler type %s: %w", typeName, command.ErrNotFound)
}

func (r *Registry) loadInstance(typeName string) (any, error) {
	if r.owner.Root != nil && typeName == r.owner.RootType {
		return r.owner.Root, nil
	}

	t, err := r.types.Resolve(typeName)
	if err != nil {
		return nil, &command.ResolutionError{Entry: typeName, Reason: "type not found", Err: err}
	}
	if !r.types.IsInstantiable(t) {
		return nil, &command.ResolutionError{Entry: typeName, Reason: fmt.Sprintf("type '%s' isn't a concrete type", typeName)}
	}

	var enclosing any
	if t.Enclosing != "" {
		if err := r.checkEnclosingChain(t); err != nil {
			return nil, err
		}
		enclosing, err = r.InstanceOf(t.Enclosing)
		if err != nil {
			return nil, &command.ResolutionError{Entry: typeName, Reason: fmt.Sprintf("cannot create enclosing '%s'", t.Enclosing), Err: err}
		}
	}

	inst, err := construct(t, enclosing)
	if err != nil {
		r.logger.Error("instance construction failed", "type", typeName, "err", err)
		return nil, &command.ResolutionError{Entry: typeName, Reason: "construction failed", Err: err}
	}
	r.logger.Debug("instance created", "type", typeName)
	return inst, nil
}

// construct runs the constructor and turns a panic into an error.
func construct(t *resolve.Type, enclosing any) (inst any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("constructor panicked: %v", p)
		}
	}()
	inst, err = t.New(enclosing)
	if err == nil && inst == nil {
		err = fmt.Errorf("constructor of %s returned nil", t.Name)
	}
	return inst, err
}

// checkEnclosingChain rejects enclosing chains that loop back on
// themselves. Loading such a chain through the instance cache would wait
// on its own in-flight load.
func (r *Registry) checkEnclosingChain(t *resolve.Type) error {
	seen := map[string]bool{t.Name: true}
	chain := []string{t.Name}
	for name := t.Enclosing; name != ""; {
		if r.owner.Root != nil && name == r.owner.RootType {
			return nil
		}
		chain = append(chain, name)
		if seen[name] {
			return &command.ResolutionError{Entry: t.Name, Reason: "enclosing cycle " + strings.Join(chain, " -> ")}
		}
		seen[name] = true
		next, err := r.types.Resolve(name)
		if err != nil {
			return nil
		}
		name = next.Enclosing
	}
	return nil
}
