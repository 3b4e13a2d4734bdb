// Package declare loads command declarations from YAML or TOML files and
// registers them against handler members.
package declare

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/grammar"
	"github.com/kcaldas/cmdcore/pkg/resolve"
)

// Format is a declaration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported declaration file %q: want .yaml, .yml or .toml", path)
	}
}

// Record declares one top-level command. Handler names the member that
// runs it, as "package.Type::member".
type Record struct {
	command.Meta `yaml:",inline"`
	Handler      string `yaml:"handler" toml:"handler"`
}

// File is the document root.
type File struct {
	Commands []Record `yaml:"commands" toml:"commands"`
}

// Load reads and decodes a declaration file.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open declarations: %w", err)
	}
	defer f.Close()

	file, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Decode decodes and validates a declaration document.
func Decode(r io.Reader, format Format) (*File, error) {
	var file File
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks every record for a valid name and a handler reference.
func (f *File) Validate() error {
	var errs []error
	for i, rec := range f.Commands {
		if err := command.ValidateName(rec.Name); err != nil {
			errs = append(errs, fmt.Errorf("commands[%d]: %w", i, err))
			continue
		}
		if strings.TrimSpace(rec.Handler) == "" {
			errs = append(errs, fmt.Errorf("commands[%d] %s: handler is required", i, rec.Name))
		}
	}
	return errors.Join(errs...)
}

// Registrar is the part of the registry Apply needs.
type Registrar interface {
	Types() resolve.TypeResolver
	InstanceOf(typeName string) (any, error)
	Register(d *command.Descriptor, binding command.Binding) error
}

// Apply registers every record. The record's metadata is used as is; the
// handler member only supplies the code. A failing record does not stop
// the others.
func Apply(reg Registrar, records []Record) error {
	var errs []error
	for _, rec := range records {
		if err := apply(reg, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func apply(reg Registrar, rec Record) error {
	entry, err := grammar.ParseEntry(rec.Handler)
	if err != nil {
		return &command.ParseError{Command: rec.Name, Entry: rec.Handler, Reason: err.Error()}
	}
	if entry.Selector.All || len(entry.Selector.Names) != 1 || entry.IsSelf() {
		return &command.ParseError{Command: rec.Name, Entry: rec.Handler, Reason: "handler must name a single member of a qualified type"}
	}

	t, err := reg.Types().Resolve(entry.Locator)
	if err != nil {
		return &command.ResolutionError{Command: rec.Name, Entry: rec.Handler, Reason: "type not found", Err: err}
	}
	member, ok := t.Member(entry.Selector.Names[0])
	if !ok {
		return &command.ResolutionError{Command: rec.Name, Entry: rec.Handler, Reason: "member not found", Err: command.ErrNotFound}
	}
	inst, err := reg.InstanceOf(t.Name)
	if err != nil {
		return err
	}

	d, err := command.New(rec.Meta)
	if err != nil {
		return fmt.Errorf("command %s: %w", rec.Name, err)
	}
	return reg.Register(d, command.Binding{Handler: command.BindMethod(inst, member.Func), Type: t.Name})
}
