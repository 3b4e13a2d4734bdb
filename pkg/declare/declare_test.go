package declare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/host"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/registry"
	"github.com/kcaldas/cmdcore/pkg/resolve"
)

const yamlDoc = `
commands:
  - name: warp
    permission: demo.warp
    description: Teleport to a warp
    usage: /warp <name>
    aliases: [w]
    subcommands:
      - "this::[set, delete]"
    suggestions: "1:[spawn, market]"
    target: user
    handler: demo.Warps::warp
  - name: spawn
    handler: demo.Warps::spawn
`

const tomlDoc = `
[[commands]]
name = "warp"
permission = "demo.warp"
aliases = ["w"]
subcommands = ["this::[set, delete]"]
suggestions = "1:[spawn, market]"
target = "user"
handler = "demo.Warps::warp"

[[commands]]
name = "spawn"
handler = "demo.Warps::spawn"
`

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"yaml", yamlDoc, FormatYAML},
		{"toml", tomlDoc, FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.NoError(t, err)
			require.Len(t, file.Commands, 2)

			warp := file.Commands[0]
			assert.Equal(t, "warp", warp.Name)
			assert.Equal(t, "demo.warp", warp.Permission)
			assert.Equal(t, []string{"w"}, warp.Aliases)
			assert.Equal(t, []string{"this::[set, delete]"}, warp.SubCommands)
			assert.Equal(t, "1:[spawn, market]", warp.Suggestions)
			assert.Equal(t, command.UserOnly, warp.Target)
			assert.Equal(t, "demo.Warps::warp", warp.Handler)
			assert.Equal(t, command.Both, file.Commands[1].Target)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		format  Format
		wantErr string
	}{
		{"missing handler", "commands:\n  - name: warp\n", FormatYAML, "handler is required"},
		{"reserved name", "commands:\n  - name: \"a*\"\n    handler: x.Y::z\n", FormatYAML, "invalid command name"},
		{"bad target", "commands:\n  - name: warp\n    target: everyone\n    handler: x.Y::z\n", FormatYAML, "everyone"},
		{"broken toml", "[[commands]\nname=", FormatTOML, "toml"},
		{"unknown format", "", Format("json"), "unsupported format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecode_EmptyYAML(t *testing.T) {
	file, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, file.Commands)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{"a.yaml": FormatYAML, "b.YML": FormatYAML, "c.toml": FormatTOML} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatOf("d.json")
	assert.Error(t, err)
}

type warps struct {
	calls []string
}

func warpsMember(label string) command.MethodFunc {
	return func(recv any, src command.Source, args command.Args) error {
		recv.(*warps).calls = append(recv.(*warps).calls, label)
		return nil
	}
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	types := resolve.NewTable()
	types.MustAdd(resolve.Type{
		Name:    "demo.Warps",
		Package: "demo",
		New:     func(any) (any, error) { return &warps{}, nil },
		Members: []resolve.Member{
			{Name: "warp", Func: warpsMember("warp")},
			{Name: "spawn", Func: warpsMember("spawn")},
			{Name: "set", Sub: &command.Meta{Name: "set"}, Func: warpsMember("set")},
			{Name: "delete", Sub: &command.Meta{Name: "delete"}, Func: warpsMember("delete")},
		},
	})
	reg, err := registry.New(registry.Options{
		Owner:  registry.Owner{Name: "demo"},
		Table:  host.NewMemoryTable(),
		Types:  types,
		Logger: logging.NewDisabledLogger(),
	})
	require.NoError(t, err)
	return reg
}

func TestApply(t *testing.T) {
	reg := newRegistry(t)
	file, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	require.NoError(t, err)

	require.NoError(t, Apply(reg, file.Commands))

	warp, ok := reg.FindByName("w")
	require.True(t, ok)
	assert.Equal(t, "warp", warp.Name())
	assert.Equal(t, []string{"delete", "set"}, warp.ChildNames())
	assert.Equal(t, []string{"market"}, warp.Suggest(1, "m"))
	assert.Equal(t, "demo.Warps", warp.HandlerType())

	require.NoError(t, warp.Binding().Handler.Execute(nil, nil))
	require.NoError(t, warp.ResolveChild("set").Binding().Handler.Execute(nil, nil))
	inst, err := reg.InstanceOf("demo.Warps")
	require.NoError(t, err)
	assert.Equal(t, []string{"warp", "set"}, inst.(*warps).calls)
}

func TestApply_ContinuesPastFailures(t *testing.T) {
	reg := newRegistry(t)
	records := []Record{
		{Meta: command.Meta{Name: "a"}, Handler: "demo.Nope::x"},
		{Meta: command.Meta{Name: "b"}, Handler: "demo.Warps::ghost"},
		{Meta: command.Meta{Name: "c"}, Handler: "this::warp"},
		{Meta: command.Meta{Name: "d"}, Handler: "demo.Warps::*"},
		{Meta: command.Meta{Name: "e"}, Handler: "nonsense"},
		{Meta: command.Meta{Name: "spawn"}, Handler: "demo.Warps::spawn"},
	}

	err := Apply(reg, records)
	require.Error(t, err)
	assert.True(t, command.IsResolutionError(err))
	assert.True(t, command.IsParseError(err))
	assert.Equal(t, []string{"spawn"}, reg.Names())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlDoc), 0o644))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, file.Commands, 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: []\n"), 0o644))

	w, err := NewWatcher(path, logging.NewDisabledLogger())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := make(chan *File, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(f *File, err error) {
			if err == nil {
				reloads <- f
			}
		})
	}()

	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	select {
	case f := <-reloads:
		assert.Len(t, f.Commands, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
