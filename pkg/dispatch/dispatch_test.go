package dispatch

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/events"
	"github.com/kcaldas/cmdcore/pkg/host"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/registry"
	"github.com/kcaldas/cmdcore/pkg/resolve"
)

type mapFinder map[string]*command.Descriptor

func (m mapFinder) FindByName(name string) (*command.Descriptor, bool) {
	d, ok := m[command.Fold(name)]
	return d, ok
}

func (m mapFinder) Names() []string {
	var names []string
	for _, d := range m {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}

type source struct {
	name string
	kind command.SourceKind
}

func (s source) Name() string             { return s.name }
func (s source) Kind() command.SourceKind { return s.kind }
func (s source) SendMessage(string)       {}

type invocation struct {
	path string
	args command.Args
}

type spy struct {
	mu    sync.Mutex
	calls []invocation
}

func (s *spy) handler(path string, err error) command.Handler {
	return command.HandlerFunc(func(src command.Source, args command.Args) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, invocation{path: path, args: args})
		return err
	})
}

func newCommand(t *testing.T, meta command.Meta, h command.Handler) *command.Descriptor {
	t.Helper()
	d, err := command.New(meta)
	require.NoError(t, err)
	require.NoError(t, d.Bind(command.Binding{Handler: h}))
	return d
}

func fixture(t *testing.T, auth Authorizer) (*Dispatcher, *spy) {
	t.Helper()
	s := &spy{}

	parent := newCommand(t, command.Meta{Name: "parent", Permission: "demo.parent"}, s.handler("parent", nil))
	child := newCommand(t, command.Meta{Name: "child"}, s.handler("parent child", nil))
	admin := newCommand(t, command.Meta{Name: "admin", Permission: "demo.admin"}, s.handler("parent admin", nil))
	require.NoError(t, parent.AddChild(child))
	require.NoError(t, parent.AddChild(admin))
	parent.Seal()

	consoleOnly := newCommand(t, command.Meta{Name: "stop", Target: command.ConsoleOnly}, s.handler("stop", nil))
	failing := newCommand(t, command.Meta{Name: "fail"}, s.handler("fail", errors.New("no such warp")))
	panicking := newCommand(t, command.Meta{Name: "boom"}, command.HandlerFunc(func(command.Source, command.Args) error {
		panic("kaboom")
	}))
	unbound, err := command.New(command.Meta{Name: "unbound"})
	require.NoError(t, err)

	finder := mapFinder{
		"parent":  parent,
		"stop":    consoleOnly,
		"fail":    failing,
		"boom":    panicking,
		"unbound": unbound,
	}
	d, err := New(Options{Finder: finder, Authorizer: auth, Logger: logging.NewDisabledLogger()})
	require.NoError(t, err)
	return d, s
}

var user = source{name: "steve", kind: command.User}

func TestDispatch_DescendsIntoChild(t *testing.T) {
	d, s := fixture(t, nil)

	res := d.DispatchLine(user, "parent child extra-arg")

	require.True(t, res.OK(), res.Error())
	assert.Equal(t, "child", res.Command.Name())
	assert.Equal(t, []string{"parent", "child"}, res.Path)
	assert.Equal(t, command.Args{"extra-arg"}, res.Args)
	assert.NotEmpty(t, res.ID)
	require.Len(t, s.calls, 1)
	assert.Equal(t, invocation{path: "parent child", args: command.Args{"extra-arg"}}, s.calls[0])
}

func TestDispatch_Resolution(t *testing.T) {
	tests := []struct {
		name string
		line string
		path []string
		args command.Args
	}{
		{"parent only", "parent", []string{"parent"}, command.Args{}},
		{"case-insensitive child", "PARENT Child", []string{"parent", "child"}, command.Args{}},
		{"stops at first non-child", "parent x child", []string{"parent"}, command.Args{"x", "child"}},
		{"leaf keeps args", "parent child child", []string{"parent", "child"}, command.Args{"child"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := fixture(t, nil)
			res := d.DispatchLine(user, tt.line)
			require.Equal(t, Success, res.Status)
			assert.Equal(t, tt.path, res.Path)
			assert.Equal(t, tt.args, res.Args)
		})
	}
}

func TestDispatch_Unauthorized(t *testing.T) {
	var checked []string
	deny := AuthorizerFunc(func(src command.Source, permission string) bool {
		checked = append(checked, permission)
		return permission != "demo.admin"
	})
	d, s := fixture(t, deny)

	res := d.DispatchLine(user, "parent admin")

	assert.Equal(t, Unauthorized, res.Status)
	assert.Empty(t, s.calls, "handler must not run")
	assert.Equal(t, []string{"demo.parent", "demo.admin"}, checked, "root permission is checked first")
	assert.Contains(t, res.Error(), "parent admin")
}

func TestDispatch_UnauthorizedParentBlocksChild(t *testing.T) {
	denyAll := AuthorizerFunc(func(command.Source, string) bool { return false })
	d, s := fixture(t, denyAll)

	res := d.DispatchLine(user, "parent child")
	assert.Equal(t, Unauthorized, res.Status)
	assert.Empty(t, s.calls)
}

func TestDispatch_WrongTarget(t *testing.T) {
	d, s := fixture(t, nil)

	res := d.DispatchLine(user, "stop now")
	assert.Equal(t, WrongTarget, res.Status)
	assert.Empty(t, s.calls)
	assert.Contains(t, res.Error(), "console")

	res = d.DispatchLine(source{name: "console", kind: command.Console}, "stop now")
	assert.True(t, res.OK())
}

func TestDispatch_UnknownCommand(t *testing.T) {
	tests := []struct {
		line       string
		didYouMean string
	}{
		{"prent child", "parent"},
		{"stpo", "stop"},
		{"x", ""},
		{"completelydifferent", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d, _ := fixture(t, nil)
			res := d.DispatchLine(user, tt.line)
			assert.Equal(t, UnknownCommand, res.Status)
			assert.Nil(t, res.Command)
			assert.Equal(t, tt.didYouMean, res.DidYouMean)
		})
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	d, _ := fixture(t, nil)

	res := d.DispatchLine(user, "fail home")
	assert.Equal(t, HandlerError, res.Status)
	assert.EqualError(t, res.Err, "no such warp")
	assert.Equal(t, "'fail' failed: no such warp", res.Error())
}

func TestDispatch_HandlerPanicIsRecovered(t *testing.T) {
	d, _ := fixture(t, nil)

	var res Result
	assert.NotPanics(t, func() { res = d.DispatchLine(user, "boom") })
	assert.Equal(t, HandlerError, res.Status)
	assert.Contains(t, res.Err.Error(), "kaboom")
}

func TestDispatch_NoHandler(t *testing.T) {
	d, _ := fixture(t, nil)

	res := d.DispatchLine(user, "unbound")
	assert.Equal(t, HandlerError, res.Status)
	assert.ErrorIs(t, res.Err, command.ErrNoHandler)
}

func TestDispatch_PublishesEvent(t *testing.T) {
	bus := events.NewEventBus()
	var mu sync.Mutex
	var got []events.CommandDispatchedEvent
	bus.Subscribe(events.CommandDispatchedEvent{}.Topic(), func(e interface{}) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(events.CommandDispatchedEvent))
	})

	d, _ := fixture(t, nil)
	d.bus = bus
	ok := d.DispatchLine(user, "parent child a")
	unknown := d.DispatchLine(user, "nope")
	bus.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, ok.ID, got[0].ID)
	assert.Equal(t, "success", got[0].Status)
	assert.Equal(t, []string{"parent", "child"}, got[0].Path)
	assert.Equal(t, unknown.ID, got[1].ID)
	assert.Equal(t, "unknown_command", got[1].Status)
	assert.Contains(t, got[1].Error, "unknown command 'nope'")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "handler_error", HandlerError.String())
	assert.Equal(t, "status(42)", Status(42).String())
}

func TestNew_RequiresFinder(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestDispatch_WithRegistry(t *testing.T) {
	type warps struct{ last command.Args }
	types := resolve.NewTable()
	types.MustAdd(resolve.Type{
		Name:    "demo.Warps",
		Package: "demo",
		New:     func(any) (any, error) { return &warps{}, nil },
		Members: []resolve.Member{
			{Name: "warp", Command: &command.Meta{Name: "warp", SubCommands: []string{"this::set"}}, Func: func(recv any, src command.Source, args command.Args) error {
				return nil
			}},
			{Name: "set", Sub: &command.Meta{Name: "set"}, Func: func(recv any, src command.Source, args command.Args) error {
				recv.(*warps).last = args
				return nil
			}},
		},
	})

	reg, err := registry.New(registry.Options{
		Owner:  registry.Owner{Name: "demo"},
		Table:  host.NewMemoryTable(),
		Types:  types,
		Logger: logging.NewDisabledLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterAllMembers("demo.Warps"))

	d, err := New(Options{Finder: reg, Logger: logging.NewDisabledLogger()})
	require.NoError(t, err)

	res := d.DispatchLine(user, "demo:warp set spawn")
	require.True(t, res.OK(), res.Error())

	inst, err := reg.InstanceOf("demo.Warps")
	require.NoError(t, err)
	assert.Equal(t, command.Args{"spawn"}, inst.(*warps).last)
}

func TestDispatch_ParentTargetAppliesToChildren(t *testing.T) {
	s := &spy{}
	warp := newCommand(t, command.Meta{Name: "warp", Target: command.UserOnly}, s.handler("warp", nil))
	list := newCommand(t, command.Meta{Name: "list"}, s.handler("warp list", nil))
	require.NoError(t, warp.AddChild(list))

	d, err := New(Options{Finder: mapFinder{"warp": warp}, Logger: logging.NewDisabledLogger()})
	require.NoError(t, err)

	res := d.DispatchLine(source{name: "console", kind: command.Console}, "warp list")
	assert.Equal(t, WrongTarget, res.Status)
	assert.Equal(t, "'warp list' can only be used by users", res.Error())
	assert.Empty(t, s.calls)
}
