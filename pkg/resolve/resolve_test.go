package resolve

import (
	"reflect"
	"testing"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type homes struct{}

func noop(recv any, src command.Source, args command.Args) error { return nil }

func homesType() Type {
	return Type{
		Name:    "demo.Homes",
		Package: "demo",
		GoType:  reflect.TypeOf(&homes{}),
		New:     func(any) (any, error) { return &homes{}, nil },
		Members: []Member{
			{Name: "home", Command: &command.Meta{Name: "home"}, Func: noop},
			{Name: "set", Sub: &command.Meta{Name: "set"}, Func: noop},
			{Name: "helper", Func: noop},
			{Name: "del", Sub: &command.Meta{Name: "delete"}, Func: noop},
		},
	}
}

func TestTable_AddAndResolve(t *testing.T) {
	tb := NewTable()
	require.NoError(t, tb.Add(homesType()))

	got, err := tb.Resolve("demo.Homes")
	require.NoError(t, err)
	assert.Equal(t, "Homes", got.ShortName())
	assert.True(t, tb.IsInstantiable(got))

	byGo, ok := tb.TypeOf(reflect.TypeOf(&homes{}))
	require.True(t, ok)
	assert.Same(t, got, byGo)

	_, err = tb.Resolve("demo.Missing")
	assert.ErrorIs(t, err, command.ErrNotFound)
}

func TestTable_AddRejectsBadTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
	}{
		{"no package", Type{Name: "Homes"}},
		{"unqualified", Type{Name: "Homes", Package: "demo"}},
		{"duplicate member", Type{Name: "demo.X", Package: "demo", Members: []Member{
			{Name: "a", Func: noop}, {Name: "a", Func: noop},
		}}},
		{"member without func", Type{Name: "demo.Y", Package: "demo", Members: []Member{{Name: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewTable().Add(tt.typ))
		})
	}

	tb := NewTable()
	require.NoError(t, tb.Add(homesType()))
	assert.Error(t, tb.Add(homesType()), "duplicate names are rejected")
}

func TestTable_ListTaggedMembers(t *testing.T) {
	tb := NewTable()
	tb.MustAdd(homesType())
	typ, err := tb.Resolve("demo.Homes")
	require.NoError(t, err)

	var names []string
	for _, m := range tb.ListTaggedMembers(typ) {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"set", "del"}, names)
}

func TestTable_Instantiable(t *testing.T) {
	tb := NewTable()
	tb.MustAdd(Type{Name: "demo.Base", Package: "demo", Abstract: true, New: func(any) (any, error) { return nil, nil }})
	tb.MustAdd(Type{Name: "demo.NoCtor", Package: "demo"})
	tb.MustAdd(homesType())

	base, _ := tb.Resolve("demo.Base")
	noCtor, _ := tb.Resolve("demo.NoCtor")
	assert.False(t, tb.IsInstantiable(base))
	assert.False(t, tb.IsConcrete(noCtor))

	assert.Equal(t, []string{"demo.Base", "demo.Homes", "demo.NoCtor"}, tb.Names())
	assert.Len(t, tb.Candidates(), 3)
	assert.Equal(t, "demo.Base", tb.Candidates()[0].Name)
}
