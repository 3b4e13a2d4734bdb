package suggest

import (
	"testing"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StaticAndPlaceholder(t *testing.T) {
	placeholders := NewPlaceholders()
	require.NoError(t, placeholders.Register("colors", func() []string {
		return []string{"green", "yellow"}
	}))

	rules, err := Parse("paint", "1:[red, blue] 2:$colors$", placeholders)
	require.NoError(t, err)

	assert.Equal(t, []string{"red"}, rules.Suggest(1, "r"))
	assert.Equal(t, []string{"green", "yellow"}, rules.Suggest(2, ""))
	assert.Equal(t, []string{}, rules.Suggest(3, "anything"))
	assert.Equal(t, []string{}, rules.Suggest(0, ""))
}

func TestParse_PlaceholderResolvedPerQuery(t *testing.T) {
	online := []string{"alice"}
	placeholders := NewPlaceholders()
	placeholders.MustRegister("players", func() []string { return online })

	rules, err := Parse("tell", "1:$players$", placeholders)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, rules.Suggest(1, ""))

	online = append(online, "bob")
	assert.Equal(t, []string{"alice", "bob"}, rules.Suggest(1, ""))
}

func TestParse_UnknownPlaceholderIsError(t *testing.T) {
	_, err := Parse("tell", "1:[a] 2:$nobody$", NewPlaceholders())
	require.Error(t, err)
	assert.True(t, command.IsParseError(err))
	assert.Contains(t, err.Error(), "$nobody$")
}

func TestParse_Lenient(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		pos   int
		want  []string
		count int
	}{
		{"empty spec", "", 1, []string{}, 0},
		{"trailing garbage", "1:[a, b] junk 2:", 1, []string{"a", "b"}, 1},
		{"no separator space", "1:[a]2:[b]", 2, []string{"b"}, 2},
		{"multi digit index", "12:[far]", 12, []string{"far"}, 1},
		{"no space after comma", "1:[a,b,,c]", 1, []string{"a", "b", "c"}, 1},
		{"empty list", "1:[]", 1, []string{}, 1},
		{"last index wins", "1:[a] 1:[b]", 1, []string{"b"}, 1},
		{"unmatched value ignored", "1:red 2:[ok]", 2, []string{"ok"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := Parse("cmd", tt.spec, NewPlaceholders())
			require.NoError(t, err)
			assert.Len(t, rules, tt.count)
			assert.Equal(t, tt.want, rules.Suggest(tt.pos, ""))
		})
	}
}

func TestParse_PlaceholderIgnoresCase(t *testing.T) {
	placeholders := NewPlaceholders()
	placeholders.MustRegister("Worlds", func() []string { return []string{"nether"} })

	rules, err := Parse("warp", "1:$WORLDS$", placeholders)
	require.NoError(t, err)
	assert.Equal(t, []string{"nether"}, rules.Suggest(1, "N"))
}

func TestFilter(t *testing.T) {
	values := []string{"Red", "rose", "blue", "RUBY"}
	assert.Equal(t, []string{"Red", "rose", "RUBY"}, Filter(values, "r"))
	assert.Equal(t, []string{"rose"}, Filter(values, "RO"))
	assert.Equal(t, values, Filter(values, ""))
	assert.Empty(t, Filter(values, "z"))
}

func TestStaticList_Memoized(t *testing.T) {
	list := NewStaticList("a, b")
	first := list.Values()
	second := list.Values()
	assert.Equal(t, []string{"a", "b"}, first)
	assert.Same(t, &first[0], &second[0])
}

func TestPlaceholders_Register(t *testing.T) {
	placeholders := NewPlaceholders()
	require.NoError(t, placeholders.Register("$items$", func() []string { return nil }))

	assert.Error(t, placeholders.Register("ITEMS", func() []string { return nil }))
	assert.Error(t, placeholders.Register("", func() []string { return nil }))
	assert.Error(t, placeholders.Register("mobs", nil))

	_, ok := placeholders.Lookup("items")
	assert.True(t, ok)
	assert.Equal(t, []string{"items"}, placeholders.Names())
}
