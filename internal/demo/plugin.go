// Package demo is a sample plugin wired into the demo host: warps declared
// as methods with sub-commands, and kits as a command object with a nested
// sub-command type.
package demo

import (
	"reflect"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/registry"
	"github.com/kcaldas/cmdcore/pkg/resolve"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

const (
	Package  = "demo"
	RootType = "demo.Plugin"
)

// Location is a saved warp point.
type Location struct {
	World   string
	X, Y, Z int
}

// Plugin is the root instance of the sample plugin. It owns the state the
// command handlers and placeholders share.
type Plugin struct {
	mu      sync.RWMutex
	warps   map[string]Location
	online  []string
	worlds  []string
	granted map[string][]string // player -> kits received
}

// NewPlugin creates the plugin with the given known worlds.
func NewPlugin(worlds ...string) *Plugin {
	if len(worlds) == 0 {
		worlds = []string{"overworld", "nether", "end"}
	}
	return &Plugin{
		warps:   make(map[string]Location),
		worlds:  append([]string(nil), worlds...),
		granted: make(map[string][]string),
	}
}

// SetOnline replaces the list of connected players.
func (p *Plugin) SetOnline(players ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = append([]string(nil), players...)
}

// Online returns the connected players.
func (p *Plugin) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.online...)
}

// Worlds returns the known worlds.
func (p *Plugin) Worlds() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.worlds...)
}

// WarpNames returns the saved warps, sorted.
func (p *Plugin) WarpNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := lo.Keys(p.warps)
	sort.Strings(names)
	return names
}

// Warp returns a saved warp.
func (p *Plugin) Warp(name string) (Location, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	loc, ok := p.warps[command.Fold(name)]
	return loc, ok
}

func (p *Plugin) setWarp(name string, loc Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warps[command.Fold(name)] = loc
}

func (p *Plugin) deleteWarp(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := command.Fold(name)
	if _, ok := p.warps[key]; !ok {
		return false
	}
	delete(p.warps, key)
	return true
}

func (p *Plugin) grant(player, kit string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted[player] = append(p.granted[player], kit)
}

// Granted returns the kits a player received.
func (p *Plugin) Granted(player string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.granted[player]...)
}

// Placeholders registers the plugin's dynamic suggestion sources.
func (p *Plugin) Placeholders() *suggest.Placeholders {
	ph := suggest.NewPlaceholders()
	ph.MustRegister("players", p.Online)
	ph.MustRegister("worlds", p.Worlds)
	ph.MustRegister("warps", p.WarpNames)
	return ph
}

// Types returns the registration table of the plugin's handler types.
func Types() (*resolve.Table, error) {
	tb := resolve.NewTable()
	for _, t := range []resolve.Type{
		{
			Name:    RootType,
			Package: Package,
			GoType:  reflect.TypeOf(&Plugin{}),
		},
		warpsType(),
		kitsType(),
		kitItemsType(),
	} {
		if err := tb.Add(t); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

// Owner returns the registry identity of p.
func (p *Plugin) Owner(name string) registry.Owner {
	return registry.Owner{Name: name, Root: p, RootType: RootType}
}

// Install registers every command of the plugin, plus a free-function
// ping command.
func Install(reg *registry.Registry) error {
	if err := reg.Discover(); err != nil {
		return err
	}

	ping, err := command.New(command.Meta{
		Name:        "ping",
		Description: "Check that the host answers",
		Usage:       "ping",
	})
	if err != nil {
		return err
	}
	return reg.Register(ping, command.Binding{Handler: command.HandlerFunc(func(src command.Source, args command.Args) error {
		src.SendMessage("pong")
		return nil
	})})
}
