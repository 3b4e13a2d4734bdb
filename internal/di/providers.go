package di

import (
	"fmt"

	"github.com/kcaldas/cmdcore/internal/demo"
	"github.com/kcaldas/cmdcore/pkg/cache"
	"github.com/kcaldas/cmdcore/pkg/config"
	"github.com/kcaldas/cmdcore/pkg/dispatch"
	"github.com/kcaldas/cmdcore/pkg/events"
	"github.com/kcaldas/cmdcore/pkg/host"
	"github.com/kcaldas/cmdcore/pkg/logging"
	"github.com/kcaldas/cmdcore/pkg/registry"
	"github.com/kcaldas/cmdcore/pkg/resolve"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

// Host bundles everything a command host process needs.
type Host struct {
	Plugin     *demo.Plugin
	Table      *host.MemoryTable
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Bus        events.EventBus
	Config     config.Manager
}

// Shared event bus instance
var eventBus = events.NewEventBus()

// ProvideEventBus provides the shared event bus instance
func ProvideEventBus() events.EventBus {
	return eventBus
}

// ProvidePublisher provides the publisher interface of the shared bus
func ProvidePublisher(bus events.EventBus) events.Publisher {
	return bus
}

// ProvideConfigManager provides a configuration manager
func ProvideConfigManager() config.Manager {
	return config.NewConfigManager()
}

// ProvidePlugin provides the sample plugin with its default worlds
func ProvidePlugin() *demo.Plugin {
	return demo.NewPlugin()
}

// ProvideTypes provides the handler type table of the sample plugin
func ProvideTypes() (*resolve.Table, error) {
	return demo.Types()
}

// ProvidePlaceholders provides the plugin's suggestion sources
func ProvidePlaceholders(p *demo.Plugin) *suggest.Placeholders {
	return p.Placeholders()
}

// ProvideCommandTable provides an empty host command table
func ProvideCommandTable() *host.MemoryTable {
	return host.NewMemoryTable()
}

// ProvideRegistryOptions assembles the registry options from configuration
func ProvideRegistryOptions(cfg config.Manager, p *demo.Plugin, table *host.MemoryTable, types *resolve.Table, placeholders *suggest.Placeholders, bus events.Publisher) registry.Options {
	cacheCfg := cfg.GetCacheConfig()
	return registry.Options{
		Owner:        p.Owner(cfg.GetHostConfig().OwnerName),
		Table:        table,
		Types:        types,
		Placeholders: placeholders,
		Cache: cache.Options{
			MaxEntries:        cacheCfg.MaxEntries,
			ExpireAfterAccess: cacheCfg.ExpireAfterAccess,
		},
		Bus: bus,
	}
}

// ProvideRegistry creates the registry and installs the plugin's commands.
// A command that fails to register is logged by the registry and does not
// stop the host.
func ProvideRegistry(opts registry.Options) (*registry.Registry, error) {
	reg, err := registry.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	if err := demo.Install(reg); err != nil {
		logging.Warn("some commands were not registered", "err", err)
	}
	return reg, nil
}

// ProvideDispatcher provides a dispatcher over the registry
func ProvideDispatcher(reg *registry.Registry, auth dispatch.Authorizer, bus events.Publisher) (*dispatch.Dispatcher, error) {
	return dispatch.New(dispatch.Options{
		Finder:     reg,
		Authorizer: auth,
		Bus:        bus,
	})
}

// NewHost groups the wired components.
func NewHost(p *demo.Plugin, table *host.MemoryTable, reg *registry.Registry, d *dispatch.Dispatcher, bus events.EventBus, cfg config.Manager) *Host {
	return &Host{
		Plugin:     p,
		Table:      table,
		Registry:   reg,
		Dispatcher: d,
		Bus:        bus,
		Config:     cfg,
	}
}
