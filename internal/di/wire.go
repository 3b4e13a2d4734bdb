//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/kcaldas/cmdcore/pkg/dispatch"
)

// HostSet provides every component of a command host
var HostSet = wire.NewSet(
	ProvideEventBus,
	ProvidePublisher,
	ProvideConfigManager,
	ProvidePlugin,
	ProvideTypes,
	ProvidePlaceholders,
	ProvideCommandTable,
	ProvideRegistryOptions,
	ProvideRegistry,
	ProvideDispatcher,
	NewHost,
)

// InitializeHost is an injector function - Wire will generate the implementation
func InitializeHost(auth dispatch.Authorizer) (*Host, error) {
	wire.Build(HostSet)
	return nil, nil
}
