//go:build wireinject
// +build wireinject

package di

import (
	"ForexPulse/pkg/config"
	"ForexPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideStreamMetrics,

		// Upstream access
		ProvideRegistry,
		ProvideFetcher,

		// Sinks
		ProvideSinks,
		ProvideQuoteArchive,

		// Use cases
		ProvideSlots,
		ProvideStrategy,
		ProvideRefresher,
		ProvideScheduler,
		ProvideNotifier,
		ProvideQueryService,

		// Transport
		ProvideHandlers,
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
