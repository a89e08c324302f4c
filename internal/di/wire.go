//go:build wireinject
// +build wireinject

package di

import (
	"MacroPulse/pkg/config"
	"MacroPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogCollector,
		ProvideLogger,
		ProvideMetrics,
		ProvideChartCache,

		// Upstream sources
		ProvideQuoteSource,
		ProvideNewsSource,
		ProvideSocialSource,

		// Aggregation pipeline
		ProvideSettings,
		ProvideAggregator,
		ProvideCheckpoints,
		ProvideSnapshotStore,
		ProvideHub,
		ProvideNoticePublisher,
		ProvideRefresher,
		ProvideTrigger,
		ProvideScheduler,

		// HTTP surface and application server
		ProvideDashboardHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
