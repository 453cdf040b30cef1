//go:build wireinject
// +build wireinject

package di

import (
	"EventPulse/pkg/config"
	"EventPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Caches
		ProvideRedis,
		ProvideCache,
		ProvideResponseCache,

		// Providers
		ProvidePriceSource,
		ProvideSECClient,
		ProvideSentiment,

		// Storage and transport
		ProvideClickHouseClient,
		ProvideReactionStore,
		ProvideKafkaProducer,
		ProvidePublisher,
		ProvideKafkaConsumer,

		// Use cases
		ProvideAnalyzer,
		ProvideResultSink,
		ProvideEventStudy,
		ProvidePriceHistory,
		ProvideAnalysisRequestHandler,
		ProvideWatchlistScheduler,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
