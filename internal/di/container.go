// Package di provides dependency injection configuration for the club trophies server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/access"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/di/providers"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/propagate"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/search"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Reactive handlers
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvidePropagator)
	do.Provide(injector, providers.ProvideBuilder)
	do.Provide(injector, providers.ProvideDispatcher)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideClubService)
	do.Provide(injector, providers.ProvideSearchService)

	// Workers
	do.Provide(injector, providers.ProvideSearchSweepJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// The dispatcher is invoked before any service so no committed change is missed.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*access.Resolver](injector)
	_ = do.MustInvoke[*propagate.Propagator](injector)
	_ = do.MustInvoke[*search.Builder](injector)
	_ = do.MustInvoke[*providers.DispatcherHandle](injector)

	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.ClubService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	_ = do.MustInvoke[*providers.SearchSweepJob](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
