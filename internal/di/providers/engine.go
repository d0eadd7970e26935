package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/access"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/propagate"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/search"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/trigger"
)

// ProvideResolver provides the access-filtered club and trophy resolver.
func ProvideResolver(i do.Injector) (*access.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return access.NewResolver(storeHandle.Store, access.Options{
		BatchSize: cfg.Search.LookupBatchSize,
		Logger:    log.Logger,
	}), nil
}

// ProvidePropagator provides the boat name propagator.
func ProvidePropagator(i do.Injector) (*propagate.Propagator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	return propagate.New(storeHandle.Store, log.Logger, m), nil
}

// ProvideBuilder provides the search fan-out builder.
func ProvideBuilder(i do.Injector) (*search.Builder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*access.Resolver](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	return search.NewBuilder(storeHandle.Store, resolver, search.Options{
		PageSize: cfg.Search.PageSize,
		TTL:      cfg.Search.TTL,
		Logger:   log.Logger,
		Metrics:  m,
	}), nil
}

// DispatcherHandle wraps the change dispatcher with its context for lifecycle management.
type DispatcherHandle struct {
	*trigger.Dispatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable. Queued changes are handled before it returns.
func (h *DispatcherHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Dispatcher.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideDispatcher provides the change dispatcher and attaches it to the store.
func ProvideDispatcher(i do.Injector) (*DispatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	propagator := do.MustInvoke[*propagate.Propagator](i)
	builder := do.MustInvoke[*search.Builder](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	d := trigger.New(storeHandle.Store, trigger.Options{
		MaxAttempts:   cfg.Trigger.MaxAttempts,
		RetryBackoff:  cfg.Trigger.RetryBackoff,
		MaxConcurrent: cfg.Trigger.MaxConcurrent,
		BufferSize:    cfg.Trigger.BufferSize,
		Outbox:        storeHandle.Store,
		ReplayEvery:   cfg.Trigger.ReplayInterval,
		Logger:        log.Logger,
		Metrics:       m,
	},
		trigger.BoatUpdatedRoute(propagator),
		trigger.SearchCreatedRoute(builder),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	storeHandle.SetEmitter(d)

	log.Info("Dispatcher started",
		"max_attempts", cfg.Trigger.MaxAttempts,
		"max_concurrent", cfg.Trigger.MaxConcurrent,
	)

	return &DispatcherHandle{Dispatcher: d, cancel: cancel}, nil
}
