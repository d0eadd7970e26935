package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/trigger"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the document store. Changes go nowhere until the
// dispatcher provider attaches itself as the emitter; the ones the dispatcher
// routes are also recorded in the outbox and replayed once it starts.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
		Indexes:  domain.IndexedFields(),
		Outbox:   trigger.OutboxChanges(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Store.InMemory {
		log.Warn("Document store is in memory, nothing survives a restart")
	} else {
		log.Info("Document store opened", "path", cfg.Store.Path)
	}

	return &StoreHandle{Store: db}, nil
}

// ProvideMetrics provides the Prometheus metrics, registered with the Go runtime
// and process collectors on a private registry.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), nil
}
