package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/search"
)

// SearchSweepJob runs periodic removal of expired searches.
type SearchSweepJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *SearchSweepJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSearchSweepJob provides the periodic search sweep job.
func ProvideSearchSweepJob(i do.Injector) (*SearchSweepJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	sweeper := search.NewSweeper(storeHandle.Store, cfg.Search.TTL, log.Logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sweeper.Run(ctx, cfg.Search.SweepInterval)
	}()

	log.Info("Search sweep job started", "interval", cfg.Search.SweepInterval)

	return &SearchSweepJob{cancel: cancel, done: done}, nil
}
