package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-catalog-cache/internal/models"
	"go-catalog-cache/internal/scheduler"
)

// Warmer keeps the hottest catalog keys populated: the singleton lists and the
// unfiltered first page of products
type Warmer struct {
	service *Service
	logger  *zap.Logger
	task    *scheduler.PeriodicTask
}

// NewWarmer creates a warmer that runs every interval once started
func NewWarmer(service *Service, interval time.Duration, logger *zap.Logger, opts ...scheduler.Option) *Warmer {
	w := &Warmer{
		service: service,
		logger:  logger,
	}
	opts = append([]scheduler.Option{scheduler.WithImmediateRun()}, opts...)
	w.task = scheduler.New(interval, w.run, opts...)
	return w
}

// Warm fetches every hot key concurrently. One failing key does not stop the others.
func (w *Warmer) Warm(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		_, _, err := w.service.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		_, _, err := w.service.ListPlatforms(ctx)
		return err
	})
	g.Go(func() error {
		_, _, err := w.service.ListBanners(ctx)
		return err
	})
	g.Go(func() error {
		_, _, err := w.service.ListProducts(ctx, models.QueryOptions{})
		return err
	})

	return g.Wait()
}

// Start begins periodic warming, the first run happens immediately
func (w *Warmer) Start() {
	w.task.Start()
}

// Stop stops periodic warming
func (w *Warmer) Stop() {
	w.task.Stop()
}

func (w *Warmer) run(ctx context.Context) {
	start := time.Now()
	if err := w.Warm(ctx); err != nil {
		w.logger.Warn("Catalog warmup incomplete", zap.Error(err))
		return
	}
	w.logger.Debug("Catalog warmup finished", zap.Duration("elapsed", time.Since(start)))
}
