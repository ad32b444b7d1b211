package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll processes batches concurrently, bounded by the configured worker
// count. Reports are returned in batch order. The first failure cancels the
// remaining runs.
func (e *Engine) RunAll(ctx context.Context, batches []Batch) ([]*Report, error) {
	reports := make([]*Report, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			report, err := e.Run(ctx, batch)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("All tenant runs complete", "tenants", len(batches), "workers", e.workers)
	return reports, nil
}
