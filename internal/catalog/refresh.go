package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresh reloads the catalog from loader. Unlike Load, a failure keeps the
// items already served and only records the error.
func (c *Catalog) Refresh(ctx context.Context, loader Loader) error {
	items, err := loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		err = errors.Mark(err, ErrLoadFailed)
		c.err = err
		c.logger.Warn("catalog refresh failed, keeping current items", zap.Int("items", len(c.items)), zap.Error(err))
		return err
	}

	c.setLocked(items)
	c.loaded = true
	c.err = nil
	c.logger.Info("catalog refreshed", zap.Int("items", len(items)))
	return nil
}

// Scheduler refreshes a catalog on a cron schedule
type Scheduler struct {
	cron *cron.Cron
}

// Schedule refreshes c from loader on a cron expression ("@every 6h", "0 4 * * *", ...).
// done, when set, receives the outcome of every run.
func Schedule(ctx context.Context, c *Catalog, loader Loader, expr string, done func(items int, err error)) (*Scheduler, error) {
	sched := cron.New()
	_, err := sched.AddFunc(expr, func() {
		err := c.Refresh(ctx, loader)
		if done != nil {
			done(c.Len(), err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid refresh schedule %q", expr)
	}
	sched.Start()
	return &Scheduler{cron: sched}, nil
}

// Stop halts the schedule and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
