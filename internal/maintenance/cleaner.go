// AngelaMos | 2026
// cleaner.go

package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/metrics"
)

const (
	JobExpireSubscriptions = "expire_subscriptions"
	JobPurgeResetTokens    = "purge_reset_tokens"
)

type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

// Cleaner runs the periodic housekeeping jobs: marking lapsed
// subscriptions expired and clearing reset tokens past their expiry.
type Cleaner struct {
	cron *cron.Cron
	jobs []job
}

type Option func(*Cleaner)

// WithCron injects a preconfigured scheduler.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// NewCleaner registers a job for each non-nil dependency. Empty schedules
// fall back to hourly expiry and daily purge.
func NewCleaner(
	cfg config.MaintenanceConfig,
	subscriptions SubscriptionExpirer,
	resets ResetTokenPurger,
	opts ...Option,
) *Cleaner {
	c := &Cleaner{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cron == nil {
		c.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	if subscriptions != nil {
		c.jobs = append(c.jobs, job{
			name:     JobExpireSubscriptions,
			schedule: orDefault(cfg.ExpirySchedule, "@hourly"),
			run:      subscriptions.ExpireLapsed,
		})
	}
	if resets != nil {
		c.jobs = append(c.jobs, job{
			name:     JobPurgeResetTokens,
			schedule: orDefault(cfg.ResetPurgeSchedule, "@daily"),
			run:      resets.PurgeExpiredResetTokens,
		})
	}

	return c
}

// Start schedules every job and launches the scheduler.
func (c *Cleaner) Start() error {
	if len(c.jobs) == 0 {
		return nil
	}

	for _, j := range c.jobs {
		if _, err := c.cron.AddFunc(j.schedule, func() {
			_ = c.runJob(context.Background(), j)
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running
// jobs have finished.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce executes every job sequentially and returns all failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error
	for _, j := range c.jobs {
		errs = multierr.Append(errs, c.runJob(ctx, j))
	}
	return errs
}

func (c *Cleaner) runJob(ctx context.Context, j job) error {
	affected, err := j.run(ctx)
	metrics.RecordMaintenance(j.name, err)

	if err != nil {
		slog.WarnContext(ctx, "maintenance job failed", "job", j.name, "error", err)
		return fmt.Errorf("%s: %w", j.name, err)
	}

	if affected > 0 {
		slog.InfoContext(ctx, "maintenance job completed", "job", j.name, "affected", affected)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
