package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

// MaintenanceKickoffJobParams configure the catalog maintenance kickoff.
type MaintenanceKickoffJobParams struct {
	Logger   *logger.Logger
	Enqueuer tasks.Enqueuer
}

// NewMaintenanceKickoffJob builds the job that seeds the task queue with
// the recurring catalog sweeps. Each task drains its own backlog and
// re-enqueues itself while work remains, so one kickoff per cycle is
// enough.
func NewMaintenanceKickoffJob(params MaintenanceKickoffJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Enqueuer == nil {
		return nil, fmt.Errorf("enqueuer required")
	}
	return &maintenanceKickoffJob{
		logg:     params.Logger,
		enqueuer: params.Enqueuer,
	}, nil
}

type maintenanceKickoffJob struct {
	logg     *logger.Logger
	enqueuer tasks.Enqueuer
}

func (j *maintenanceKickoffJob) Name() string { return "catalog-maintenance-kickoff" }

func (j *maintenanceKickoffJob) Run(ctx context.Context) error {
	sweeps := []enums.TaskType{
		enums.TaskPromotionRuleRelink,
		enums.TaskDiscountedPriceRecalc,
		enums.TaskSearchIndexRefresh,
	}

	var errs error
	enqueued := 0
	for _, task := range sweeps {
		if err := j.enqueuer.Enqueue(ctx, task, nil); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("enqueue %s: %w", task, err))
			continue
		}
		enqueued++
	}

	logCtx := j.logg.WithField(ctx, "tasks_enqueued", enqueued)
	j.logg.Info(logCtx, "catalog maintenance sweeps enqueued")
	return errs
}

// PreorderKickoffJobParams configure the preorder cleanup kickoff.
type PreorderKickoffJobParams struct {
	Logger   *logger.Logger
	Enqueuer tasks.Enqueuer
}

// NewPreorderKickoffJob builds the job that queues the preorder cleanup
// sweep.
func NewPreorderKickoffJob(params PreorderKickoffJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Enqueuer == nil {
		return nil, fmt.Errorf("enqueuer required")
	}
	return &preorderKickoffJob{
		logg:     params.Logger,
		enqueuer: params.Enqueuer,
	}, nil
}

type preorderKickoffJob struct {
	logg     *logger.Logger
	enqueuer tasks.Enqueuer
}

func (j *preorderKickoffJob) Name() string { return "preorder-cleanup-kickoff" }

func (j *preorderKickoffJob) Run(ctx context.Context) error {
	if err := j.enqueuer.Enqueue(ctx, enums.TaskPreorderCleanup, nil); err != nil {
		return fmt.Errorf("enqueue %s: %w", enums.TaskPreorderCleanup, err)
	}
	j.logg.Info(ctx, "preorder cleanup enqueued")
	return nil
}
