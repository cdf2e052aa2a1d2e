package tasks

import (
	"context"

	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEnqueuer struct {
	tasks    []enums.TaskType
	payloads []any
	err      error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task enums.TaskType, payload any) error {
	f.tasks = append(f.tasks, task)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeEnqueuer) enqueued(task enums.TaskType) int {
	count := 0
	for _, t := range f.tasks {
		if t == task {
			count++
		}
	}
	return count
}
