package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

// Consumer pulls task envelopes off the maintenance subscription and
// dispatches them to the registered handlers.
type Consumer struct {
	subscription *pubsub.Subscriber
	handlers     map[enums.TaskType]Handler
	logg         *logger.Logger
	metrics      *metrics.TaskMetrics
	now          func() time.Time
}

// NewConsumer builds a task consumer over the given subscription.
func NewConsumer(subscription *pubsub.Subscriber, handlers []Handler, logg *logger.Logger, taskMetrics *metrics.TaskMetrics) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("tasks subscription required")
	}
	if len(handlers) == 0 {
		return nil, fmt.Errorf("at least one handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	byTask := make(map[enums.TaskType]Handler, len(handlers))
	for _, handler := range handlers {
		if handler == nil {
			return nil, fmt.Errorf("nil handler")
		}
		if _, exists := byTask[handler.Task()]; exists {
			return nil, fmt.Errorf("duplicate handler for %s", handler.Task())
		}
		byTask[handler.Task()] = handler
	}
	return &Consumer{
		subscription: subscription,
		handlers:     byTask,
		logg:         logg,
		metrics:      taskMetrics,
		now:          time.Now,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	var envelope Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode task envelope", err)
		return processResult{ack: true}
	}
	task := envelope.Task
	if task == "" {
		task = enums.TaskType(msg.Attributes[TaskAttribute])
	}
	logCtx = c.logg.WithTask(logCtx, task.String())

	handler, ok := c.handlers[task]
	if !ok {
		c.logg.Warn(logCtx, "no handler registered for task")
		return processResult{ack: true}
	}

	started := c.now()
	err := handler.Handle(logCtx, envelope.Payload)
	c.metrics.ObserveDuration(task.String(), c.now().Sub(started))
	if err != nil {
		c.metrics.IncFailure(task.String())
		c.logg.Error(logCtx, "task failed", err)
		return processResult{nack: true}
	}
	c.metrics.IncSuccess(task.String())
	return processResult{ack: true}
}
