package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

const publishTimeout = 15 * time.Second

// TaskAttribute carries the task name on the Pub/Sub message so the
// consumer can dispatch without decoding the body.
const TaskAttribute = "task"

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// PubSubEnqueuer publishes task envelopes to the maintenance topic.
type PubSubEnqueuer struct {
	pub  publisher
	logg *logger.Logger
	now  func() time.Time
}

// NewPubSubEnqueuer builds an enqueuer over the tasks topic publisher.
func NewPubSubEnqueuer(pub *gcppubsub.Publisher, logg *logger.Logger) (*PubSubEnqueuer, error) {
	if pub == nil {
		return nil, fmt.Errorf("tasks publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PubSubEnqueuer{pub: pub, logg: logg, now: time.Now}, nil
}

// Enqueue publishes one task invocation and waits for the broker ack.
func (e *PubSubEnqueuer) Enqueue(ctx context.Context, task enums.TaskType, payload any) error {
	if !task.IsValid() {
		return fmt.Errorf("unknown task %q", task)
	}

	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", task, err)
		}
		raw = encoded
	}

	data, err := json.Marshal(Envelope{
		Task:       task,
		Payload:    raw,
		EnqueuedAt: e.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", task, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := e.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			TaskAttribute: task.String(),
		},
	})
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", task, err)
	}

	e.logg.Debug(e.logg.WithTask(ctx, task.String()), "task enqueued")
	return nil
}
