package tasks

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

// Envelope is the wire format of a queued maintenance task.
type Envelope struct {
	Task       enums.TaskType  `json:"task"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Enqueuer queues a maintenance task for asynchronous execution. A nil
// payload is valid for tasks that carry none.
type Enqueuer interface {
	Enqueue(ctx context.Context, task enums.TaskType, payload any) error
}

// Handler runs one invocation of a maintenance task.
type Handler interface {
	Task() enums.TaskType
	Handle(ctx context.Context, payload json.RawMessage) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
