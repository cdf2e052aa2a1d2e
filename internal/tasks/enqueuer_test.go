package tasks

import (
	"context"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

type countingPublisher struct {
	calls int
}

func (p *countingPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult {
	p.calls++
	return nil
}

func TestEnqueueRejectsUnknownTask(t *testing.T) {
	pub := &countingPublisher{}
	enqueuer := &PubSubEnqueuer{pub: pub, logg: testLogger(), now: time.Now}

	err := enqueuer.Enqueue(context.Background(), enums.TaskType("bogus"), nil)
	if err == nil {
		t.Fatal("expected unknown task error")
	}
	if pub.calls != 0 {
		t.Fatal("expected nothing published for an unknown task")
	}
}
