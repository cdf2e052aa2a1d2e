package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

type fakeEnqueuer struct {
	tasks    []enums.TaskType
	payloads []any
	err      error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task enums.TaskType, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeReindexRepo struct {
	flagged int64
}

func (f *fakeReindexRepo) MarkAllSearchDirty(ctx context.Context, tx *gorm.DB) (int64, error) {
	return f.flagged, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func apiTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "api-test"})
}

func triggerRouter(enqueuer tasks.Enqueuer) http.Handler {
	r := chi.NewRouter()
	r.Post("/tasks/{task}", TriggerTask(enqueuer, apiTestLogger()))
	return r
}

func TestTriggerTaskQueuesKnownTask(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := triggerRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/tasks/promotion-rule-relink", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0] != enums.TaskPromotionRuleRelink {
		t.Fatalf("expected relink enqueued, got %v", enqueuer.tasks)
	}
	if enqueuer.payloads[0] != nil {
		t.Fatalf("expected nil payload, got %v", enqueuer.payloads[0])
	}
}

func TestTriggerTaskRejectsUnknownTask(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := triggerRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/tasks/defragment-warehouse", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("expected nothing enqueued, got %v", enqueuer.tasks)
	}
}

func TestTriggerRenameTaskRequiresBody(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := triggerRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/tasks/variant-name-refresh", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
}

func TestTriggerRenameTaskForwardsPayload(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := triggerRouter(enqueuer)

	productTypeID := uuid.New()
	attributeID := uuid.New()
	body := fmt.Sprintf(`{"productTypeId":%q,"attributeIds":[%q]}`, productTypeID, attributeID)

	req := httptest.NewRequest(http.MethodPost, "/tasks/variant-name-refresh", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	payload, ok := enqueuer.payloads[0].(tasks.VariantNameRefreshPayload)
	if !ok {
		t.Fatalf("expected typed rename payload, got %T", enqueuer.payloads[0])
	}
	if payload.ProductTypeID != productTypeID || len(payload.AttributeIDs) != 1 {
		t.Fatalf("payload not forwarded: %+v", payload)
	}
}

func TestSearchReindexFlagsAndQueues(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	handler := SearchReindex(fakeTxRunner{}, &fakeReindexRepo{flagged: 42}, enqueuer, apiTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/search/reindex", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0] != enums.TaskSearchIndexRefresh {
		t.Fatalf("expected search refresh enqueued, got %v", enqueuer.tasks)
	}

	var envelope struct {
		Data struct {
			ProductsFlagged int64 `json:"productsFlagged"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProductsFlagged != 42 {
		t.Fatalf("expected 42 flagged, got %d", envelope.Data.ProductsFlagged)
	}
}
