package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/api/responses"
	"github.com/verdantmarket/catalog-maintenance/api/validators"
	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	pkgerrors "github.com/verdantmarket/catalog-maintenance/pkg/errors"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

// VariantNameRefreshRequest is the admin trigger body for the rename task.
type VariantNameRefreshRequest struct {
	ProductTypeID uuid.UUID   `json:"productTypeId" validate:"required"`
	AttributeIDs  []uuid.UUID `json:"attributeIds" validate:"required,min=1"`
}

// TriggerTask queues one maintenance task by name. The rename task
// requires a body identifying the product type and attributes; the
// other tasks carry no payload.
func TriggerTask(enqueuer tasks.Enqueuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "task")
		task, err := enums.ParseTaskType(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown task"))
			return
		}

		var payload any
		if task == enums.TaskVariantNameRefresh {
			var req VariantNameRefreshRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			payload = tasks.VariantNameRefreshPayload{
				ProductTypeID: req.ProductTypeID,
				AttributeIDs:  req.AttributeIDs,
			}
		}

		if err := enqueuer.Enqueue(r.Context(), task, payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue task"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithTask(r.Context(), task.String()), "task triggered via admin api")
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{
			"task":   task.String(),
			"status": "queued",
		})
	}
}

type searchReindexRepo interface {
	MarkAllSearchDirty(ctx context.Context, tx *gorm.DB) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SearchReindex flags every product's search document stale and queues
// the refresh sweep that will rebuild them batch by batch.
func SearchReindex(db txRunner, repo searchReindexRepo, enqueuer tasks.Enqueuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var flagged int64
		err := db.WithTx(r.Context(), func(tx *gorm.DB) error {
			rows, err := repo.MarkAllSearchDirty(r.Context(), tx)
			if err != nil {
				return err
			}
			flagged = rows
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag products for reindex"))
			return
		}

		if err := enqueuer.Enqueue(r.Context(), enums.TaskSearchIndexRefresh, nil); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue search refresh"))
			return
		}

		if logg != nil {
			ctx := logg.WithField(r.Context(), "products_flagged", flagged)
			logg.Info(ctx, "full search reindex queued")
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{
			"status":          "queued",
			"productsFlagged": flagged,
		})
	}
}
