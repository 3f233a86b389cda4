package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy to HTTP statuses and exposes the
// structured fields so the UI can render a precise message.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusUnprocessableEntity
	switch appErr.Kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindInvalidTransition, apperrors.KindOrderLocked,
		apperrors.KindOrderNotDispatchable:
		status = http.StatusConflict
	case apperrors.KindOverDelivery, apperrors.KindInvalidAdjustment:
		status = http.StatusUnprocessableEntity
	}

	body := gin.H{
		"error":  appErr.Message,
		"kind":   appErr.Kind,
		"entity": appErr.Entity,
		"id":     appErr.EntityID,
	}
	if len(appErr.Allowed) > 0 {
		body["current"] = appErr.Current
		body["allowed"] = appErr.Allowed
	}
	if appErr.Kind == apperrors.KindOverDelivery || appErr.Kind == apperrors.KindInvalidAdjustment {
		body["requested"] = appErr.Requested
		body["remaining"] = appErr.Remaining
	}
	c.JSON(status, body)
}

// orderStatusSynonyms maps display labels used across the UI to the
// canonical vocabulary. The domain model only ever sees canonical
// values.
var orderStatusSynonyms = map[string]models.OrderStatus{
	"pending":       models.OrderPending,
	"processing":    models.OrderProcessing,
	"in production": models.OrderProcessing,
	"in-production": models.OrderProcessing,
	"shipped":       models.OrderDispatched,
	"dispatched":    models.OrderDispatched,
	"completed":     models.OrderCompleted,
	"cancelled":     models.OrderCancelled,
}

// normalizeOrderStatus resolves a display label or canonical value to
// the canonical status. The second return is false for unknown input.
func normalizeOrderStatus(in string) (models.OrderStatus, bool) {
	status, ok := orderStatusSynonyms[strings.ToLower(strings.TrimSpace(in))]
	return status, ok
}
