package handlers

import (
	"net/http"
	"strconv"

	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/repository"
	"tarp_ops/internal/services"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	dispatchService services.DispatchService
	defaultLimit    int
}

func NewDispatchHandler(dispatchService services.DispatchService, defaultLimit int) *DispatchHandler {
	return &DispatchHandler{dispatchService: dispatchService, defaultLimit: defaultLimit}
}

func (h *DispatchHandler) CreateDispatch(c *gin.Context) {
	var input services.CreateDispatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	dispatch, err := h.dispatchService.CreateDispatch(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispatch)
}

func (h *DispatchHandler) GetDispatch(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dispatch id"})
		return
	}
	dispatch, err := h.dispatchService.GetDispatch(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatch)
}

func (h *DispatchHandler) ListDispatches(c *gin.Context) {
	h.listWithStatus(c, c.Query("status"))
}

func (h *DispatchHandler) ListDelivered(c *gin.Context) {
	h.listWithStatus(c, string(models.DispatchDelivered))
}

func (h *DispatchHandler) ListInTransit(c *gin.Context) {
	h.listWithStatus(c, string(models.DispatchInTransit))
}

func (h *DispatchHandler) SearchShipments(c *gin.Context) {
	filter := repository.DispatchFilter{
		Query:    c.Query("query"),
		Status:   c.Query("status"),
		Carrier:  c.Query("carrier"),
		DateFrom: parseDate(c.Query("startDate")),
		DateTo:   parseDate(c.Query("endDate")),
	}
	page, err := h.dispatchService.ListDispatches(filter, h.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DispatchHandler) listWithStatus(c *gin.Context, status string) {
	query := c.Query("query")
	if query == "" {
		query = c.Query("search")
	}
	filter := repository.DispatchFilter{
		Query:  query,
		Status: status,
	}
	page, err := h.dispatchService.ListDispatches(filter, h.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DispatchHandler) UpdateStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dispatch id"})
		return
	}
	var req struct {
		Status     string `json:"status"`
		TrackingID string `json:"trackingId"`
		Remarks    string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	dispatch, err := h.dispatchService.AdvanceStatus(id, models.DispatchStatus(req.Status), req.TrackingID, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispatch)
}

func (h *DispatchHandler) Today(c *gin.Context) {
	summary, err := h.dispatchService.Today(10)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DispatchHandler) params(c *gin.Context) pagination.Params {
	var p pagination.Params
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))
	return p.Normalize(h.defaultLimit)
}
