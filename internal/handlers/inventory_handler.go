package handlers

import (
	"net/http"
	"strconv"

	"tarp_ops/internal/pagination"
	"tarp_ops/internal/repository"
	"tarp_ops/internal/services"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService services.InventoryService
	reportService    services.ReportService
	defaultLimit     int
}

func NewInventoryHandler(inventoryService services.InventoryService, reportService services.ReportService, defaultLimit int) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		reportService:    reportService,
		defaultLimit:     defaultLimit,
	}
}

func (h *InventoryHandler) AddRawMaterial(c *gin.Context) {
	var input services.RawMaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	item, err := h.inventoryService.AddRawMaterial(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) AddFinishedProduct(c *gin.Context) {
	var input services.FinishedProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	item, err := h.inventoryService.AddFinishedProduct(input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) ListRawMaterials(c *gin.Context) {
	page, err := h.inventoryService.ListRawMaterials(h.filter(c), h.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InventoryHandler) ListFinishedProducts(c *gin.Context) {
	page, err := h.inventoryService.ListFinishedProducts(h.filter(c), h.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InventoryHandler) Search(c *gin.Context) {
	filter := h.filter(c)
	filter.Category = c.Query("category")
	page, err := h.inventoryService.Search(filter, h.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InventoryHandler) LowStockAlerts(c *gin.Context) {
	items, err := h.inventoryService.LowStockAlerts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.reportService.InventorySummary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *InventoryHandler) Report(c *gin.Context) {
	filter := repository.InventoryFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		DateFrom: parseDate(c.Query("startDate")),
		DateTo:   parseDate(c.Query("endDate")),
	}
	report, err := h.inventoryService.Report(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetItem resolves the path parameter as a numeric id first and falls
// back to the display code (RM-0001, FP-0001).
func (h *InventoryHandler) GetItem(c *gin.Context) {
	if id, err := parseID(c); err == nil {
		item, err := h.inventoryService.GetItem(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
		return
	}
	view, err := h.inventoryService.GetItemByCode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inventory id"})
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	item, err := h.inventoryService.AdjustStock(id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) filter(c *gin.Context) repository.InventoryFilter {
	query := c.Query("query")
	if query == "" {
		query = c.Query("search")
	}
	return repository.InventoryFilter{
		Query:  query,
		Status: c.Query("status"),
	}
}

func (h *InventoryHandler) params(c *gin.Context) pagination.Params {
	var p pagination.Params
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))
	return p.Normalize(h.defaultLimit)
}
