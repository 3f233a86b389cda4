package handlers

import (
	"net/http"

	"tarp_ops/internal/repository"
	"tarp_ops/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService    services.ReportService
	inventoryService services.InventoryService
}

func NewReportHandler(reportService services.ReportService, inventoryService services.InventoryService) *ReportHandler {
	return &ReportHandler{reportService: reportService, inventoryService: inventoryService}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) Search(c *gin.Context) {
	result, err := h.reportService.GlobalSearch(c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ReportHandler) Sales(c *gin.Context) {
	report, err := h.reportService.SalesReport(c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Production(c *gin.Context) {
	report, err := h.reportService.ProductionReport(c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Customers(c *gin.Context) {
	report, err := h.reportService.CustomerAnalysis(c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Inventory(c *gin.Context) {
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
