package services

import (
	"strings"
	"time"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/redis"
	"tarp_ops/internal/repository"
)

// DashboardSummary aggregates the headline numbers for the main
// dashboard. Pure read-side; every field tolerates empty data.
type DashboardSummary struct {
	TotalOrders       int64            `json:"totalOrders"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	LowStockItems     int64            `json:"lowStockItems"`
	TodaysDispatches  int64            `json:"todaysDispatches"`
	TopSellingProduct string           `json:"topSellingProduct"`
}

// InventorySummary backs /api/inventory/summary.
type InventorySummary struct {
	TotalRawMaterials int64  `json:"totalRawMaterials"`
	FinishedProducts  int64  `json:"finishedProducts"`
	LowStockItems     int64  `json:"lowStockItems"`
	TopSellingProduct string `json:"topSellingProduct"`
}

// SalesReport counts order activity within a period.
type SalesReport struct {
	Period         string                    `json:"period"`
	OrdersCreated  int64                     `json:"ordersCreated"`
	OrdersByStatus map[string]int64          `json:"ordersByStatus"`
	TopProducts    []repository.ProductTotal `json:"topProducts"`
}

// ProductionReport summarizes work in progress within a period.
type ProductionReport struct {
	Period       string `json:"period"`
	InProduction int64  `json:"inProduction"`
	Completed    int64  `json:"completed"`
	Cancelled    int64  `json:"cancelled"`
}

// CustomerReport ranks customers by order volume within a period.
type CustomerReport struct {
	Period    string                     `json:"period"`
	Customers []repository.CustomerTotal `json:"customers"`
}

// SearchResult is the global dashboard search payload: matching
// orders, matching inventory items, and the distinct customer names
// among the matched orders.
type SearchResult struct {
	Orders    []models.Order         `json:"orders"`
	Products  []models.InventoryItem `json:"products"`
	Customers []string               `json:"customers"`
}

type ReportService interface {
	DashboardSummary() (*DashboardSummary, error)
	InventorySummary() (*InventorySummary, error)
	SalesReport(period string) (*SalesReport, error)
	ProductionReport(period string) (*ProductionReport, error)
	CustomerAnalysis(period string) (*CustomerReport, error)
	GlobalSearch(query string) (*SearchResult, error)
}

type reportService struct {
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	dispatchRepo  repository.DispatchRepository
	cache         *redis.Client
	cacheTTL      time.Duration
}

// NewReportService builds the read-side aggregator. cache may be nil,
// in which case every call computes from the repositories.
func NewReportService(
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	dispatchRepo repository.DispatchRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
) ReportService {
	return &reportService{
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		dispatchRepo:  dispatchRepo,
		cache:         cache,
		cacheTTL:      cacheTTL,
	}
}

func (s *reportService) DashboardSummary() (*DashboardSummary, error) {
	if s.cache != nil {
		var cached DashboardSummary
		if err := s.cache.GetSummary("dashboard", &cached); err == nil {
			return &cached, nil
		}
	}

	byStatus, err := s.orderRepo.CountByStatus(nil)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, count := range byStatus {
		total += count
	}

	lowStock, err := s.inventoryRepo.CountLowStock()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dispatches, err := s.dispatchRepo.CountCreatedSince(midnight)
	if err != nil {
		return nil, err
	}

	top, err := s.topProduct()
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		TotalOrders:       total,
		OrdersByStatus:    byStatus,
		LowStockItems:     lowStock,
		TodaysDispatches:  dispatches,
		TopSellingProduct: top,
	}
	if s.cache != nil {
		// Best effort; a failed cache write never fails the read.
		_ = s.cache.SetSummary("dashboard", summary, s.cacheTTL)
	}
	return summary, nil
}

func (s *reportService) InventorySummary() (*InventorySummary, error) {
	raw, err := s.inventoryRepo.CountByCategory(string(models.CategoryRawMaterial))
	if err != nil {
		return nil, err
	}
	finished, err := s.inventoryRepo.CountByCategory(string(models.CategoryFinishedProduct))
	if err != nil {
		return nil, err
	}
	lowStock, err := s.inventoryRepo.CountLowStock()
	if err != nil {
		return nil, err
	}
	top, err := s.topProduct()
	if err != nil {
		return nil, err
	}
	return &InventorySummary{
		TotalRawMaterials: raw,
		FinishedProducts:  finished,
		LowStockItems:     lowStock,
		TopSellingProduct: top,
	}, nil
}

func (s *reportService) SalesReport(period string) (*SalesReport, error) {
	since := periodStart(period)
	byStatus, err := s.orderRepo.CountByStatus(&since)
	if err != nil {
		return nil, err
	}
	var created int64
	for _, count := range byStatus {
		created += count
	}
	top, err := s.dispatchRepo.TopDeliveredProducts(5)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.ProductTotal{}
	}
	return &SalesReport{
		Period:         period,
		OrdersCreated:  created,
		OrdersByStatus: byStatus,
		TopProducts:    top,
	}, nil
}

func (s *reportService) ProductionReport(period string) (*ProductionReport, error) {
	since := periodStart(period)
	byStatus, err := s.orderRepo.CountByStatus(&since)
	if err != nil {
		return nil, err
	}
	return &ProductionReport{
		Period:       period,
		InProduction: byStatus[string(models.OrderProcessing)],
		Completed:    byStatus[string(models.OrderCompleted)],
		Cancelled:    byStatus[string(models.OrderCancelled)],
	}, nil
}

func (s *reportService) CustomerAnalysis(period string) (*CustomerReport, error) {
	since := periodStart(period)
	totals, err := s.orderRepo.CustomerTotals(since, 20)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []repository.CustomerTotal{}
	}
	return &CustomerReport{Period: period, Customers: totals}, nil
}

// GlobalSearch matches the query against orders and inventory in one
// call. Results are capped; the dashboard shows a short preview and
// deep links into the dedicated list pages.
func (s *reportService) GlobalSearch(query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("search", "", "query is required")
	}
	wide := pagination.Params{Page: 1, Limit: 20}

	orders, _, err := s.orderRepo.List(repository.OrderFilter{Query: query}, wide)
	if err != nil {
		return nil, err
	}
	products, _, err := s.inventoryRepo.List(repository.InventoryFilter{Query: query}, wide)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(orders))
	customers := []string{}
	for _, order := range orders {
		if _, ok := seen[order.CustomerName]; ok {
			continue
		}
		seen[order.CustomerName] = struct{}{}
		customers = append(customers, order.CustomerName)
	}

	if orders == nil {
		orders = []models.Order{}
	}
	if products == nil {
		products = []models.InventoryItem{}
	}
	return &SearchResult{Orders: orders, Products: products, Customers: customers}, nil
}

func (s *reportService) topProduct() (string, error) {
	totals, err := s.dispatchRepo.TopDeliveredProducts(1)
	if err != nil {
		return "", err
	}
	if len(totals) == 0 {
		return "", nil
	}
	return totals[0].Name, nil
}

// periodStart maps a report period name to its start time. Unknown
// periods fall back to the last 30 days.
func periodStart(period string) time.Time {
	now := time.Now()
	switch period {
	case "daily":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "weekly":
		return now.AddDate(0, 0, -7)
	case "yearly":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}
