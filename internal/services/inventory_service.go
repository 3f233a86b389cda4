package services

import (
	"errors"
	"fmt"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RawMaterialInput struct {
	Name         string          `json:"name"`
	Supplier     string          `json:"supplier"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	ReorderLevel *int            `json:"reorder_level"`
	Remarks      string          `json:"remarks"`
}

type FinishedProductInput struct {
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	Width        float64         `json:"width"`
	Length       float64         `json:"length"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	ReorderLevel *int            `json:"reorder_level"`
	Remarks      string          `json:"remarks"`
}

// InventoryView is what the read endpoints return: the stored item plus
// the derived stock status and the GST-inclusive price. Both are
// computed on every read so they cannot drift from the stored fields.
type InventoryView struct {
	models.InventoryItem
	StockStatus  models.StockStatus `json:"stock_status"`
	PriceWithGST decimal.Decimal    `json:"price_with_gst"`
}

// InventoryReport groups the report endpoint's two sections.
type InventoryReport struct {
	RawMaterials []InventoryView `json:"rawMaterials"`
	Products     []InventoryView `json:"products"`
}

type InventoryService interface {
	AddRawMaterial(input RawMaterialInput) (*models.InventoryItem, error)
	AddFinishedProduct(input FinishedProductInput) (*models.InventoryItem, error)
	GetItem(id uint) (*InventoryView, error)
	GetItemByCode(itemID string) (*InventoryView, error)
	ListRawMaterials(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error)
	ListFinishedProducts(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error)
	Search(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error)
	AdjustStock(id uint, delta int) (*InventoryView, error)
	LowStockAlerts() ([]InventoryView, error)
	Report(filter repository.InventoryFilter) (*InventoryReport, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	gstRate       decimal.Decimal
}

// NewInventoryService builds the inventory service. gstRate is the GST
// percentage applied to display prices, e.g. 18 for 18%.
func NewInventoryService(inventoryRepo repository.InventoryRepository, gstRate decimal.Decimal) InventoryService {
	return &inventoryService{inventoryRepo: inventoryRepo, gstRate: gstRate}
}

func (s *inventoryService) view(item models.InventoryItem) InventoryView {
	return InventoryView{
		InventoryItem: item,
		StockStatus:   item.Status(),
		PriceWithGST:  item.PriceWithGST(s.gstRate),
	}
}

func (s *inventoryService) views(items []models.InventoryItem) []InventoryView {
	views := make([]InventoryView, len(items))
	for i, item := range items {
		views[i] = s.view(item)
	}
	return views
}

func (s *inventoryService) AddRawMaterial(input RawMaterialInput) (*models.InventoryItem, error) {
	if input.Name == "" {
		return nil, apperrors.Validation("inventory_item", "", "name is required")
	}
	if input.Quantity < 0 {
		return nil, apperrors.Validation("inventory_item", "", "quantity must not be negative")
	}
	if input.ReorderLevel != nil && *input.ReorderLevel < 0 {
		return nil, apperrors.Validation("inventory_item", "", "reorder_level must not be negative")
	}

	itemID, err := s.nextItemID(models.CategoryRawMaterial)
	if err != nil {
		return nil, err
	}
	item := &models.InventoryItem{
		ItemID:       itemID,
		Name:         input.Name,
		Category:     string(models.CategoryRawMaterial),
		Supplier:     input.Supplier,
		Stock:        input.Quantity,
		Unit:         input.Unit,
		ReorderLevel: input.ReorderLevel,
		Price:        input.Price,
		Remarks:      input.Remarks,
	}
	if err := s.inventoryRepo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create raw material: %w", err)
	}
	return item, nil
}

func (s *inventoryService) AddFinishedProduct(input FinishedProductInput) (*models.InventoryItem, error) {
	if input.Name == "" {
		return nil, apperrors.Validation("inventory_item", "", "name is required")
	}
	if input.Quantity < 0 {
		return nil, apperrors.Validation("inventory_item", "", "quantity must not be negative")
	}

	itemID, err := s.nextItemID(models.CategoryFinishedProduct)
	if err != nil {
		return nil, err
	}
	item := &models.InventoryItem{
		ItemID:       itemID,
		Name:         input.Name,
		Category:     string(models.CategoryFinishedProduct),
		Type:         input.Type,
		Width:        input.Width,
		Length:       input.Length,
		Stock:        input.Quantity,
		Unit:         input.Unit,
		ReorderLevel: input.ReorderLevel,
		Price:        input.Price,
		Remarks:      input.Remarks,
	}
	if err := s.inventoryRepo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create finished product: %w", err)
	}
	return item, nil
}

func (s *inventoryService) nextItemID(category models.InventoryCategory) (string, error) {
	count, err := s.inventoryRepo.CountByCategory(string(category))
	if err != nil {
		return "", fmt.Errorf("failed to count inventory: %w", err)
	}
	prefix := "RM"
	if category == models.CategoryFinishedProduct {
		prefix = "FP"
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

func (s *inventoryService) GetItem(id uint) (*InventoryView, error) {
	item, err := s.inventoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("inventory_item", fmt.Sprint(id))
		}
		return nil, err
	}
	view := s.view(*item)
	return &view, nil
}

// GetItemByCode looks an item up by its display code (RM-0001,
// FP-0001) and returns the read view.
func (s *inventoryService) GetItemByCode(itemID string) (*InventoryView, error) {
	item, err := s.inventoryRepo.GetByItemID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("inventory_item", itemID)
		}
		return nil, err
	}
	view := s.view(*item)
	return &view, nil
}

func (s *inventoryService) ListRawMaterials(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error) {
	filter.Category = string(models.CategoryRawMaterial)
	return s.list(filter, p)
}

func (s *inventoryService) ListFinishedProducts(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error) {
	filter.Category = string(models.CategoryFinishedProduct)
	return s.list(filter, p)
}

func (s *inventoryService) Search(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error) {
	return s.list(filter, p)
}

func (s *inventoryService) list(filter repository.InventoryFilter, p pagination.Params) (pagination.Page[InventoryView], error) {
	items, total, err := s.inventoryRepo.List(filter, p)
	if err != nil {
		return pagination.Page[InventoryView]{}, err
	}
	return pagination.New(s.views(items), total, p), nil
}

// AdjustStock applies delta atomically; the negative-stock guard and
// the write are the same statement, so there is no check-then-act gap.
func (s *inventoryService) AdjustStock(id uint, delta int) (*InventoryView, error) {
	applied, err := s.inventoryRepo.AdjustStock(id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	if !applied {
		item, err := s.inventoryRepo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("inventory_item", fmt.Sprint(id))
			}
			return nil, err
		}
		return nil, apperrors.InvalidAdjustment(item.ItemID, delta, item.Stock)
	}
	return s.GetItem(id)
}

func (s *inventoryService) LowStockAlerts() ([]InventoryView, error) {
	items, err := s.inventoryRepo.ListLowStock()
	if err != nil {
		return nil, err
	}
	return s.views(items), nil
}

func (s *inventoryService) Report(filter repository.InventoryFilter) (*InventoryReport, error) {
	// The report is unpaginated; reuse the list path with a wide page.
	wide := pagination.Params{Page: 1, Limit: 10000}

	rawFilter := filter
	rawFilter.Category = string(models.CategoryRawMaterial)
	raw, _, err := s.inventoryRepo.List(rawFilter, wide)
	if err != nil {
		return nil, err
	}

	productFilter := filter
	productFilter.Category = string(models.CategoryFinishedProduct)
	products, _, err := s.inventoryRepo.List(productFilter, wide)
	if err != nil {
		return nil, err
	}

	return &InventoryReport{RawMaterials: s.views(raw), Products: s.views(products)}, nil
}
