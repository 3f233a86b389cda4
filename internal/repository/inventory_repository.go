package repository

import (
	"sort"
	"time"

	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"

	"gorm.io/gorm"
)

// InventoryFilter narrows inventory lists, AND semantics. Status maps
// the derived stock status back to its defining conditions so the
// query can never disagree with the derivation.
type InventoryFilter struct {
	Query    string
	Category string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

type InventoryRepository interface {
	Create(item *models.InventoryItem) error
	GetByID(id uint) (*models.InventoryItem, error)
	GetByItemID(itemID string) (*models.InventoryItem, error)
	FindFinishedProductByName(name string) (*models.InventoryItem, error)
	Update(item *models.InventoryItem) error
	Delete(id uint) error
	List(filter InventoryFilter, p pagination.Params) ([]models.InventoryItem, int64, error)
	ListLowStock() ([]models.InventoryItem, error)
	// AdjustStock applies delta in a single guarded statement and
	// reports whether a row was updated. No row means the item is
	// missing or the delta would push stock negative.
	AdjustStock(id uint, delta int) (bool, error)
	// DecrementStock subtracts qty, flooring at zero. Used by the
	// dispatch tracker when goods have physically left the factory.
	DecrementStock(id uint, qty int) error
	CountByCategory(category string) (int64, error)
	CountLowStock() (int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(item *models.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *inventoryRepository) GetByID(id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) GetByItemID(itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.Where("item_id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) FindFinishedProductByName(name string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.Where("category = ? AND name = ?", string(models.CategoryFinishedProduct), name).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) Update(item *models.InventoryItem) error {
	return r.db.Save(item).Error
}

func (r *inventoryRepository) Delete(id uint) error {
	return r.db.Delete(&models.InventoryItem{}, id).Error
}

func (r *inventoryRepository) List(filter InventoryFilter, p pagination.Params) ([]models.InventoryItem, int64, error) {
	query := r.db.Model(&models.InventoryItem{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("name ILIKE ? OR item_id ILIKE ? OR supplier ILIKE ?", like, like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	switch models.StockStatus(filter.Status) {
	case models.OutOfStock:
		query = query.Where("stock <= 0")
	case models.LowStock:
		query = query.Where("stock > 0 AND reorder_level IS NOT NULL AND stock <= reorder_level")
	case models.InStock:
		query = query.Where("stock > 0 AND (reorder_level IS NULL OR stock > reorder_level)")
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.InventoryItem
	err := query.Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&items).Error
	return items, total, err
}

// ListLowStock returns every item whose derived status is LOW_STOCK or
// OUT_OF_STOCK, most urgent first (ascending stock/threshold ratio,
// ties broken by item id).
func (r *inventoryRepository) ListLowStock() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.
		Where("stock <= 0 OR (reorder_level IS NOT NULL AND stock <= reorder_level)").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		ri, rj := items[i].ThresholdRatio(), items[j].ThresholdRatio()
		if ri != rj {
			return ri < rj
		}
		return items[i].ItemID < items[j].ItemID
	})
	return items, nil
}

func (r *inventoryRepository) AdjustStock(id uint, delta int) (bool, error) {
	res := r.db.Model(&models.InventoryItem{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *inventoryRepository) DecrementStock(id uint, qty int) error {
	return r.db.Model(&models.InventoryItem{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("GREATEST(stock - ?, 0)", qty)).Error
}

func (r *inventoryRepository) CountByCategory(category string) (int64, error) {
	var count int64
	err := r.db.Model(&models.InventoryItem{}).Where("category = ?", category).Count(&count).Error
	return count, err
}

func (r *inventoryRepository) CountLowStock() (int64, error) {
	var count int64
	err := r.db.Model(&models.InventoryItem{}).
		Where("stock <= 0 OR (reorder_level IS NOT NULL AND stock <= reorder_level)").
		Count(&count).Error
	return count, err
}
