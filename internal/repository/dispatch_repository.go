package repository

import (
	"time"

	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"

	"gorm.io/gorm"
)

// DispatchFilter narrows shipment lists, AND semantics.
type DispatchFilter struct {
	Query    string
	Status   string
	Carrier  string
	DateFrom *time.Time
	DateTo   *time.Time
}

// ProductTotal is a cumulative delivered quantity per product name.
type ProductTotal struct {
	Name     string
	Quantity int64
}

type DispatchRepository interface {
	Create(dispatch *models.Dispatch) error
	GetByID(id uint) (*models.Dispatch, error)
	Update(dispatch *models.Dispatch) error
	UpdateStatus(id uint, status, trackingID, remarks string) error
	List(filter DispatchFilter, p pagination.Params) ([]models.Dispatch, int64, error)
	CountByOrderID(orderID uint) (int64, error)
	CountCreatedSince(t time.Time) (int64, error)
	// LatestDispatchID returns the highest dispatch id issued at or
	// after since, soft-deleted rows included. Empty string when the
	// day has no dispatches yet.
	LatestDispatchID(since time.Time) (string, error)
	RecentSince(t time.Time, limit int) ([]models.Dispatch, error)
	// CommittedQuantity sums line quantities across all dispatches of
	// the item, whatever their status; undelivered shipments still
	// hold goods against the item's budget.
	CommittedQuantity(orderItemID uint) (int, error)
	// DeliveredQuantity sums line quantities on DELIVERED dispatches.
	DeliveredQuantity(orderItemID uint) (int, error)
	TopDeliveredProducts(limit int) ([]ProductTotal, error)
}

type dispatchRepository struct {
	db *gorm.DB
}

func NewDispatchRepository(db *gorm.DB) DispatchRepository {
	return &dispatchRepository{db: db}
}

func (r *dispatchRepository) Create(dispatch *models.Dispatch) error {
	return r.db.Create(dispatch).Error
}

func (r *dispatchRepository) GetByID(id uint) (*models.Dispatch, error) {
	var dispatch models.Dispatch
	err := r.db.Preload("Lines").First(&dispatch, id).Error
	if err != nil {
		return nil, err
	}
	return &dispatch, nil
}

func (r *dispatchRepository) Update(dispatch *models.Dispatch) error {
	return r.db.Save(dispatch).Error
}

func (r *dispatchRepository) UpdateStatus(id uint, status, trackingID, remarks string) error {
	updates := map[string]interface{}{"status": status}
	if trackingID != "" {
		updates["tracking_id"] = trackingID
	}
	if remarks != "" {
		updates["remarks"] = remarks
	}
	return r.db.Model(&models.Dispatch{}).Where("id = ?", id).Updates(updates).Error
}

func (r *dispatchRepository) List(filter DispatchFilter, p pagination.Params) ([]models.Dispatch, int64, error) {
	query := r.db.Model(&models.Dispatch{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("dispatch_id ILIKE ? OR customer ILIKE ? OR tracking_id ILIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Carrier != "" {
		query = query.Where("carrier = ?", filter.Carrier)
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

	var dispatches []models.Dispatch
	err := query.Preload("Lines").
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&dispatches).Error
	return dispatches, total, err
}

func (r *dispatchRepository) CountByOrderID(orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Dispatch{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}

func (r *dispatchRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Dispatch{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

func (r *dispatchRepository) LatestDispatchID(since time.Time) (string, error) {
	var ids []string
	err := r.db.Unscoped().Model(&models.Dispatch{}).
		Where("created_at >= ?", since).
		Order("dispatch_id DESC").
		Limit(1).
		Pluck("dispatch_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

func (r *dispatchRepository) RecentSince(t time.Time, limit int) ([]models.Dispatch, error) {
	var dispatches []models.Dispatch
	err := r.db.Where("created_at >= ?", t).
		Order("created_at DESC").
		Limit(limit).
		Find(&dispatches).Error
	return dispatches, err
}

func (r *dispatchRepository) CommittedQuantity(orderItemID uint) (int, error) {
	var total int64
	err := r.db.Model(&models.DispatchLine{}).
		Where("order_item_id = ?", orderItemID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *dispatchRepository) DeliveredQuantity(orderItemID uint) (int, error) {
	var total int64
	err := r.db.Model(&models.DispatchLine{}).
		Joins("JOIN dispatches ON dispatches.id = dispatch_lines.dispatch_id").
		Where("dispatch_lines.order_item_id = ? AND dispatches.status = ?", orderItemID, string(models.DispatchDelivered)).
		Select("COALESCE(SUM(dispatch_lines.quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *dispatchRepository) TopDeliveredProducts(limit int) ([]ProductTotal, error) {
	var totals []ProductTotal
	err := r.db.Model(&models.DispatchLine{}).
		Joins("JOIN dispatches ON dispatches.id = dispatch_lines.dispatch_id").
		Joins("JOIN order_items ON order_items.id = dispatch_lines.order_item_id").
		Where("dispatches.status = ?", string(models.DispatchDelivered)).
		Select("order_items.item_name AS name, SUM(dispatch_lines.quantity) AS quantity").
		Group("order_items.item_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&totals).Error
	return totals, err
}
