package repository

import (
	"time"

	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"

	"gorm.io/gorm"
)

// CustomerTotal is one row of the customer analysis report.
type CustomerTotal struct {
	Name        string    `json:"name"`
	Orders      int64     `json:"orders"`
	LastOrderAt time.Time `json:"lastOrderAt"`
}

// OrderFilter combines free-text search with optional status and date
// range constraints, AND semantics.
type OrderFilter struct {
	Query    string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	Update(order *models.Order) error
	UpdateStatus(id uint, status string) error
	SetDelayed(id uint, delayed bool) error
	SetDeliveryMode(id uint, mode, transportName, transportContact string) error
	Delete(id uint) error
	List(filter OrderFilter, p pagination.Params) ([]models.Order, int64, error)
	// LatestOrderNumber returns the highest order number issued at or
	// after since, soft-deleted orders included so their numbers are
	// never reissued. Empty string when the day has no orders yet.
	LatestOrderNumber(since time.Time) (string, error)
	// CustomerTotals groups order counts per customer since the given
	// time, busiest customers first.
	CustomerTotals(since time.Time, limit int) ([]CustomerTotal, error)
	// CountByStatus groups order counts by status, optionally limited
	// to orders created at or after since.
	CountByStatus(since *time.Time) (map[string]int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *orderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) SetDelayed(id uint, delayed bool) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("delayed", delayed).Error
}

// SetDeliveryMode writes the mode and transport details in a single
// UPDATE so a concurrent reader can never observe a half-applied mode.
func (r *orderRepository) SetDeliveryMode(id uint, mode, transportName, transportContact string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"delivery_mode":     mode,
		"transport_name":    transportName,
		"transport_contact": transportContact,
	}).Error
}

func (r *orderRepository) Delete(id uint) error {
	return r.db.Delete(&models.Order{}, id).Error
}

func (r *orderRepository) List(filter OrderFilter, p pagination.Params) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ? OR sales_person ILIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) LatestOrderNumber(since time.Time) (string, error) {
	var numbers []string
	err := r.db.Unscoped().Model(&models.Order{}).
		Where("created_at >= ?", since).
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

func (r *orderRepository) CustomerTotals(since time.Time, limit int) ([]CustomerTotal, error) {
	var totals []CustomerTotal
	err := r.db.Model(&models.Order{}).
		Select("customer_name as name, count(*) as orders, max(created_at) as last_order_at").
		Where("created_at >= ?", since).
		Group("customer_name").
		Order("orders DESC, name ASC").
		Limit(limit).
		Scan(&totals).Error
	return totals, err
}

func (r *orderRepository) CountByStatus(since *time.Time) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	query := r.db.Model(&models.Order{})
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var rows []row
	err := query.
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
