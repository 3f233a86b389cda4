package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/locking"
	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/redis"
	"tarp_ops/internal/repository"

	"gorm.io/gorm"
)

type ItemInput struct {
	ItemName     string  `json:"item_name"`
	GSM          string  `json:"gsm"`
	ColourTop    string  `json:"colour_top"`
	ColourBottom string  `json:"colour_bottom"`
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Weight       float64 `json:"weight"`
	Quantity     int     `json:"quantity"`
	Unit         string  `json:"unit"`
	PcsPerUnit   int     `json:"pcs_per_unit"`
	Variant      string  `json:"variant"`
	Remarks      string  `json:"remarks"`
}

type CreateOrderInput struct {
	CustomerName     string      `json:"customer_name"`
	CustomerAddress  string      `json:"customer_address"`
	CustomerWhatsapp string      `json:"customer_whatsapp"`
	SalesPerson      string      `json:"sales_person"`
	MainRemark       string      `json:"main_remark"`
	DeliveryMode     string      `json:"delivery_mode"`
	TransportName    string      `json:"transport_name"`
	TransportContact string      `json:"transport_contact"`
	DueDate          *time.Time  `json:"due_date"`
	Items            []ItemInput `json:"items"`
}

// OrderItemView decorates an item with the derived piece count and
// sheet area for read endpoints.
type OrderItemView struct {
	models.OrderItem
	TotalPieces int     `json:"total_pieces"`
	Area        float64 `json:"area"`
}

// OrderView is the single-order read payload. Items shadows the
// embedded order's items with their decorated form.
type OrderView struct {
	models.Order
	Items []OrderItemView `json:"items"`
}

func NewOrderView(order *models.Order) *OrderView {
	view := &OrderView{Order: *order, Items: make([]OrderItemView, 0, len(order.Items))}
	for _, item := range order.Items {
		view.Items = append(view.Items, OrderItemView{
			OrderItem:   item,
			TotalPieces: item.TotalPieces(),
			Area:        item.Area(),
		})
	}
	return view
}

type OrderService interface {
	CreateOrder(input CreateOrderInput) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)
	ListOrders(filter repository.OrderFilter, p pagination.Params) (pagination.Page[models.Order], error)
	AddItem(orderID uint, input ItemInput) (*models.OrderItem, error)
	EditItem(orderID, itemID uint, input ItemInput) (*models.OrderItem, error)
	RemoveItem(orderID, itemID uint) error
	SetDeliveryMode(orderID uint, mode models.DeliveryMode, transportName, transportContact string) (*models.Order, error)
	UpdateStatus(orderID uint, next models.OrderStatus) (*models.Order, error)
	SetDelayed(orderID uint, delayed bool) (*models.Order, error)
	DeleteOrder(id uint) error
}

type orderService struct {
	orderRepo    repository.OrderRepository
	itemRepo     repository.OrderItemRepository
	dispatchRepo repository.DispatchRepository
	locks        *locking.Keyed
	cache        *redis.Client
}

// NewOrderService builds the order service. cache may be nil; it is
// only used to drop the cached dashboard summary after writes.
func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	dispatchRepo repository.DispatchRepository,
	locks *locking.Keyed,
	cache *redis.Client,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		dispatchRepo: dispatchRepo,
		locks:        locks,
		cache:        cache,
	}
}

func (s *orderService) invalidateDashboard() {
	if s.cache != nil {
		_ = s.cache.InvalidateSummary("dashboard")
	}
}

func orderLockKey(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

func validateItemInput(input ItemInput) error {
	if input.ItemName == "" {
		return apperrors.Validation("order_item", "", "item_name is required")
	}
	if input.Quantity <= 0 {
		return apperrors.Validation("order_item", "", "quantity must be greater than zero")
	}
	if !models.ValidUnit(models.Unit(input.Unit)) {
		return apperrors.Validation("order_item", "", "unit must be one of piece, meter, yard, roll, bundle")
	}
	if input.PcsPerUnit < 0 {
		return apperrors.Validation("order_item", "", "pcs_per_unit must be at least 1 when present")
	}
	return nil
}

func itemFromInput(orderID uint, input ItemInput) *models.OrderItem {
	pcs := input.PcsPerUnit
	if pcs == 0 {
		pcs = 1
	}
	return &models.OrderItem{
		OrderID:      orderID,
		ItemName:     input.ItemName,
		GSM:          input.GSM,
		ColourTop:    input.ColourTop,
		ColourBottom: input.ColourBottom,
		Length:       input.Length,
		Width:        input.Width,
		Weight:       input.Weight,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		PcsPerUnit:   pcs,
		Variant:      input.Variant,
		Remarks:      input.Remarks,
	}
}

func (s *orderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.CustomerName == "" {
		return nil, apperrors.Validation("order", "", "customer_name is required")
	}
	mode := models.DeliveryMode(input.DeliveryMode)
	if input.DeliveryMode == "" {
		mode = models.ModeExFactory
	}
	if !models.ValidDeliveryMode(mode) {
		return nil, apperrors.Validation("order", "", "delivery_mode must be one of ex_factory, for_delivery, transport")
	}
	if mode == models.ModeTransport && input.TransportName == "" {
		return nil, apperrors.Validation("order", "", "transport_name is required for transport delivery")
	}
	for _, item := range input.Items {
		if err := validateItemInput(item); err != nil {
			return nil, err
		}
	}

	orderNumber, err := s.nextOrderNumber()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:      orderNumber,
		CustomerName:     input.CustomerName,
		CustomerAddress:  input.CustomerAddress,
		CustomerWhatsapp: input.CustomerWhatsapp,
		SalesPerson:      input.SalesPerson,
		MainRemark:       input.MainRemark,
		DeliveryMode:     string(mode),
		TransportName:    input.TransportName,
		TransportContact: input.TransportContact,
		DueDate:          input.DueDate,
		Status:           string(models.OrderPending),
	}
	if mode != models.ModeTransport {
		order.TransportName = ""
		order.TransportContact = ""
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, *itemFromInput(0, item))
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.invalidateDashboard()
	return order, nil
}

func (s *orderService) nextOrderNumber() (string, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	last, err := s.orderRepo.LatestOrderNumber(midnight)
	if err != nil {
		return "", fmt.Errorf("failed to read last order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), nextSequence(last)), nil
}

// nextSequence extracts the numeric suffix of the day's highest issued
// number and advances it. Deriving from the maximum rather than a row
// count keeps numbers unique across same-day deletions.
func nextSequence(last string) int {
	if last == "" {
		return 1
	}
	n, err := strconv.Atoi(last[strings.LastIndex(last, "-")+1:])
	if err != nil {
		return 1
	}
	return n + 1
}

func (s *orderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, orderNotFound(id, err)
	}
	return order, nil
}

func (s *orderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order", orderNumber)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(filter repository.OrderFilter, p pagination.Params) (pagination.Page[models.Order], error) {
	orders, total, err := s.orderRepo.List(filter, p)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.New(orders, total, p), nil
}

// loadMutableOrder fetches the order and rejects the mutation when it
// is in a terminal state.
func (s *orderService) loadMutableOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, orderNotFound(orderID, err)
	}
	if models.OrderStatus(order.Status).IsTerminal() {
		return nil, apperrors.OrderLocked(order.OrderNumber, order.Status)
	}
	return order, nil
}

func (s *orderService) AddItem(orderID uint, input ItemInput) (*models.OrderItem, error) {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	if _, err := s.loadMutableOrder(orderID); err != nil {
		return nil, err
	}
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	item := itemFromInput(orderID, input)
	if err := s.itemRepo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return item, nil
}

func (s *orderService) EditItem(orderID, itemID uint, input ItemInput) (*models.OrderItem, error) {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	if _, err := s.loadMutableOrder(orderID); err != nil {
		return nil, err
	}
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil || item.OrderID != orderID {
		return nil, apperrors.NotFound("order_item", fmt.Sprint(itemID))
	}

	// The ordered quantity is a delivery budget; it cannot shrink
	// below what shipments have already booked against it.
	if input.Quantity < item.Quantity {
		committed, err := s.dispatchRepo.CommittedQuantity(itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum committed quantity: %w", err)
		}
		if input.Quantity < committed {
			return nil, apperrors.ItemCommitted(fmt.Sprint(itemID), input.Quantity, committed)
		}
	}

	updated := itemFromInput(orderID, input)
	updated.ID = item.ID
	updated.CreatedAt = item.CreatedAt
	if err := s.itemRepo.Update(updated); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return updated, nil
}

func (s *orderService) RemoveItem(orderID, itemID uint) error {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	if _, err := s.loadMutableOrder(orderID); err != nil {
		return err
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil || item.OrderID != orderID {
		return apperrors.NotFound("order_item", fmt.Sprint(itemID))
	}

	// An item with shipment lines stays; deleting it would orphan the
	// lines and drop it from the delivered-vs-ordered reconciliation.
	committed, err := s.dispatchRepo.CommittedQuantity(itemID)
	if err != nil {
		return fmt.Errorf("failed to sum committed quantity: %w", err)
	}
	if committed > 0 {
		return apperrors.ItemCommitted(fmt.Sprint(itemID), 0, committed)
	}
	return s.itemRepo.Delete(itemID)
}

func (s *orderService) SetDeliveryMode(orderID uint, mode models.DeliveryMode, transportName, transportContact string) (*models.Order, error) {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	order, err := s.loadMutableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !models.ValidDeliveryMode(mode) {
		return nil, apperrors.Validation("order", order.OrderNumber, "delivery_mode must be one of ex_factory, for_delivery, transport")
	}
	if mode == models.ModeTransport && transportName == "" {
		return nil, apperrors.Validation("order", order.OrderNumber, "transport_name is required for transport delivery")
	}
	if mode != models.ModeTransport {
		transportName = ""
		transportContact = ""
	}

	if err := s.orderRepo.SetDeliveryMode(orderID, string(mode), transportName, transportContact); err != nil {
		return nil, fmt.Errorf("failed to set delivery mode: %w", err)
	}
	return s.orderRepo.GetByID(orderID)
}

// UpdateStatus drives the order lifecycle. Re-applying the current
// status is a no-op; everything else follows the transition table plus
// the per-transition guards.
func (s *orderService) UpdateStatus(orderID uint, next models.OrderStatus) (*models.Order, error) {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, orderNotFound(orderID, err)
	}
	current := models.OrderStatus(order.Status)

	if next == current {
		return order, nil
	}
	if !models.ValidOrderStatus(next) {
		return nil, apperrors.Validation("order", order.OrderNumber, "unknown order status")
	}
	if !current.CanTransition(next) {
		return nil, apperrors.InvalidTransition("order", order.OrderNumber, order.Status, current.AllowedTransitions())
	}

	switch next {
	case models.OrderProcessing:
		if len(order.Items) == 0 {
			return nil, apperrors.InvalidTransition("order", order.OrderNumber, order.Status, nil)
		}
	case models.OrderDispatched:
		count, err := s.dispatchRepo.CountByOrderID(orderID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperrors.InvalidTransition("order", order.OrderNumber, order.Status, nil)
		}
	case models.OrderCompleted:
		done, err := allItemsDelivered(order.Items, s.dispatchRepo)
		if err != nil {
			return nil, err
		}
		if !done {
			return nil, apperrors.InvalidTransition("order", order.OrderNumber, order.Status, nil)
		}
	}

	// Cancelling leaves dispatch history untouched; only the order's
	// own status changes.
	if err := s.orderRepo.UpdateStatus(orderID, string(next)); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = string(next)
	s.invalidateDashboard()
	return order, nil
}

func (s *orderService) SetDelayed(orderID uint, delayed bool) (*models.Order, error) {
	unlock := s.locks.Lock(orderLockKey(orderID))
	defer unlock()

	order, err := s.loadMutableOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetDelayed(orderID, delayed); err != nil {
		return nil, fmt.Errorf("failed to set delayed flag: %w", err)
	}
	order.Delayed = delayed
	return order, nil
}

func (s *orderService) DeleteOrder(id uint) error {
	if _, err := s.orderRepo.GetByID(id); err != nil {
		return orderNotFound(id, err)
	}
	if err := s.orderRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateDashboard()
	return nil
}

// allItemsDelivered reports whether every item's cumulative delivered
// quantity equals its ordered quantity. Orders with no items are never
// considered delivered.
func allItemsDelivered(items []models.OrderItem, dispatchRepo repository.DispatchRepository) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	for _, item := range items {
		delivered, err := dispatchRepo.DeliveredQuantity(item.ID)
		if err != nil {
			return false, err
		}
		if delivered < item.Quantity {
			return false, nil
		}
	}
	return true, nil
}

func orderNotFound(id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("order", fmt.Sprint(id))
	}
	return err
}
