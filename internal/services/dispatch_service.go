package services

import (
	"errors"
	"fmt"
	"time"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/locking"
	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/redis"
	"tarp_ops/internal/repository"

	"gorm.io/gorm"
)

type DispatchLineInput struct {
	OrderItemID uint `json:"order_item_id"`
	Quantity    int  `json:"quantity"`
}

type CreateDispatchInput struct {
	OrderID         uint                `json:"order_id"`
	LoadingDate     *time.Time          `json:"loading_date"`
	DriverName      string              `json:"driver_name"`
	DriverNumber    string              `json:"driver_number"`
	CarNumber       string              `json:"car_number"`
	ShippingAddress string              `json:"shipping_address"`
	Carrier         string              `json:"carrier"`
	Transportation  string              `json:"transportation"`
	PackageDetails  string              `json:"package_details"`
	Remarks         string              `json:"remarks"`
	Lines           []DispatchLineInput `json:"lines"`
}

// TodaySummary is the dispatch handler's /today payload.
type TodaySummary struct {
	TodaysDispatches int64             `json:"todaysDispatches"`
	RecentDispatches []models.Dispatch `json:"recentDispatches"`
}

type DispatchService interface {
	CreateDispatch(input CreateDispatchInput) (*models.Dispatch, error)
	GetDispatch(id uint) (*models.Dispatch, error)
	ListDispatches(filter repository.DispatchFilter, p pagination.Params) (pagination.Page[models.Dispatch], error)
	AdvanceStatus(id uint, next models.DispatchStatus, trackingID, remarks string) (*models.Dispatch, error)
	Today(recentLimit int) (*TodaySummary, error)
}

type dispatchService struct {
	dispatchRepo  repository.DispatchRepository
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	locks         *locking.Keyed
	cache         *redis.Client
}

// NewDispatchService builds the dispatch service. cache may be nil.
func NewDispatchService(
	dispatchRepo repository.DispatchRepository,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	locks *locking.Keyed,
	cache *redis.Client,
) DispatchService {
	return &dispatchService{
		dispatchRepo:  dispatchRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		locks:         locks,
		cache:         cache,
	}
}

func (s *dispatchService) invalidateDashboard() {
	if s.cache != nil {
		_ = s.cache.InvalidateSummary("dashboard")
	}
}

// CreateDispatch books quantities against the order's remaining
// delivery budget. The whole check runs under the order's lock so two
// racing dispatches cannot both fit into the same remainder.
func (s *dispatchService) CreateDispatch(input CreateDispatchInput) (*models.Dispatch, error) {
	unlock := s.locks.Lock(orderLockKey(input.OrderID))
	defer unlock()

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, orderNotFound(input.OrderID, err)
	}

	status := models.OrderStatus(order.Status)
	if status == models.OrderPending || status == models.OrderCancelled {
		return nil, apperrors.OrderNotDispatchable(order.OrderNumber, order.Status)
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.Validation("dispatch", "", "at least one line is required")
	}

	itemsByID := make(map[uint]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		itemsByID[item.ID] = item
	}

	lines := make([]models.DispatchLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		item, ok := itemsByID[line.OrderItemID]
		if !ok {
			return nil, apperrors.NotFound("order_item", fmt.Sprint(line.OrderItemID))
		}
		if line.Quantity <= 0 {
			return nil, apperrors.Validation("dispatch", "", "line quantity must be greater than zero")
		}
		committed, err := s.dispatchRepo.CommittedQuantity(line.OrderItemID)
		if err != nil {
			return nil, err
		}
		if committed+line.Quantity > item.Quantity {
			return nil, apperrors.OverDelivery(fmt.Sprint(line.OrderItemID), line.Quantity, item.Quantity-committed)
		}
		lines = append(lines, models.DispatchLine{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	dispatchID, err := s.nextDispatchID()
	if err != nil {
		return nil, err
	}

	dispatch := &models.Dispatch{
		DispatchID:      dispatchID,
		OrderID:         order.ID,
		Customer:        order.CustomerName,
		Carrier:         input.Carrier,
		LoadingDate:     input.LoadingDate,
		DriverName:      input.DriverName,
		DriverNumber:    input.DriverNumber,
		CarNumber:       input.CarNumber,
		ShippingAddress: input.ShippingAddress,
		Transportation:  input.Transportation,
		PackageDetails:  input.PackageDetails,
		Remarks:         input.Remarks,
		Status:          string(models.DispatchReadyForPickup),
		Lines:           lines,
	}
	if err := s.dispatchRepo.Create(dispatch); err != nil {
		return nil, fmt.Errorf("failed to create dispatch: %w", err)
	}
	s.invalidateDashboard()
	return dispatch, nil
}

func (s *dispatchService) nextDispatchID() (string, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	last, err := s.dispatchRepo.LatestDispatchID(midnight)
	if err != nil {
		return "", fmt.Errorf("failed to read last dispatch id: %w", err)
	}
	return fmt.Sprintf("DSP-%s-%04d", now.Format("20060102"), nextSequence(last)), nil
}

func (s *dispatchService) GetDispatch(id uint) (*models.Dispatch, error) {
	dispatch, err := s.dispatchRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("dispatch", fmt.Sprint(id))
		}
		return nil, err
	}
	return dispatch, nil
}

func (s *dispatchService) ListDispatches(filter repository.DispatchFilter, p pagination.Params) (pagination.Page[models.Dispatch], error) {
	dispatches, total, err := s.dispatchRepo.List(filter, p)
	if err != nil {
		return pagination.Page[models.Dispatch]{}, err
	}
	return pagination.New(dispatches, total, p), nil
}

// AdvanceStatus moves a shipment along
// READY_FOR_PICKUP -> IN_TRANSIT -> DELIVERED, with DELAYED as a
// recoverable detour. Reaching DELIVERED decrements finished-product
// stock and may complete the parent order.
func (s *dispatchService) AdvanceStatus(id uint, next models.DispatchStatus, trackingID, remarks string) (*models.Dispatch, error) {
	dispatch, err := s.GetDispatch(id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderLockKey(dispatch.OrderID))
	defer unlock()

	// Re-read under the lock; a concurrent advance may have landed.
	dispatch, err = s.GetDispatch(id)
	if err != nil {
		return nil, err
	}
	current := models.DispatchStatus(dispatch.Status)

	if next == current {
		return dispatch, nil
	}
	if !models.ValidDispatchStatus(next) {
		return nil, apperrors.Validation("dispatch", dispatch.DispatchID, "unknown dispatch status")
	}
	if !current.CanTransition(next) {
		return nil, apperrors.InvalidTransition("dispatch", dispatch.DispatchID, dispatch.Status, current.AllowedTransitions())
	}

	if err := s.dispatchRepo.UpdateStatus(id, string(next), trackingID, remarks); err != nil {
		return nil, fmt.Errorf("failed to update dispatch status: %w", err)
	}
	dispatch.Status = string(next)
	if trackingID != "" {
		dispatch.TrackingID = trackingID
	}
	if remarks != "" {
		dispatch.Remarks = remarks
	}

	if next == models.DispatchDelivered {
		if err := s.onDelivered(dispatch); err != nil {
			return nil, err
		}
	}
	s.invalidateDashboard()
	return dispatch, nil
}

// onDelivered applies the delivery side effects: finished-product stock
// goes down by the delivered quantities, then the parent order is
// completed automatically once every item is fully delivered.
func (s *dispatchService) onDelivered(dispatch *models.Dispatch) error {
	order, err := s.orderRepo.GetByID(dispatch.OrderID)
	if err != nil {
		return orderNotFound(dispatch.OrderID, err)
	}

	itemsByID := make(map[uint]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		itemsByID[item.ID] = item
	}

	for _, line := range dispatch.Lines {
		item, ok := itemsByID[line.OrderItemID]
		if !ok {
			continue
		}
		product, err := s.inventoryRepo.FindFinishedProductByName(item.ItemName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// No stock record for this product; nothing to decrement.
				continue
			}
			return err
		}
		if err := s.inventoryRepo.DecrementStock(product.ID, line.Quantity); err != nil {
			return fmt.Errorf("failed to decrement stock for %s: %w", product.ItemID, err)
		}
	}

	// A delivered shipment proves dispatch happened; pull a still
	// processing order forward so the completion check below can apply.
	status := models.OrderStatus(order.Status)
	if status == models.OrderProcessing {
		if err := s.orderRepo.UpdateStatus(order.ID, string(models.OrderDispatched)); err != nil {
			return fmt.Errorf("failed to mark order %s dispatched: %w", order.OrderNumber, err)
		}
		status = models.OrderDispatched
	}
	if status != models.OrderDispatched {
		return nil
	}
	done, err := allItemsDelivered(order.Items, s.dispatchRepo)
	if err != nil {
		return err
	}
	if done {
		if err := s.orderRepo.UpdateStatus(order.ID, string(models.OrderCompleted)); err != nil {
			return fmt.Errorf("failed to complete order %s: %w", order.OrderNumber, err)
		}
	}
	return nil
}

func (s *dispatchService) Today(recentLimit int) (*TodaySummary, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := s.dispatchRepo.CountCreatedSince(midnight)
	if err != nil {
		return nil, err
	}
	recent, err := s.dispatchRepo.RecentSince(midnight, recentLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Dispatch{}
	}
	return &TodaySummary{TodaysDispatches: count, RecentDispatches: recent}, nil
}
