package services

import (
	"sort"
	"strings"
	"time"

	"tarp_ops/internal/models"
	"tarp_ops/internal/pagination"
	"tarp_ops/internal/repository"

	"gorm.io/gorm"
)

// fakeState is the shared backing store for the in-memory repository
// fakes used across the service tests.
type fakeState struct {
	orders     map[uint]*models.Order
	items      map[uint]*models.OrderItem
	dispatches map[uint]*models.Dispatch
	inventory  map[uint]*models.InventoryItem
	nextID     uint
	// issued numbers survive deletion, mirroring soft-deleted rows
	orderNumbers []string
	dispatchIDs  []string
}

func newFakeState() *fakeState {
	return &fakeState{
		orders:     map[uint]*models.Order{},
		items:      map[uint]*models.OrderItem{},
		dispatches: map[uint]*models.Dispatch{},
		inventory:  map[uint]*models.InventoryItem{},
	}
}

func (st *fakeState) id() uint {
	st.nextID++
	return st.nextID
}

func (st *fakeState) itemsForOrder(orderID uint) []models.OrderItem {
	var items []models.OrderItem
	for _, item := range st.items {
		if item.OrderID == orderID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (st *fakeState) orderCopy(order *models.Order) *models.Order {
	copied := *order
	copied.Items = st.itemsForOrder(order.ID)
	return &copied
}

// --- order repository ---

type fakeOrderRepo struct{ st *fakeState }

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

func (f *fakeOrderRepo) Create(order *models.Order) error {
	order.ID = f.st.id()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	items := order.Items
	order.Items = nil
	for i := range items {
		items[i].ID = f.st.id()
		items[i].OrderID = order.ID
		item := items[i]
		f.st.items[item.ID] = &item
	}
	stored := *order
	f.st.orders[order.ID] = &stored
	f.st.orderNumbers = append(f.st.orderNumbers, order.OrderNumber)
	order.Items = f.st.itemsForOrder(order.ID)
	return nil
}

func (f *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	order, ok := f.st.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.st.orderCopy(order), nil
}

func (f *fakeOrderRepo) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	for _, order := range f.st.orders {
		if order.OrderNumber == orderNumber {
			return f.st.orderCopy(order), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) Update(order *models.Order) error {
	if _, ok := f.st.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *order
	stored.Items = nil
	f.st.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(id uint, status string) error {
	order, ok := f.st.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrderRepo) SetDelayed(id uint, delayed bool) error {
	order, ok := f.st.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Delayed = delayed
	return nil
}

func (f *fakeOrderRepo) SetDeliveryMode(id uint, mode, transportName, transportContact string) error {
	order, ok := f.st.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.DeliveryMode = mode
	order.TransportName = transportName
	order.TransportContact = transportContact
	return nil
}

func (f *fakeOrderRepo) Delete(id uint) error {
	delete(f.st.orders, id)
	return nil
}

func (f *fakeOrderRepo) List(filter repository.OrderFilter, p pagination.Params) ([]models.Order, int64, error) {
	var matched []models.Order
	for _, order := range f.st.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(order.OrderNumber, filter.Query) &&
			!strings.Contains(order.CustomerName, filter.Query) {
			continue
		}
		matched = append(matched, *f.st.orderCopy(order))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeOrderRepo) LatestOrderNumber(since time.Time) (string, error) {
	last := ""
	for _, number := range f.st.orderNumbers {
		if number > last {
			last = number
		}
	}
	return last, nil
}

func (f *fakeOrderRepo) CustomerTotals(since time.Time, limit int) ([]repository.CustomerTotal, error) {
	byName := map[string]*repository.CustomerTotal{}
	for _, order := range f.st.orders {
		if order.CreatedAt.Before(since) {
			continue
		}
		total, ok := byName[order.CustomerName]
		if !ok {
			total = &repository.CustomerTotal{Name: order.CustomerName}
			byName[order.CustomerName] = total
		}
		total.Orders++
		if order.CreatedAt.After(total.LastOrderAt) {
			total.LastOrderAt = order.CreatedAt
		}
	}
	var totals []repository.CustomerTotal
	for _, total := range byName {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Orders != totals[j].Orders {
			return totals[i].Orders > totals[j].Orders
		}
		return totals[i].Name < totals[j].Name
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

func (f *fakeOrderRepo) CountByStatus(since *time.Time) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, order := range f.st.orders {
		if since != nil && order.CreatedAt.Before(*since) {
			continue
		}
		counts[order.Status]++
	}
	return counts, nil
}

// --- order item repository ---

type fakeOrderItemRepo struct{ st *fakeState }

var _ repository.OrderItemRepository = (*fakeOrderItemRepo)(nil)

func (f *fakeOrderItemRepo) Create(item *models.OrderItem) error {
	item.ID = f.st.id()
	stored := *item
	f.st.items[item.ID] = &stored
	return nil
}

func (f *fakeOrderItemRepo) GetByID(id uint) (*models.OrderItem, error) {
	item, ok := f.st.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeOrderItemRepo) Update(item *models.OrderItem) error {
	if _, ok := f.st.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *item
	f.st.items[item.ID] = &stored
	return nil
}

func (f *fakeOrderItemRepo) Delete(id uint) error {
	delete(f.st.items, id)
	return nil
}

// --- dispatch repository ---

type fakeDispatchRepo struct{ st *fakeState }

var _ repository.DispatchRepository = (*fakeDispatchRepo)(nil)

func (f *fakeDispatchRepo) Create(dispatch *models.Dispatch) error {
	dispatch.ID = f.st.id()
	if dispatch.CreatedAt.IsZero() {
		dispatch.CreatedAt = time.Now()
	}
	for i := range dispatch.Lines {
		dispatch.Lines[i].ID = f.st.id()
		dispatch.Lines[i].DispatchID = dispatch.ID
	}
	stored := *dispatch
	stored.Lines = append([]models.DispatchLine(nil), dispatch.Lines...)
	f.st.dispatches[dispatch.ID] = &stored
	f.st.dispatchIDs = append(f.st.dispatchIDs, dispatch.DispatchID)
	return nil
}

func (f *fakeDispatchRepo) GetByID(id uint) (*models.Dispatch, error) {
	dispatch, ok := f.st.dispatches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *dispatch
	copied.Lines = append([]models.DispatchLine(nil), dispatch.Lines...)
	return &copied, nil
}

func (f *fakeDispatchRepo) Update(dispatch *models.Dispatch) error {
	if _, ok := f.st.dispatches[dispatch.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *dispatch
	stored.Lines = append([]models.DispatchLine(nil), dispatch.Lines...)
	f.st.dispatches[dispatch.ID] = &stored
	return nil
}

func (f *fakeDispatchRepo) UpdateStatus(id uint, status, trackingID, remarks string) error {
	dispatch, ok := f.st.dispatches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	dispatch.Status = status
	if trackingID != "" {
		dispatch.TrackingID = trackingID
	}
	if remarks != "" {
		dispatch.Remarks = remarks
	}
	return nil
}

func (f *fakeDispatchRepo) List(filter repository.DispatchFilter, p pagination.Params) ([]models.Dispatch, int64, error) {
	var matched []models.Dispatch
	for _, dispatch := range f.st.dispatches {
		if filter.Status != "" && dispatch.Status != filter.Status {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(dispatch.DispatchID, filter.Query) &&
			!strings.Contains(dispatch.Customer, filter.Query) {
			continue
		}
		copied := *dispatch
		matched = append(matched, copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeDispatchRepo) CountByOrderID(orderID uint) (int64, error) {
	var count int64
	for _, dispatch := range f.st.dispatches {
		if dispatch.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (f *fakeDispatchRepo) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	for _, dispatch := range f.st.dispatches {
		if !dispatch.CreatedAt.Before(t) {
			count++
		}
	}
	return count, nil
}

func (f *fakeDispatchRepo) LatestDispatchID(since time.Time) (string, error) {
	last := ""
	for _, id := range f.st.dispatchIDs {
		if id > last {
			last = id
		}
	}
	return last, nil
}

func (f *fakeDispatchRepo) RecentSince(t time.Time, limit int) ([]models.Dispatch, error) {
	var recent []models.Dispatch
	for _, dispatch := range f.st.dispatches {
		if !dispatch.CreatedAt.Before(t) {
			recent = append(recent, *dispatch)
		}
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].ID > recent[j].ID })
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (f *fakeDispatchRepo) CommittedQuantity(orderItemID uint) (int, error) {
	total := 0
	for _, dispatch := range f.st.dispatches {
		for _, line := range dispatch.Lines {
			if line.OrderItemID == orderItemID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (f *fakeDispatchRepo) DeliveredQuantity(orderItemID uint) (int, error) {
	total := 0
	for _, dispatch := range f.st.dispatches {
		if dispatch.Status != string(models.DispatchDelivered) {
			continue
		}
		for _, line := range dispatch.Lines {
			if line.OrderItemID == orderItemID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (f *fakeDispatchRepo) TopDeliveredProducts(limit int) ([]repository.ProductTotal, error) {
	totals := map[string]int64{}
	for _, dispatch := range f.st.dispatches {
		if dispatch.Status != string(models.DispatchDelivered) {
			continue
		}
		for _, line := range dispatch.Lines {
			item, ok := f.st.items[line.OrderItemID]
			if !ok {
				continue
			}
			totals[item.ItemName] += int64(line.Quantity)
		}
	}
	var result []repository.ProductTotal
	for name, qty := range totals {
		result = append(result, repository.ProductTotal{Name: name, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- inventory repository ---

type fakeInventoryRepo struct{ st *fakeState }

var _ repository.InventoryRepository = (*fakeInventoryRepo)(nil)

func (f *fakeInventoryRepo) Create(item *models.InventoryItem) error {
	item.ID = f.st.id()
	stored := *item
	f.st.inventory[item.ID] = &stored
	return nil
}

func (f *fakeInventoryRepo) GetByID(id uint) (*models.InventoryItem, error) {
	item, ok := f.st.inventory[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventoryRepo) GetByItemID(itemID string) (*models.InventoryItem, error) {
	for _, item := range f.st.inventory {
		if item.ItemID == itemID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInventoryRepo) FindFinishedProductByName(name string) (*models.InventoryItem, error) {
	for _, item := range f.st.inventory {
		if item.Category == string(models.CategoryFinishedProduct) && item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInventoryRepo) Update(item *models.InventoryItem) error {
	if _, ok := f.st.inventory[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *item
	f.st.inventory[item.ID] = &stored
	return nil
}

func (f *fakeInventoryRepo) Delete(id uint) error {
	delete(f.st.inventory, id)
	return nil
}

func (f *fakeInventoryRepo) List(filter repository.InventoryFilter, p pagination.Params) ([]models.InventoryItem, int64, error) {
	var matched []models.InventoryItem
	for _, item := range f.st.inventory {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Status != "" && string(item.Status()) != filter.Status {
			continue
		}
		if filter.Query != "" &&
			!strings.Contains(item.Name, filter.Query) &&
			!strings.Contains(item.ItemID, filter.Query) {
			continue
		}
		matched = append(matched, *item)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeInventoryRepo) ListLowStock() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	for _, item := range f.st.inventory {
		status := item.Status()
		if status == models.LowStock || status == models.OutOfStock {
			items = append(items, *item)
		}
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

func (f *fakeInventoryRepo) AdjustStock(id uint, delta int) (bool, error) {
	item, ok := f.st.inventory[id]
	if !ok {
		return false, nil
	}
	if item.Stock+delta < 0 {
		return false, nil
	}
	item.Stock += delta
	return true, nil
}

func (f *fakeInventoryRepo) DecrementStock(id uint, qty int) error {
	item, ok := f.st.inventory[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Stock -= qty
	if item.Stock < 0 {
		item.Stock = 0
	}
	return nil
}

func (f *fakeInventoryRepo) CountByCategory(category string) (int64, error) {
	var count int64
	for _, item := range f.st.inventory {
		if item.Category == category {
			count++
		}
	}
	return count, nil
}

func (f *fakeInventoryRepo) CountLowStock() (int64, error) {
	items, _ := f.ListLowStock()
	return int64(len(items)), nil
}
