package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	OrderNumber      string         `json:"order_number" gorm:"unique;not null"`
	CustomerName     string         `json:"customer_name" gorm:"not null"`
	CustomerAddress  string         `json:"customer_address"`
	CustomerWhatsapp string         `json:"customer_whatsapp"`
	SalesPerson      string         `json:"sales_person"`
	MainRemark       string         `json:"main_remark" gorm:"type:text"`
	DeliveryMode     string         `json:"delivery_mode" gorm:"default:'ex_factory'"` // ex_factory, for_delivery, transport
	TransportName    string         `json:"transport_name"`
	TransportContact string         `json:"transport_contact"`
	DueDate          *time.Time     `json:"due_date"`
	Status           string         `json:"status" gorm:"default:'pending'"` // pending, processing, dispatched, completed, cancelled
	Delayed          bool           `json:"delayed" gorm:"default:false"`
	Items            []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDispatched OrderStatus = "dispatched"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

type DeliveryMode string

const (
	ModeExFactory   DeliveryMode = "ex_factory"
	ModeForDelivery DeliveryMode = "for_delivery"
	ModeTransport   DeliveryMode = "transport"
)

// orderTransitions lists the legal next statuses per status. Terminal
// statuses have no entries.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderDispatched, OrderCancelled},
	OrderDispatched: {OrderCompleted, OrderCancelled},
}

// IsTerminal reports whether no further transitions are permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses as strings, for
// error reporting.
func (s OrderStatus) AllowedTransitions() []string {
	next := orderTransitions[s]
	out := make([]string, len(next))
	for i, n := range next {
		out[i] = string(n)
	}
	return out
}

// ValidOrderStatus reports whether s is a canonical status value.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderDispatched, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// ValidDeliveryMode reports whether m is a known delivery mode.
func ValidDeliveryMode(m DeliveryMode) bool {
	switch m {
	case ModeExFactory, ModeForDelivery, ModeTransport:
		return true
	}
	return false
}
