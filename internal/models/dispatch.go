package models

import (
	"time"

	"gorm.io/gorm"
)

type Dispatch struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	DispatchID      string         `json:"dispatch_id" gorm:"unique;not null"`
	OrderID         uint           `json:"order_id" gorm:"not null;index"`
	Customer        string         `json:"customer"`
	Carrier         string         `json:"carrier"`
	TrackingID      string         `json:"tracking_id"`
	LoadingDate     *time.Time     `json:"loading_date"`
	DriverName      string         `json:"driver_name"`
	DriverNumber    string         `json:"driver_number"`
	CarNumber       string         `json:"car_number"`
	ShippingAddress string         `json:"shipping_address"`
	Transportation  string         `json:"transportation"`
	PackageDetails  string         `json:"package_details"`
	Remarks         string         `json:"remarks" gorm:"type:text"`
	Status          string         `json:"status" gorm:"default:'READY_FOR_PICKUP'"`
	Lines           []DispatchLine `json:"lines" gorm:"foreignKey:DispatchID;references:ID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// DispatchLine records the quantity of one order item carried by a
// dispatch. Lines are retained even when the parent order is cancelled
// so delivered-quantity history survives for audit.
type DispatchLine struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DispatchID  uint      `json:"dispatch_id" gorm:"not null;index"`
	OrderItemID uint      `json:"order_item_id" gorm:"not null;index"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

type DispatchStatus string

const (
	DispatchReadyForPickup DispatchStatus = "READY_FOR_PICKUP"
	DispatchInTransit      DispatchStatus = "IN_TRANSIT"
	DispatchDelivered      DispatchStatus = "DELIVERED"
	DispatchDelayed        DispatchStatus = "DELAYED"
)

// dispatchTransitions lists the legal next statuses per status. A
// delayed shipment may recover to IN_TRANSIT or be delivered directly;
// DELIVERED is terminal.
var dispatchTransitions = map[DispatchStatus][]DispatchStatus{
	DispatchReadyForPickup: {DispatchInTransit, DispatchDelayed},
	DispatchInTransit:      {DispatchDelivered, DispatchDelayed},
	DispatchDelayed:        {DispatchInTransit, DispatchDelivered},
}

// CanTransition reports whether next is reachable from s in one step.
func (s DispatchStatus) CanTransition(next DispatchStatus) bool {
	for _, allowed := range dispatchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses as strings.
func (s DispatchStatus) AllowedTransitions() []string {
	next := dispatchTransitions[s]
	out := make([]string, len(next))
	for i, n := range next {
		out[i] = string(n)
	}
	return out
}

// ValidDispatchStatus reports whether s is a known status value.
func ValidDispatchStatus(s DispatchStatus) bool {
	switch s {
	case DispatchReadyForPickup, DispatchInTransit, DispatchDelivered, DispatchDelayed:
		return true
	}
	return false
}
