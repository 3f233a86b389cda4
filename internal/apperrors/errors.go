package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a business-rule failure so callers can react without
// parsing messages.
type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindOrderLocked          Kind = "ORDER_LOCKED"
	KindOrderNotDispatchable Kind = "ORDER_NOT_DISPATCHABLE"
	KindOverDelivery         Kind = "OVER_DELIVERY"
	KindInvalidAdjustment    Kind = "INVALID_ADJUSTMENT"
)

// Error carries the failure kind plus the entity and limits involved,
// enough for a handler to render a precise message.
type Error struct {
	Kind     Kind
	Entity   string
	EntityID string
	Message  string
	// Current and Allowed describe the state machine position for
	// transition failures.
	Current string
	Allowed []string
	// Requested and Remaining describe quantity-budget failures.
	Requested int
	Remaining int
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Entity != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Entity, e.EntityID)
	}
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " [current=%s allowed=%s]", e.Current, strings.Join(e.Allowed, ","))
	}
	return b.String()
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func Validation(entity, id, message string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, EntityID: id, Message: message}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, EntityID: id, Message: "not found"}
}

func InvalidTransition(entity, id, current string, allowed []string) *Error {
	return &Error{
		Kind:     KindInvalidTransition,
		Entity:   entity,
		EntityID: id,
		Message:  "status transition not permitted",
		Current:  current,
		Allowed:  allowed,
	}
}

func OrderLocked(id, status string) *Error {
	return &Error{
		Kind:     KindOrderLocked,
		Entity:   "order",
		EntityID: id,
		Message:  "order is in a terminal state and cannot be modified",
		Current:  status,
	}
}

func OrderNotDispatchable(id, status string) *Error {
	return &Error{
		Kind:     KindOrderNotDispatchable,
		Entity:   "order",
		EntityID: id,
		Message:  "order status does not permit dispatch",
		Current:  status,
	}
}

func OverDelivery(itemID string, requested, remaining int) *Error {
	return &Error{
		Kind:      KindOverDelivery,
		Entity:    "order_item",
		EntityID:  itemID,
		Message:   fmt.Sprintf("requested %d exceeds remaining deliverable quantity %d", requested, remaining),
		Requested: requested,
		Remaining: remaining,
	}
}

// ItemCommitted reports an item mutation blocked by quantities already
// booked on shipments. Requested is the attempted new quantity, zero
// for a removal.
func ItemCommitted(itemID string, requested, committed int) *Error {
	return &Error{
		Kind:      KindOverDelivery,
		Entity:    "order_item",
		EntityID:  itemID,
		Message:   fmt.Sprintf("%d pieces are already committed to shipments", committed),
		Requested: requested,
		Remaining: committed,
	}
}

func InvalidAdjustment(itemID string, requested, stock int) *Error {
	return &Error{
		Kind:      KindInvalidAdjustment,
		Entity:    "inventory_item",
		EntityID:  itemID,
		Message:   fmt.Sprintf("adjustment by %d would take stock %d below zero", requested, stock),
		Requested: requested,
		Remaining: stock,
	}
}
