package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderItem struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	OrderID      uint           `json:"order_id" gorm:"not null;index"`
	ItemName     string         `json:"item_name" gorm:"not null"`
	GSM          string         `json:"gsm"`
	ColourTop    string         `json:"colour_top"`
	ColourBottom string         `json:"colour_bottom"`
	Length       float64        `json:"length"`
	Width        float64        `json:"width"`
	Weight       float64        `json:"weight"` // roll goods carry width+weight instead of length+width
	Quantity     int            `json:"quantity" gorm:"not null"`
	Unit         string         `json:"unit" gorm:"not null"` // piece, meter, yard, roll, bundle
	PcsPerUnit   int            `json:"pcs_per_unit" gorm:"default:1"`
	Variant      string         `json:"variant"`
	Remarks      string         `json:"remarks" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type Unit string

const (
	UnitPiece  Unit = "piece"
	UnitMeter  Unit = "meter"
	UnitYard   Unit = "yard"
	UnitRoll   Unit = "roll"
	UnitBundle Unit = "bundle"
)

// ValidUnit reports whether u is one of the fixed units of measure.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitPiece, UnitMeter, UnitYard, UnitRoll, UnitBundle:
		return true
	}
	return false
}

// TotalPieces is the derived piece count, recomputed on every read.
func (i *OrderItem) TotalPieces() int {
	pcs := i.PcsPerUnit
	if pcs < 1 {
		pcs = 1
	}
	return i.Quantity * pcs
}

// Area returns length x width for display and reporting, or 0 when
// either dimension is missing (roll goods).
func (i *OrderItem) Area() float64 {
	if i.Length <= 0 || i.Width <= 0 {
		return 0
	}
	return i.Length * i.Width
}
