package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ItemID       string          `json:"item_id" gorm:"unique;not null"`
	Name         string          `json:"name" gorm:"not null"`
	Category     string          `json:"category" gorm:"not null;index"` // raw_material, finished_product
	Supplier     string          `json:"supplier"`
	Type         string          `json:"type"`
	Width        float64         `json:"width"`
	Length       float64         `json:"length"`
	Stock        int             `json:"stock" gorm:"not null;default:0"`
	Unit         string          `json:"unit"`
	ReorderLevel *int            `json:"reorder_level"` // nil means never alert
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Remarks      string          `json:"remarks" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

type InventoryCategory string

const (
	CategoryRawMaterial     InventoryCategory = "raw_material"
	CategoryFinishedProduct InventoryCategory = "finished_product"
)

type StockStatus string

const (
	InStock    StockStatus = "IN_STOCK"
	LowStock   StockStatus = "LOW_STOCK"
	OutOfStock StockStatus = "OUT_OF_STOCK"
)

// StockStatusFor derives the stock status from its inputs. It is never
// stored; callers recompute it on every read so it cannot drift from
// the stock level.
func StockStatusFor(stock int, reorderLevel *int) StockStatus {
	if stock <= 0 {
		return OutOfStock
	}
	if reorderLevel != nil && stock <= *reorderLevel {
		return LowStock
	}
	return InStock
}

// Status returns the derived stock status of the item.
func (i *InventoryItem) Status() StockStatus {
	return StockStatusFor(i.Stock, i.ReorderLevel)
}

// PriceWithGST returns the GST-inclusive price for display. The rate is
// a percentage, e.g. 18 for 18%.
func (i *InventoryItem) PriceWithGST(rate decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return i.Price.Mul(hundred.Add(rate)).Div(hundred).Round(2)
}

// ThresholdRatio returns stock divided by reorder level, used to rank
// low-stock alerts by urgency. Items without a threshold rank by raw
// stock against an implicit threshold of 1.
func (i *InventoryItem) ThresholdRatio() float64 {
	if i.ReorderLevel == nil || *i.ReorderLevel <= 0 {
		return float64(i.Stock)
	}
	return float64(i.Stock) / float64(*i.ReorderLevel)
}
