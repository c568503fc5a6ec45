package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse represents a physical storage location within a company.
type Warehouse struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// StockLevel is a read view of a stock_item joined with SKU and warehouse info.
type StockLevel struct {
	SKUCode       string          `json:"sku_code"`
	SKUName       string          `json:"sku_name"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	OnHand        decimal.Decimal `json:"on_hand"`
	UnitCost      decimal.Decimal `json:"unit_cost"` // weighted average receipt cost
}

// StockMovement is one row in the append-only movement audit trail.
type StockMovement struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	StockItemID  int             `json:"stock_item_id"`
	MovementType string          `json:"movement_type"` // RECEIPT, RMA_RESTOCK, ADJUSTMENT
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	MovementDate string          `json:"movement_date"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
}
