package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disposition decides what happens to a returned unit and which accounting
// entries the processing step books.
type Disposition string

const (
	// DispositionRestock returns the unit to sellable stock. Inventory only, no GL.
	DispositionRestock Disposition = "RESTOCK"
	// DispositionDisposal scraps the unit: DR disposal expense, CR inventory.
	DispositionDisposal Disposition = "DISPOSAL"
	// DispositionRTV sends the unit back to its vendor: DR RTV clearing, CR inventory.
	DispositionRTV Disposition = "RTV"
	// DispositionRepair routes the unit to repair: DR repair expense, CR inventory.
	DispositionRepair Disposition = "REPAIR"
)

// RMA statuses:
//
//	REQUESTED → RECEIVED → PROCESSED
//	REQUESTED → REJECTED
const (
	RMAStatusRequested = "REQUESTED"
	RMAStatusReceived  = "RECEIVED"
	RMAStatusProcessed = "PROCESSED"
	RMAStatusRejected  = "REJECTED"
)

// RMA is a return merchandise authorization against an issued invoice.
// Processing sizes a credit memo with the totals engine, posts the credit and
// per-disposition journals, and applies each line's disposition.
type RMA struct {
	ID               int             `json:"id"`
	CompanyID        int             `json:"company_id"`
	RMANumber        string          `json:"rma_number"`
	InvoiceID        int             `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	CustomerID       int             `json:"customer_id"`
	CustomerCode     string          `json:"customer_code"`
	CustomerName     string          `json:"customer_name"`
	Status           string          `json:"status"`
	Reason           string          `json:"reason"`
	CreditMemoNumber *string         `json:"credit_memo_number,omitempty"`
	CreditJournalID  *string         `json:"credit_journal_id,omitempty"`
	CreditAmount     decimal.Decimal `json:"credit_amount"`
	Lines            []RMALine       `json:"lines"`
	CreatedAt        time.Time       `json:"created_at"`
	ReceivedAt       *time.Time      `json:"received_at,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
}

// RMALine is one returned line. Qty may be less than the invoiced quantity.
// WarehouseCode is required for RESTOCK; VendorCode is required for RTV.
type RMALine struct {
	ID             int             `json:"id"`
	RMAID          int             `json:"rma_id"`
	LineNumber     int             `json:"line_number"`
	InvoiceLineID  int             `json:"invoice_line_id"`
	SKUID          int             `json:"sku_id"`
	SKUCode        string          `json:"sku_code"`
	Description    string          `json:"description"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Category       string          `json:"category"`
	Discountable   bool            `json:"discountable"`
	IsSurcharge    bool            `json:"is_surcharge"`
	Disposition    Disposition     `json:"disposition"`
	WarehouseCode  *string         `json:"warehouse_code,omitempty"`
	VendorCode     *string         `json:"vendor_code,omitempty"`
	DispositionRef *string         `json:"disposition_ref,omitempty"` // journal ID of the disposition posting
}

// RMALineInput is used when requesting an RMA.
type RMALineInput struct {
	InvoiceLineID int
	Qty           decimal.Decimal
	Disposition   Disposition
	WarehouseCode string
	VendorCode    string
}
