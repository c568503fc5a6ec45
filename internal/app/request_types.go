package app

import (
	"github.com/shopspring/decimal"
)

// BillingLineInput is a single line within a CreateInvoiceRequest or
// CreateQuoteRequest.
type BillingLineInput struct {
	SKUCode     string
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal // zero means "use SKU default"
}

// BillingDiscountInput is a discount attached to an invoice or quote.
// Type is "percent" or "flat"; Scope is "all" or a SKU category name.
type BillingDiscountInput struct {
	Code        string
	Type        string
	Value       decimal.Decimal
	Scope       string
	Description string
}

// CreateInvoiceRequest is the input for creating a new DRAFT invoice.
type CreateInvoiceRequest struct {
	CompanyCode  string
	CustomerCode string
	Currency     string
	TaxRate      decimal.Decimal
	RoundingMode string // HALF_UP (default) or HALF_EVEN
	Notes        string
	Lines        []BillingLineInput
	Discounts    []BillingDiscountInput
}

// CreateQuoteRequest is the input for creating a new DRAFT quote.
type CreateQuoteRequest struct {
	CompanyCode  string
	CustomerCode string
	Currency     string
	TaxRate      decimal.Decimal
	ValidUntil   string // YYYY-MM-DD
	Notes        string
	Lines        []BillingLineInput
	Discounts    []BillingDiscountInput
}

// RecordPaymentRequest is the input for applying a payment to an issued invoice.
type RecordPaymentRequest struct {
	CompanyCode     string
	InvoiceNumber   string
	Amount          decimal.Decimal
	BankAccountCode string // optional; empty resolves the BANK account rule
	PaymentDate     string // YYYY-MM-DD; empty means today
	Method          string
	Reference       string
}

// CreateRMARequest is the input for opening a return authorization.
type CreateRMARequest struct {
	CompanyCode   string
	InvoiceNumber string
	Reason        string
	Lines         []RMALineInput
}

// RMALineInput is a single returned line within a CreateRMARequest.
// Disposition is RESTOCK, DISPOSAL, RTV, or REPAIR. WarehouseCode is required
// for RESTOCK; VendorCode is required for RTV.
type RMALineInput struct {
	InvoiceLineID int
	Qty           decimal.Decimal
	Disposition   string
	WarehouseCode string
	VendorCode    string
}

// ReceiveStockRequest is the input for recording a goods receipt into a warehouse.
type ReceiveStockRequest struct {
	CompanyCode       string
	SKUCode           string
	WarehouseCode     string
	CreditAccountCode string
	MovementDate      string
	Qty               decimal.Decimal
	UnitCost          decimal.Decimal
}

// CreateCustomerRequest is the input for creating a new customer.
type CreateCustomerRequest struct {
	CompanyCode  string
	Code         string
	Name         string
	Email        string
	Phone        string
	Address      string
	CreditLimit  decimal.Decimal
	PaymentTerms int // days; 0 means 30
}

// CreateSKURequest is the input for adding a SKU to the catalog.
type CreateSKURequest struct {
	CompanyCode        string
	Code               string
	Name               string
	Description        string
	Category           string
	Unit               string
	UnitPrice          decimal.Decimal
	Discountable       bool
	IsSurcharge        bool
	RevenueAccountCode string // optional; empty resolves the REVENUE account rule
}

// CreateVendorRequest is the input for creating a new vendor.
type CreateVendorRequest struct {
	CompanyCode   string
	Code          string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	ReturnAddress string
	RMATermsDays  int
}
