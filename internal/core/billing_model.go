package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a billing customer master record, scoped to a company.
type Customer struct {
	ID               int             `json:"id"`
	CompanyID        int             `json:"company_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SKU is a billable service or charge in the company catalog: storage,
// handling, freight, fuel surcharges, duties. The discount flags carried here
// become the defaults on invoice and quote lines.
type SKU struct {
	ID                 int             `json:"id"`
	CompanyID          int             `json:"company_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Unit               string          `json:"unit"`
	Category           string          `json:"category"`
	Discountable       bool            `json:"discountable"`
	IsSurcharge        bool            `json:"is_surcharge"`
	RevenueAccountCode string          `json:"revenue_account_code"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Invoice statuses:
//
//	DRAFT → ISSUED → PAID
//	DRAFT, ISSUED → VOID
const (
	InvoiceStatusDraft  = "DRAFT"
	InvoiceStatusIssued = "ISSUED"
	InvoiceStatusPaid   = "PAID"
	InvoiceStatusVoid   = "VOID"
)

// Invoice is a customer invoice header. Totals are computed by the totals
// engine at issue time and stored for the audit trail; the invoice number is
// assigned at ISSUED via DocumentService.
type Invoice struct {
	ID            int              `json:"id"`
	CompanyID     int              `json:"company_id"`
	InvoiceNumber string           `json:"invoice_number"`
	CustomerID    int              `json:"customer_id"`
	CustomerCode  string           `json:"customer_code"`
	CustomerName  string           `json:"customer_name"`
	Status        string           `json:"status"`
	Currency      string           `json:"currency"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
	RoundingMode  RoundingMode     `json:"rounding_mode"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	DiscountTotal decimal.Decimal  `json:"discount_total"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	GrandTotal    decimal.Decimal  `json:"grand_total"`
	AmountPaid    decimal.Decimal  `json:"amount_paid"`
	JournalID     *string          `json:"journal_id,omitempty"`
	Notes         string           `json:"notes"`
	Lines         []InvoiceLine    `json:"lines"`
	Discounts     []InvoiceDiscount `json:"discounts"`
	CreatedAt     time.Time        `json:"created_at"`
	IssuedAt      *time.Time       `json:"issued_at,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	VoidedAt      *time.Time       `json:"voided_at,omitempty"`
}

// InvoiceLine is one billable line. The discount flags are copied from the
// SKU at creation so later catalog edits never change an existing invoice.
type InvoiceLine struct {
	ID             int             `json:"id"`
	InvoiceID      int             `json:"invoice_id"`
	LineNumber     int             `json:"line_number"`
	SKUID          int             `json:"sku_id"`
	SKUCode        string          `json:"sku_code"`
	Description    string          `json:"description"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Category       string          `json:"category"`
	Discountable   bool            `json:"discountable"`
	IsSurcharge    bool            `json:"is_surcharge"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// InvoiceDiscount is a discount attached to an invoice or quote.
// AmountApplied is filled in at issue/pricing time.
type InvoiceDiscount struct {
	ID            int             `json:"id"`
	InvoiceID     int             `json:"invoice_id"`
	Code          string          `json:"code"`
	Type          DiscountType    `json:"type"`
	Value         decimal.Decimal `json:"value"`
	Scope         string          `json:"scope"`
	Description   string          `json:"description"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// InvoiceLineInput is used when creating an invoice or quote.
// A zero UnitPrice means "use the SKU default".
type InvoiceLineInput struct {
	SKUCode     string
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
}

// DiscountInput is used when attaching a discount to an invoice or quote.
type DiscountInput struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	Scope       string
	Description string
}

// Quote statuses:
//
//	DRAFT → SENT → ACCEPTED → CONVERTED
//	DRAFT, SENT → EXPIRED
const (
	QuoteStatusDraft     = "DRAFT"
	QuoteStatusSent      = "SENT"
	QuoteStatusAccepted  = "ACCEPTED"
	QuoteStatusConverted = "CONVERTED"
	QuoteStatusExpired   = "EXPIRED"
)

// Quote is a priced offer. It shares the invoice line/discount shape so an
// accepted quote converts into a DRAFT invoice without re-entry.
type Quote struct {
	ID                 int              `json:"id"`
	CompanyID          int              `json:"company_id"`
	QuoteNumber        string           `json:"quote_number"`
	CustomerID         int              `json:"customer_id"`
	CustomerCode       string           `json:"customer_code"`
	CustomerName       string           `json:"customer_name"`
	Status             string           `json:"status"`
	Currency           string           `json:"currency"`
	TaxRate            decimal.Decimal  `json:"tax_rate"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	DiscountTotal      decimal.Decimal  `json:"discount_total"`
	TaxAmount          decimal.Decimal  `json:"tax_amount"`
	GrandTotal         decimal.Decimal  `json:"grand_total"`
	ValidUntil         string           `json:"valid_until"` // YYYY-MM-DD
	Notes              string           `json:"notes"`
	ConvertedInvoiceID *int             `json:"converted_invoice_id,omitempty"`
	Lines              []InvoiceLine    `json:"lines"`
	Discounts          []InvoiceDiscount `json:"discounts"`
	CreatedAt          time.Time        `json:"created_at"`
}

// PaymentReceipt records one payment applied against an issued invoice.
type PaymentReceipt struct {
	ID              int             `json:"id"`
	CompanyID       int             `json:"company_id"`
	ReceiptNumber   string          `json:"receipt_number"`
	InvoiceID       int             `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	Amount          decimal.Decimal `json:"amount"`
	BankAccountCode string          `json:"bank_account_code"`
	PaymentDate     string          `json:"payment_date"` // YYYY-MM-DD
	Method          string          `json:"method"`
	Reference       string          `json:"reference"`
	JournalID       string          `json:"journal_id"`
	CreatedAt       time.Time       `json:"created_at"`
}
