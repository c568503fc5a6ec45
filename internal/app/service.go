package app

import (
	"context"
	"io"

	"logistics-backoffice/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// GetTrialBalance returns a trial balance for the given company.
	GetTrialBalance(ctx context.Context, companyCode string) (*TrialBalanceResult, error)

	// ListJournals returns posted journals for a company, optionally filtered
	// by source module (billing, payments, rma, inventory, reversal).
	ListJournals(ctx context.Context, companyCode string, module *string) (*JournalListResult, error)

	// GetJournal returns a single journal entry with its lines.
	GetJournal(ctx context.Context, journalID string) (*JournalResult, error)

	// ReverseJournal books an inverted copy of an existing journal.
	ReverseJournal(ctx context.Context, journalID, reason string) (*JournalResult, error)

	// GetAccountStatement returns a chronological account statement with running balance.
	// fromDate and toDate are optional (empty string means unbounded).
	GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) (*AccountStatementResult, error)

	// GetARAging returns outstanding invoice balances bucketed by age.
	// asOfDate is optional (empty string means today).
	GetARAging(ctx context.Context, companyCode, asOfDate string) (*ARAgingResult, error)

	// GetRevenueByCategory returns invoiced revenue per SKU category for a date range.
	GetRevenueByCategory(ctx context.Context, companyCode, fromDate, toDate string) (*RevenueByCategoryResult, error)

	// GetDiscountUsage summarizes applied discount codes across issued and paid invoices.
	GetDiscountUsage(ctx context.Context, companyCode string) (*DiscountUsageResult, error)

	// ListCustomers returns all active customers for a company.
	ListCustomers(ctx context.Context, companyCode string) (*CustomerListResult, error)

	// CreateCustomer creates a new customer master record.
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResult, error)

	// ListSKUs returns active catalog SKUs, optionally filtered by category.
	ListSKUs(ctx context.Context, companyCode, category string) (*SKUListResult, error)

	// CreateSKU adds a service or charge to the catalog.
	CreateSKU(ctx context.Context, req CreateSKURequest) (*SKUResult, error)

	// UpdateSKUPrice changes a SKU's unit price. Existing documents keep the
	// price they were created with.
	UpdateSKUPrice(ctx context.Context, companyCode, skuCode, unitPrice string) (*SKUResult, error)

	// DeactivateSKU retires a SKU from the catalog.
	DeactivateSKU(ctx context.Context, companyCode, skuCode string) error

	// CreateInvoice creates a new DRAFT invoice with a priced preview of totals.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error)

	// IssueInvoice transitions a DRAFT invoice to ISSUED: final totals, gapless
	// invoice number, balanced sales journal. ref may be a numeric ID or
	// invoice number string.
	IssueInvoice(ctx context.Context, ref, companyCode string) (*InvoiceResult, error)

	// VoidInvoice cancels a DRAFT or unpaid ISSUED invoice, reversing its
	// journal if one was booked.
	VoidInvoice(ctx context.Context, ref, companyCode, reason string) (*InvoiceResult, error)

	// GetInvoice returns a single invoice by numeric ID or invoice number string.
	GetInvoice(ctx context.Context, ref, companyCode string) (*InvoiceResult, error)

	// ListInvoices returns invoices for a company, optionally filtered by status.
	ListInvoices(ctx context.Context, companyCode string, status *string) (*InvoiceListResult, error)

	// RecordPayment applies a payment against an issued invoice, booking the
	// cash receipt journal and marking the invoice PAID at zero balance.
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error)

	// ListPayments returns payment receipts for a company, optionally scoped
	// to one invoice (ref may be a numeric ID or invoice number string).
	ListPayments(ctx context.Context, companyCode, invoiceRef string) (*PaymentListResult, error)

	// CreateQuote creates a new priced DRAFT quote.
	CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResult, error)

	// SendQuote transitions a DRAFT quote to SENT, assigning a quote number.
	SendQuote(ctx context.Context, quoteID int) (*QuoteResult, error)

	// AcceptQuote transitions a SENT quote to ACCEPTED.
	AcceptQuote(ctx context.Context, quoteID int) (*QuoteResult, error)

	// ExpireQuote transitions a DRAFT or SENT quote to EXPIRED.
	ExpireQuote(ctx context.Context, quoteID int) (*QuoteResult, error)

	// ConvertQuote copies an ACCEPTED quote into a new DRAFT invoice and marks
	// the quote CONVERTED.
	ConvertQuote(ctx context.Context, quoteID int) (*InvoiceResult, error)

	// GetQuote returns a single quote with lines and discounts.
	GetQuote(ctx context.Context, quoteID int) (*QuoteResult, error)

	// ListQuotes returns quotes for a company, optionally filtered by status.
	ListQuotes(ctx context.Context, companyCode string, status *string) (*QuoteListResult, error)

	// RequestRMA opens a return authorization against an issued invoice.
	RequestRMA(ctx context.Context, req CreateRMARequest) (*RMAResult, error)

	// ReceiveRMA marks returned goods as arrived at the dock.
	ReceiveRMA(ctx context.Context, rmaID int) (*RMAResult, error)

	// ProcessRMA sizes the credit memo, books the credit journal, and applies
	// each line's disposition.
	ProcessRMA(ctx context.Context, rmaID int) (*RMAResult, error)

	// RejectRMA declines a requested RMA. Nothing is booked.
	RejectRMA(ctx context.Context, rmaID int, reason string) (*RMAResult, error)

	// GetRMA returns a single RMA with its lines.
	GetRMA(ctx context.Context, rmaID int) (*RMAResult, error)

	// ListRMAs returns RMAs for a company, optionally filtered by status.
	ListRMAs(ctx context.Context, companyCode string, status *string) (*RMAListResult, error)

	// ListWarehouses returns all active warehouses for a company.
	ListWarehouses(ctx context.Context, companyCode string) (*WarehouseListResult, error)

	// GetStockLevels returns current stock levels for all stock items in a company.
	GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error)

	// ListMovements returns stock movements, optionally filtered by SKU code.
	ListMovements(ctx context.Context, companyCode, skuCode string) (*MovementListResult, error)

	// ReceiveStock records a goods receipt: increases qty_on_hand and books
	// DR Inventory / CR creditAccount.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) error

	// ListVendors returns all active vendors for a company.
	ListVendors(ctx context.Context, companyCode string) (*VendorListResult, error)

	// CreateVendor creates a new vendor record for the given company.
	CreateVendor(ctx context.Context, req CreateVendorRequest) (*VendorResult, error)

	// ImportRates ingests a benchmark tariff CSV. Valid rows are imported even
	// when other rows fail; the report lists every rejected row.
	ImportRates(ctx context.Context, companyCode string, r io.Reader) (*RateImportResult, error)

	// ListRates returns imported benchmark rates; empty lane codes match any lane.
	ListRates(ctx context.Context, companyCode, laneOrigin, laneDest string) (*RateListResult, error)

	// GetUser returns a user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// GetUserByUsername returns an active user by username. Adapters use this
	// to resolve the acting user before permission checks.
	GetUserByUsername(ctx context.Context, username string) (*UserResult, error)

	// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var if set;
	// otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)
}
