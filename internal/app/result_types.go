package app

import "logistics-backoffice/internal/core"

// TrialBalanceResult is returned by GetTrialBalance.
type TrialBalanceResult struct {
	CompanyCode string
	CompanyName string
	Currency    string
	Accounts    []core.AccountBalance
}

// JournalResult is returned by single-journal operations.
type JournalResult struct {
	Entry *core.GlJournalEntry
}

// JournalListResult is returned by ListJournals.
type JournalListResult struct {
	Entries     []core.GlJournalEntry
	CompanyCode string
}

// AccountStatementResult is returned by GetAccountStatement.
type AccountStatementResult struct {
	CompanyCode string
	AccountCode string
	Lines       []core.StatementLine
}

// ARAgingResult is returned by GetARAging.
type ARAgingResult struct {
	CompanyCode string
	AsOfDate    string
	Rows        []core.ARAgingRow
}

// RevenueByCategoryResult is returned by GetRevenueByCategory.
type RevenueByCategoryResult struct {
	CompanyCode string
	Rows        []core.CategoryRevenueRow
}

// DiscountUsageResult is returned by GetDiscountUsage.
type DiscountUsageResult struct {
	CompanyCode string
	Rows        []core.DiscountUsageRow
}

// CustomerResult is returned by CreateCustomer.
type CustomerResult struct {
	Customer *core.Customer
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer
}

// SKUResult is returned by single-SKU operations.
type SKUResult struct {
	SKU *core.SKU
}

// SKUListResult is returned by ListSKUs.
type SKUListResult struct {
	SKUs []core.SKU
}

// InvoiceResult is returned by invoice lifecycle operations.
type InvoiceResult struct {
	Invoice *core.Invoice
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices    []core.Invoice
	CompanyCode string
}

// PaymentResult is returned by RecordPayment.
type PaymentResult struct {
	Receipt *core.PaymentReceipt
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Receipts []core.PaymentReceipt
}

// QuoteResult is returned by quote lifecycle operations.
type QuoteResult struct {
	Quote *core.Quote
}

// QuoteListResult is returned by ListQuotes.
type QuoteListResult struct {
	Quotes      []core.Quote
	CompanyCode string
}

// RMAResult is returned by RMA lifecycle operations.
type RMAResult struct {
	RMA *core.RMA
}

// RMAListResult is returned by ListRMAs.
type RMAListResult struct {
	RMAs        []core.RMA
	CompanyCode string
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels      []core.StockLevel
	CompanyCode string
}

// MovementListResult is returned by ListMovements.
type MovementListResult struct {
	Movements []core.StockMovement
}

// VendorResult is returned by CreateVendor.
type VendorResult struct {
	Vendor *core.Vendor
}

// VendorListResult is returned by ListVendors.
type VendorListResult struct {
	Vendors []core.Vendor
}

// RateImportResult is returned by ImportRates.
type RateImportResult struct {
	Report *core.RateImportReport
}

// RateListResult is returned by ListRates.
type RateListResult struct {
	Rates []core.BenchmarkRate
}

// UserResult is returned by user lookups.
type UserResult struct {
	User *core.User
}
