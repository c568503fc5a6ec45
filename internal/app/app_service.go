package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"logistics-backoffice/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type appService struct {
	pool      *pgxpool.Pool
	ledger    *core.Ledger
	poster    *core.GLPoster
	invoices  core.InvoiceService
	payments  core.PaymentService
	quotes    core.QuoteService
	rmas      core.RMAService
	catalog   core.CatalogService
	inventory core.InventoryService
	vendors   core.VendorService
	users     core.UserService
	reports   core.ReportingService
	rates     *core.RateBenchmarkImporter
}

// NewAppService wires the full service stack over one connection pool and
// returns it behind the ApplicationService interface.
func NewAppService(pool *pgxpool.Pool) ApplicationService {
	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	docService := core.NewDocumentService(pool)
	inventory := core.NewInventoryService(pool, ruleEngine, poster, ledger)

	return &appService{
		pool:      pool,
		ledger:    ledger,
		poster:    poster,
		invoices:  core.NewInvoiceService(pool, ruleEngine, poster, ledger, docService),
		payments:  core.NewPaymentService(pool, ruleEngine, poster, ledger, docService),
		quotes:    core.NewQuoteService(pool, docService),
		rmas:      core.NewRMAService(pool, ruleEngine, poster, ledger, docService, inventory),
		catalog:   core.NewCatalogService(pool),
		inventory: inventory,
		vendors:   core.NewVendorService(pool),
		users:     core.NewUserService(pool),
		reports:   core.NewReportingService(pool),
		rates:     core.NewRateBenchmarkImporter(pool),
	}
}

// ── Ledger and reports ────────────────────────────────────────────────────────

// GetTrialBalance returns the trial balance for the given company.
func (s *appService) GetTrialBalance(ctx context.Context, companyCode string) (*TrialBalanceResult, error) {
	var companyName, currency string
	if err := s.pool.QueryRow(ctx,
		"SELECT name, base_currency FROM companies WHERE company_code = $1", companyCode,
	).Scan(&companyName, &currency); err != nil {
		return nil, fmt.Errorf("company %s not found: %w", companyCode, err)
	}

	balances, err := s.ledger.TrialBalance(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	return &TrialBalanceResult{
		CompanyCode: companyCode,
		CompanyName: companyName,
		Currency:    currency,
		Accounts:    balances,
	}, nil
}

// ListJournals returns posted journals, optionally filtered by source module.
func (s *appService) ListJournals(ctx context.Context, companyCode string, module *string) (*JournalListResult, error) {
	entries, err := s.ledger.ListJournals(ctx, companyCode, module)
	if err != nil {
		return nil, err
	}
	return &JournalListResult{Entries: entries, CompanyCode: companyCode}, nil
}

// GetJournal returns a single journal entry with its lines.
func (s *appService) GetJournal(ctx context.Context, journalID string) (*JournalResult, error) {
	entry, err := s.ledger.GetJournal(ctx, journalID)
	if err != nil {
		return nil, err
	}
	return &JournalResult{Entry: entry}, nil
}

// ReverseJournal books an inverted copy of an existing journal.
func (s *appService) ReverseJournal(ctx context.Context, journalID, reason string) (*JournalResult, error) {
	result, err := s.ledger.Reverse(ctx, s.poster, journalID, reason)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledger.GetJournal(ctx, result.JournalID)
	if err != nil {
		return nil, err
	}
	return &JournalResult{Entry: entry}, nil
}

// GetAccountStatement returns a chronological account statement with running balance.
func (s *appService) GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) (*AccountStatementResult, error) {
	lines, err := s.reports.GetAccountStatement(ctx, companyCode, accountCode, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return &AccountStatementResult{CompanyCode: companyCode, AccountCode: accountCode, Lines: lines}, nil
}

// GetARAging returns outstanding invoice balances bucketed by age.
func (s *appService) GetARAging(ctx context.Context, companyCode, asOfDate string) (*ARAgingResult, error) {
	if asOfDate == "" {
		asOfDate = time.Now().Format("2006-01-02")
	}
	rows, err := s.reports.GetARAging(ctx, companyCode, asOfDate)
	if err != nil {
		return nil, err
	}
	return &ARAgingResult{CompanyCode: companyCode, AsOfDate: asOfDate, Rows: rows}, nil
}

// GetRevenueByCategory returns invoiced revenue per SKU category for a date range.
func (s *appService) GetRevenueByCategory(ctx context.Context, companyCode, fromDate, toDate string) (*RevenueByCategoryResult, error) {
	rows, err := s.reports.GetRevenueByCategory(ctx, companyCode, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return &RevenueByCategoryResult{CompanyCode: companyCode, Rows: rows}, nil
}

// GetDiscountUsage summarizes applied discount codes.
func (s *appService) GetDiscountUsage(ctx context.Context, companyCode string) (*DiscountUsageResult, error) {
	rows, err := s.reports.GetDiscountUsage(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &DiscountUsageResult{CompanyCode: companyCode, Rows: rows}, nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// ListCustomers returns all active customers for a company.
func (s *appService) ListCustomers(ctx context.Context, companyCode string) (*CustomerListResult, error) {
	customers, err := s.catalog.GetCustomers(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

// CreateCustomer creates a new customer master record.
func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResult, error) {
	customer, err := s.catalog.CreateCustomer(ctx, req.CompanyCode, core.CustomerInput{
		Code:         req.Code,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		CreditLimit:  req.CreditLimit,
		PaymentTerms: req.PaymentTerms,
	})
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: customer}, nil
}

// ListSKUs returns active catalog SKUs, optionally filtered by category.
func (s *appService) ListSKUs(ctx context.Context, companyCode, category string) (*SKUListResult, error) {
	skus, err := s.catalog.GetSKUs(ctx, companyCode, category)
	if err != nil {
		return nil, err
	}
	return &SKUListResult{SKUs: skus}, nil
}

// CreateSKU adds a service or charge to the catalog.
func (s *appService) CreateSKU(ctx context.Context, req CreateSKURequest) (*SKUResult, error) {
	sku, err := s.catalog.CreateSKU(ctx, req.CompanyCode, core.SKUInput{
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Unit:               req.Unit,
		UnitPrice:          req.UnitPrice,
		Discountable:       req.Discountable,
		IsSurcharge:        req.IsSurcharge,
		RevenueAccountCode: req.RevenueAccountCode,
	})
	if err != nil {
		return nil, err
	}
	return &SKUResult{SKU: sku}, nil
}

// UpdateSKUPrice changes a SKU's unit price.
func (s *appService) UpdateSKUPrice(ctx context.Context, companyCode, skuCode, unitPrice string) (*SKUResult, error) {
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid unit price %q: %w", unitPrice, err)
	}
	sku, err := s.catalog.UpdateSKUPrice(ctx, companyCode, skuCode, price)
	if err != nil {
		return nil, err
	}
	return &SKUResult{SKU: sku}, nil
}

// DeactivateSKU retires a SKU from the catalog.
func (s *appService) DeactivateSKU(ctx context.Context, companyCode, skuCode string) error {
	return s.catalog.DeactivateSKU(ctx, companyCode, skuCode)
}

// ── Invoices and payments ─────────────────────────────────────────────────────

// CreateInvoice creates a new DRAFT invoice with a priced preview of totals.
func (s *appService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	mode, err := parseRoundingMode(req.RoundingMode)
	if err != nil {
		return nil, err
	}
	discounts, err := toDiscountInputs(req.Discounts)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoices.CreateInvoice(ctx, core.InvoiceRequest{
		CompanyCode:  req.CompanyCode,
		CustomerCode: req.CustomerCode,
		Currency:     req.Currency,
		TaxRate:      req.TaxRate,
		RoundingMode: mode,
		Lines:        toLineInputs(req.Lines),
		Discounts:    discounts,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: invoice}, nil
}

// IssueInvoice transitions a DRAFT invoice to ISSUED.
func (s *appService) IssueInvoice(ctx context.Context, ref, companyCode string) (*InvoiceResult, error) {
	invoice, err := s.resolveInvoice(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	invoice, err = s.invoices.IssueInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: invoice}, nil
}

// VoidInvoice cancels a DRAFT or unpaid ISSUED invoice.
func (s *appService) VoidInvoice(ctx context.Context, ref, companyCode, reason string) (*InvoiceResult, error) {
	invoice, err := s.resolveInvoice(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	invoice, err = s.invoices.VoidInvoice(ctx, invoice.ID, reason)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: invoice}, nil
}

// GetInvoice returns a single invoice by numeric ID or invoice number string.
func (s *appService) GetInvoice(ctx context.Context, ref, companyCode string) (*InvoiceResult, error) {
	invoice, err := s.resolveInvoice(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: invoice}, nil
}

// ListInvoices returns invoices for a company, optionally filtered by status.
func (s *appService) ListInvoices(ctx context.Context, companyCode string, status *string) (*InvoiceListResult, error) {
	invoices, err := s.invoices.GetInvoices(ctx, companyCode, status)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices, CompanyCode: companyCode}, nil
}

// RecordPayment applies a payment against an issued invoice.
func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	receipt, err := s.payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:     req.CompanyCode,
		InvoiceNumber:   req.InvoiceNumber,
		Amount:          req.Amount,
		BankAccountCode: req.BankAccountCode,
		PaymentDate:     req.PaymentDate,
		Method:          req.Method,
		Reference:       req.Reference,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Receipt: receipt}, nil
}

// ListPayments returns payment receipts, optionally scoped to one invoice.
func (s *appService) ListPayments(ctx context.Context, companyCode, invoiceRef string) (*PaymentListResult, error) {
	var invoiceID *int
	if invoiceRef != "" {
		invoice, err := s.resolveInvoice(ctx, invoiceRef, companyCode)
		if err != nil {
			return nil, err
		}
		invoiceID = &invoice.ID
	}
	receipts, err := s.payments.GetPayments(ctx, companyCode, invoiceID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Receipts: receipts}, nil
}

// ── Quotes ────────────────────────────────────────────────────────────────────

// CreateQuote creates a new priced DRAFT quote.
func (s *appService) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResult, error) {
	discounts, err := toDiscountInputs(req.Discounts)
	if err != nil {
		return nil, err
	}
	quote, err := s.quotes.CreateQuote(ctx, core.QuoteRequest{
		CompanyCode:  req.CompanyCode,
		CustomerCode: req.CustomerCode,
		Currency:     req.Currency,
		TaxRate:      req.TaxRate,
		ValidUntil:   req.ValidUntil,
		Lines:        toLineInputs(req.Lines),
		Discounts:    discounts,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

// SendQuote transitions a DRAFT quote to SENT, assigning a quote number.
func (s *appService) SendQuote(ctx context.Context, quoteID int) (*QuoteResult, error) {
	quote, err := s.quotes.SendQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

// AcceptQuote transitions a SENT quote to ACCEPTED.
func (s *appService) AcceptQuote(ctx context.Context, quoteID int) (*QuoteResult, error) {
	quote, err := s.quotes.AcceptQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

// ExpireQuote transitions a DRAFT or SENT quote to EXPIRED.
func (s *appService) ExpireQuote(ctx context.Context, quoteID int) (*QuoteResult, error) {
	quote, err := s.quotes.ExpireQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

// ConvertQuote copies an ACCEPTED quote into a new DRAFT invoice.
func (s *appService) ConvertQuote(ctx context.Context, quoteID int) (*InvoiceResult, error) {
	invoice, err := s.quotes.ConvertToInvoice(ctx, quoteID, s.invoices)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: invoice}, nil
}

// GetQuote returns a single quote with lines and discounts.
func (s *appService) GetQuote(ctx context.Context, quoteID int) (*QuoteResult, error) {
	quote, err := s.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

// ListQuotes returns quotes for a company, optionally filtered by status.
func (s *appService) ListQuotes(ctx context.Context, companyCode string, status *string) (*QuoteListResult, error) {
	quotes, err := s.quotes.GetQuotes(ctx, companyCode, status)
	if err != nil {
		return nil, err
	}
	return &QuoteListResult{Quotes: quotes, CompanyCode: companyCode}, nil
}

// ── RMAs ──────────────────────────────────────────────────────────────────────

// RequestRMA opens a return authorization against an issued invoice.
func (s *appService) RequestRMA(ctx context.Context, req CreateRMARequest) (*RMAResult, error) {
	lines := make([]core.RMALineInput, len(req.Lines))
	for i, l := range req.Lines {
		disposition, err := parseDisposition(l.Disposition)
		if err != nil {
			return nil, err
		}
		lines[i] = core.RMALineInput{
			InvoiceLineID: l.InvoiceLineID,
			Qty:           l.Qty,
			Disposition:   disposition,
			WarehouseCode: l.WarehouseCode,
			VendorCode:    l.VendorCode,
		}
	}

	rma, err := s.rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   req.CompanyCode,
		InvoiceNumber: req.InvoiceNumber,
		Reason:        req.Reason,
		Lines:         lines,
	})
	if err != nil {
		return nil, err
	}
	return &RMAResult{RMA: rma}, nil
}

// ReceiveRMA marks returned goods as arrived at the dock.
func (s *appService) ReceiveRMA(ctx context.Context, rmaID int) (*RMAResult, error) {
	rma, err := s.rmas.ReceiveRMA(ctx, rmaID)
	if err != nil {
		return nil, err
	}
	return &RMAResult{RMA: rma}, nil
}

// ProcessRMA sizes the credit memo, books the credit journal, and applies dispositions.
func (s *appService) ProcessRMA(ctx context.Context, rmaID int) (*RMAResult, error) {
	rma, err := s.rmas.ProcessRMA(ctx, rmaID)
	if err != nil {
		return nil, err
	}
	return &RMAResult{RMA: rma}, nil
}

// RejectRMA declines a requested RMA.
func (s *appService) RejectRMA(ctx context.Context, rmaID int, reason string) (*RMAResult, error) {
	rma, err := s.rmas.RejectRMA(ctx, rmaID, reason)
	if err != nil {
		return nil, err
	}
	return &RMAResult{RMA: rma}, nil
}

// GetRMA returns a single RMA with its lines.
func (s *appService) GetRMA(ctx context.Context, rmaID int) (*RMAResult, error) {
	rma, err := s.rmas.GetRMA(ctx, rmaID)
	if err != nil {
		return nil, err
	}
	return &RMAResult{RMA: rma}, nil
}

// ListRMAs returns RMAs for a company, optionally filtered by status.
func (s *appService) ListRMAs(ctx context.Context, companyCode string, status *string) (*RMAListResult, error) {
	rmas, err := s.rmas.GetRMAs(ctx, companyCode, status)
	if err != nil {
		return nil, err
	}
	return &RMAListResult{RMAs: rmas, CompanyCode: companyCode}, nil
}

// ── Inventory and vendors ─────────────────────────────────────────────────────

// ListWarehouses returns all active warehouses for a company.
func (s *appService) ListWarehouses(ctx context.Context, companyCode string) (*WarehouseListResult, error) {
	warehouses, err := s.inventory.GetWarehouses(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

// GetStockLevels returns current stock levels for all stock items in a company.
func (s *appService) GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error) {
	levels, err := s.inventory.GetStockLevels(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, CompanyCode: companyCode}, nil
}

// ListMovements returns stock movements, optionally filtered by SKU code.
func (s *appService) ListMovements(ctx context.Context, companyCode, skuCode string) (*MovementListResult, error) {
	movements, err := s.inventory.GetMovements(ctx, companyCode, skuCode)
	if err != nil {
		return nil, err
	}
	return &MovementListResult{Movements: movements}, nil
}

// ReceiveStock records a goods receipt.
func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) error {
	movementDate := req.MovementDate
	if movementDate == "" {
		movementDate = time.Now().Format("2006-01-02")
	}
	return s.inventory.ReceiveStock(ctx, core.ReceiveStockRequest{
		CompanyCode:       req.CompanyCode,
		WarehouseCode:     req.WarehouseCode,
		SKUCode:           req.SKUCode,
		Qty:               req.Qty,
		UnitCost:          req.UnitCost,
		MovementDate:      movementDate,
		CreditAccountCode: req.CreditAccountCode,
	})
}

// ListVendors returns all active vendors for a company.
func (s *appService) ListVendors(ctx context.Context, companyCode string) (*VendorListResult, error) {
	vendors, err := s.vendors.GetVendors(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &VendorListResult{Vendors: vendors}, nil
}

// CreateVendor creates a new vendor record for the given company.
func (s *appService) CreateVendor(ctx context.Context, req CreateVendorRequest) (*VendorResult, error) {
	vendor, err := s.vendors.CreateVendor(ctx, req.CompanyCode, core.VendorInput{
		Code:          req.Code,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		ReturnAddress: req.ReturnAddress,
		RMATermsDays:  req.RMATermsDays,
	})
	if err != nil {
		return nil, err
	}
	return &VendorResult{Vendor: vendor}, nil
}

// ── Benchmark rates ───────────────────────────────────────────────────────────

// ImportRates ingests a benchmark tariff CSV.
func (s *appService) ImportRates(ctx context.Context, companyCode string, r io.Reader) (*RateImportResult, error) {
	report, err := s.rates.Import(ctx, companyCode, r)
	if err != nil {
		return nil, err
	}
	return &RateImportResult{Report: report}, nil
}

// ListRates returns imported benchmark rates for a lane.
func (s *appService) ListRates(ctx context.Context, companyCode, laneOrigin, laneDest string) (*RateListResult, error) {
	rates, err := s.rates.GetRates(ctx, companyCode, laneOrigin, laneDest)
	if err != nil {
		return nil, err
	}
	return &RateListResult{Rates: rates}, nil
}

// ── Users and company ─────────────────────────────────────────────────────────

// GetUser returns a user profile by ID.
func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

// GetUserByUsername returns an active user by username.
func (s *appService) GetUserByUsername(ctx context.Context, username string) (*UserResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

// LoadDefaultCompany loads the active company, using COMPANY_CODE env var if set.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if code := os.Getenv("COMPANY_CODE"); code != "" {
		c := &core.Company{}
		err := s.pool.QueryRow(ctx,
			"SELECT id, company_code, name, base_currency FROM companies WHERE company_code = $1", code,
		).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency)
		if err != nil {
			return nil, fmt.Errorf("company %s not found: %w", code, err)
		}
		return c, nil
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE env var (e.g. COMPANY_CODE=ACME)")
	}

	c := &core.Company{}
	if err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency FROM companies LIMIT 1",
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency); err != nil {
		return nil, fmt.Errorf("no default company found, have migrations run?: %w", err)
	}
	return c, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

// resolveInvoice looks up an invoice by numeric ID or invoice number string.
func (s *appService) resolveInvoice(ctx context.Context, ref, companyCode string) (*core.Invoice, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return s.invoices.GetInvoice(ctx, id)
	}
	return s.invoices.GetInvoiceByNumber(ctx, companyCode, ref)
}

func toLineInputs(lines []BillingLineInput) []core.InvoiceLineInput {
	out := make([]core.InvoiceLineInput, len(lines))
	for i, l := range lines {
		out[i] = core.InvoiceLineInput{
			SKUCode:     l.SKUCode,
			Description: l.Description,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
		}
	}
	return out
}

func toDiscountInputs(discounts []BillingDiscountInput) ([]core.DiscountInput, error) {
	out := make([]core.DiscountInput, len(discounts))
	for i, d := range discounts {
		var dtype core.DiscountType
		switch strings.ToLower(d.Type) {
		case "percent":
			dtype = core.DiscountPercent
		case "flat":
			dtype = core.DiscountFlat
		default:
			return nil, fmt.Errorf("discount %s has unknown type %q (want percent or flat)", d.Code, d.Type)
		}
		out[i] = core.DiscountInput{
			Code:        d.Code,
			Type:        dtype,
			Value:       d.Value,
			Scope:       d.Scope,
			Description: d.Description,
		}
	}
	return out, nil
}

func parseRoundingMode(mode string) (core.RoundingMode, error) {
	switch strings.ToUpper(mode) {
	case "", string(core.RoundHalfUp):
		return core.RoundHalfUp, nil
	case string(core.RoundHalfEven):
		return core.RoundHalfEven, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q (want HALF_UP or HALF_EVEN)", mode)
	}
}

func parseDisposition(d string) (core.Disposition, error) {
	switch core.Disposition(strings.ToUpper(d)) {
	case core.DispositionRestock:
		return core.DispositionRestock, nil
	case core.DispositionDisposal:
		return core.DispositionDisposal, nil
	case core.DispositionRTV:
		return core.DispositionRTV, nil
	case core.DispositionRepair:
		return core.DispositionRepair, nil
	default:
		return "", fmt.Errorf("unknown disposition %q (want RESTOCK, DISPOSAL, RTV, or REPAIR)", d)
	}
}
