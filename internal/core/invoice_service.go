package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceService manages the invoice lifecycle and posts the sales journal at
// issue time.
type InvoiceService interface {
	// CreateInvoice creates a DRAFT invoice with a priced preview of totals.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	// IssueInvoice transitions DRAFT → ISSUED: final totals from the totals
	// engine, gapless invoice number, balanced sales journal. Atomic.
	IssueInvoice(ctx context.Context, invoiceID int) (*Invoice, error)
	// VoidInvoice cancels a DRAFT or an unpaid ISSUED invoice. Voiding an
	// issued invoice books a reversal of its sales journal.
	VoidInvoice(ctx context.Context, invoiceID int, reason string) (*Invoice, error)

	GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error)
	GetInvoiceByNumber(ctx context.Context, companyCode, invoiceNumber string) (*Invoice, error)
	GetInvoices(ctx context.Context, companyCode string, status *string) ([]Invoice, error)
}

// InvoiceRequest holds everything needed to create a DRAFT invoice.
type InvoiceRequest struct {
	CompanyCode  string
	CustomerCode string
	Currency     string
	TaxRate      decimal.Decimal
	RoundingMode RoundingMode
	Lines        []InvoiceLineInput
	Discounts    []DiscountInput
	Notes        string
}

type invoiceService struct {
	pool       *pgxpool.Pool
	ruleEngine RuleEngine
	poster     *GLPoster
	ledger     *Ledger
	docService DocumentService
}

func NewInvoiceService(pool *pgxpool.Pool, ruleEngine RuleEngine, poster *GLPoster, ledger *Ledger, docService DocumentService) InvoiceService {
	return &invoiceService{pool: pool, ruleEngine: ruleEngine, poster: poster, ledger: ledger, docService: docService}
}

// billingLineItems converts stored invoice lines into totals-engine inputs.
// Line IDs are the database primary keys so audit records point back at rows.
func billingLineItems(lines []InvoiceLine) []LineItem {
	items := make([]LineItem, len(lines))
	for i, l := range lines {
		items[i] = LineItem{
			ID:           strconv.Itoa(l.ID),
			SKU:          l.SKUCode,
			Description:  l.Description,
			Qty:          l.Qty,
			UnitPrice:    l.UnitPrice,
			Category:     l.Category,
			Discountable: l.Discountable,
			IsSurcharge:  l.IsSurcharge,
		}
	}
	return items
}

// billingDiscounts converts stored invoice discounts into totals-engine inputs.
func billingDiscounts(discounts []InvoiceDiscount) []Discount {
	out := make([]Discount, len(discounts))
	for i, d := range discounts {
		out[i] = Discount{
			ID:          d.Code,
			Type:        d.Type,
			Value:       d.Value,
			Scope:       d.Scope,
			Description: d.Description,
		}
	}
	return out
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("invoice must have at least one line")
	}
	if req.RoundingMode == "" {
		req.RoundingMode = RoundHalfUp
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, req.CompanyCode)
	if err != nil {
		return nil, err
	}

	var customerID int
	err = tx.QueryRow(ctx, "SELECT id FROM customers WHERE company_id = $1 AND code = $2",
		companyID, req.CustomerCode).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer code %s not found for company %s", req.CustomerCode, req.CompanyCode)
		}
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	// Snapshot SKU pricing and discount flags onto the lines.
	resolved, err := resolveBillingLines(ctx, tx, companyID, req.Lines)
	if err != nil {
		return nil, err
	}

	// Price a preview so drafts show totals before issuing. The preview also
	// front-runs the totals engine's input validation: a draft that cannot be
	// priced is rejected here, not at issue time.
	preview, err := CalculateTotals(previewLineItems(resolved), discountInputs(req.Discounts), req.TaxRate, req.RoundingMode)
	if err != nil {
		return nil, fmt.Errorf("invoice pricing failed: %w", err)
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (company_id, customer_id, status, currency, tax_rate, rounding_mode,
		                      subtotal, discount_total, tax_amount, grand_total, amount_paid, notes)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5, $6, $7, $8, $9, 0, $10)
		RETURNING id
	`, companyID, customerID, req.Currency, req.TaxRate, string(req.RoundingMode),
		preview.Subtotal, preview.DiscountAmount, preview.TaxAmount, preview.GrandTotal, req.Notes).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i, rl := range resolved {
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, line_number, sku_id, sku_code, description, qty, unit_price,
			                           category, discountable, is_surcharge, line_subtotal, discount_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $11)
		`, invoiceID, i+1, rl.skuID, rl.skuCode, rl.description, rl.qty, rl.unitPrice,
			rl.category, rl.discountable, rl.isSurcharge, rl.qty.Mul(rl.unitPrice).Round(2))
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice line %d: %w", i+1, err)
		}
	}

	for _, d := range req.Discounts {
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_discounts (invoice_id, code, type, value, scope, description, amount_applied)
			VALUES ($1, $2, $3, $4, $5, $6, 0)
		`, invoiceID, d.Code, string(d.Type), d.Value, d.Scope, d.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice discount %s: %w", d.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice creation: %w", err)
	}

	return s.GetInvoice(ctx, invoiceID)
}

type resolvedBillingLine struct {
	skuID        int
	skuCode      string
	description  string
	qty          decimal.Decimal
	unitPrice    decimal.Decimal
	category     string
	discountable bool
	isSurcharge  bool
}

func resolveBillingLines(ctx context.Context, q pgxQuerier, companyID int, inputs []InvoiceLineInput) ([]resolvedBillingLine, error) {
	var resolved []resolvedBillingLine
	for i, input := range inputs {
		var sku SKU
		err := q.QueryRow(ctx, `
			SELECT id, code, name, unit_price, category, discountable, is_surcharge
			FROM skus
			WHERE company_id = $1 AND code = $2 AND is_active = true
		`, companyID, input.SKUCode).Scan(
			&sku.ID, &sku.Code, &sku.Name, &sku.UnitPrice, &sku.Category, &sku.Discountable, &sku.IsSurcharge,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("line %d: sku code %s not found", i+1, input.SKUCode)
			}
			return nil, fmt.Errorf("line %d: failed to resolve sku: %w", i+1, err)
		}

		price := sku.UnitPrice
		if !input.UnitPrice.IsZero() {
			price = input.UnitPrice
		}
		description := input.Description
		if description == "" {
			description = sku.Name
		}

		resolved = append(resolved, resolvedBillingLine{
			skuID:        sku.ID,
			skuCode:      sku.Code,
			description:  description,
			qty:          input.Qty,
			unitPrice:    price,
			category:     sku.Category,
			discountable: sku.Discountable,
			isSurcharge:  sku.IsSurcharge,
		})
	}
	return resolved, nil
}

func previewLineItems(resolved []resolvedBillingLine) []LineItem {
	items := make([]LineItem, len(resolved))
	for i, rl := range resolved {
		items[i] = LineItem{
			ID:           fmt.Sprintf("draft-%d", i+1),
			SKU:          rl.skuCode,
			Description:  rl.description,
			Qty:          rl.qty,
			UnitPrice:    rl.unitPrice,
			Category:     rl.category,
			Discountable: rl.discountable,
			IsSurcharge:  rl.isSurcharge,
		}
	}
	return items
}

func discountInputs(inputs []DiscountInput) []Discount {
	out := make([]Discount, len(inputs))
	for i, d := range inputs {
		out[i] = Discount{ID: d.Code, Type: d.Type, Value: d.Value, Scope: d.Scope, Description: d.Description}
	}
	return out
}

func (s *invoiceService) IssueInvoice(ctx context.Context, invoiceID int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID, customerID int
	var status, companyCode string
	err = tx.QueryRow(ctx, `
		SELECT i.company_id, i.customer_id, i.status, c.company_code
		FROM invoices i
		JOIN companies c ON c.id = i.company_id
		WHERE i.id = $1
		FOR UPDATE OF i
	`, invoiceID).Scan(&companyID, &customerID, &status, &companyCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	if status != InvoiceStatusDraft {
		return nil, fmt.Errorf("invoice %d cannot be issued: status is %s (must be DRAFT)", invoiceID, status)
	}

	invoice, err := fetchInvoiceQ(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}

	// Final, auditable totals.
	result, err := CalculateTotals(billingLineItems(invoice.Lines), billingDiscounts(invoice.Discounts), invoice.TaxRate, invoice.RoundingMode)
	if err != nil {
		return nil, fmt.Errorf("invoice %d totals calculation failed: %w", invoiceID, err)
	}

	fy := time.Now().Year()
	invoiceNumber, err := s.docService.IssueNumberTx(ctx, tx, companyID, DocTypeInvoice, &fy)
	if err != nil {
		return nil, fmt.Errorf("failed to assign invoice number: %w", err)
	}

	// DR AR for the grand total, CR revenue for the net, CR tax payable for
	// the tax. Balanced because grandTotal = afterDiscounts + taxAmount.
	arAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleAR)
	if err != nil {
		return nil, err
	}
	revenueAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleRevenue)
	if err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("invoice %s", invoiceNumber)
	entries := []GLEntry{
		{Acct: arAcct, Debit: result.GrandTotal, Memo: memo},
		{Acct: revenueAcct, Credit: result.AfterDiscounts, Memo: memo},
	}
	if result.TaxAmount.IsPositive() {
		taxAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleTaxPayable)
		if err != nil {
			return nil, err
		}
		entries = append(entries, GLEntry{Acct: taxAcct, Credit: result.TaxAmount, Memo: memo})
	}

	source := GLSource{Version: "1", Module: "invoicing", SourceRef: invoiceNumber, Entries: entries}
	postResult, err := s.poster.Post(source)
	if err != nil {
		return nil, fmt.Errorf("invoice %s journal rejected: %w", invoiceNumber, err)
	}

	narration := fmt.Sprintf("Sales invoice %s — %s", invoiceNumber, invoice.CustomerName)
	if _, err := s.ledger.RecordTx(ctx, tx, companyID, source, postResult, narration); err != nil {
		return nil, fmt.Errorf("failed to record invoice journal: %w", err)
	}

	// Persist the per-line audit trail exactly as the engine computed it.
	for _, pl := range result.LineItems {
		lineID, err := strconv.Atoi(pl.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected line id %q in calculation result", pl.ID)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE invoice_lines
			SET line_subtotal = $1, discount_amount = $2, line_total = $3
			WHERE id = $4 AND invoice_id = $5
		`, pl.LineSubtotal, pl.DiscountAmount, pl.AfterDiscounts, lineID, invoiceID); err != nil {
			return nil, fmt.Errorf("failed to update invoice line %d: %w", lineID, err)
		}
	}
	for _, ad := range result.AppliedDiscounts {
		if _, err := tx.Exec(ctx, `
			UPDATE invoice_discounts SET amount_applied = $1 WHERE invoice_id = $2 AND code = $3
		`, ad.Amount, invoiceID, ad.DiscountID); err != nil {
			return nil, fmt.Errorf("failed to update discount %s: %w", ad.DiscountID, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices
		SET status = 'ISSUED', invoice_number = $1, journal_id = $2,
		    subtotal = $3, discount_total = $4, tax_amount = $5, grand_total = $6,
		    issued_at = NOW()
		WHERE id = $7
	`, invoiceNumber, postResult.JournalID,
		result.Subtotal, result.DiscountAmount, result.TaxAmount, result.GrandTotal,
		invoiceID); err != nil {
		return nil, fmt.Errorf("failed to mark invoice %d as ISSUED: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice issue: %w", err)
	}

	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) VoidInvoice(ctx context.Context, invoiceID int, reason string) (*Invoice, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	switch invoice.Status {
	case InvoiceStatusDraft:
		// Nothing was posted; just flip the status.
	case InvoiceStatusIssued:
		if invoice.AmountPaid.IsPositive() {
			return nil, fmt.Errorf("invoice %s cannot be voided: %s already paid", invoice.InvoiceNumber, invoice.AmountPaid.StringFixed(2))
		}
		if invoice.JournalID != nil {
			if _, err := s.ledger.Reverse(ctx, s.poster, *invoice.JournalID, "void invoice: "+reason); err != nil {
				return nil, fmt.Errorf("failed to reverse invoice journal: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("invoice %d cannot be voided: status is %s", invoiceID, invoice.Status)
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = 'VOID', voided_at = NOW() WHERE id = $1", invoiceID,
	); err != nil {
		return nil, fmt.Errorf("failed to void invoice %d: %w", invoiceID, err)
	}

	return s.GetInvoice(ctx, invoiceID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error) {
	return fetchInvoiceQ(ctx, s.pool, invoiceID)
}

func (s *invoiceService) GetInvoiceByNumber(ctx context.Context, companyCode, invoiceNumber string) (*Invoice, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var invoiceID int
	err = s.pool.QueryRow(ctx,
		"SELECT id FROM invoices WHERE company_id = $1 AND invoice_number = $2",
		companyID, invoiceNumber,
	).Scan(&invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s not found for company %s", invoiceNumber, companyCode)
		}
		return nil, fmt.Errorf("failed to lookup invoice by number: %w", err)
	}
	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) GetInvoices(ctx context.Context, companyCode string, status *string) ([]Invoice, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.company_id, COALESCE(i.invoice_number, ''), i.customer_id, c.code, c.name,
		       i.status, i.currency, i.tax_rate, i.rounding_mode,
		       i.subtotal, i.discount_total, i.tax_amount, i.grand_total, i.amount_paid,
		       i.journal_id, i.notes, i.created_at, i.issued_at, i.paid_at, i.voided_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.company_id = $1
	`
	args := []any{companyID}
	if status != nil {
		query += " AND i.status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY i.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var mode string
		if err := rows.Scan(
			&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerCode, &inv.CustomerName,
			&inv.Status, &inv.Currency, &inv.TaxRate, &mode,
			&inv.Subtotal, &inv.DiscountTotal, &inv.TaxAmount, &inv.GrandTotal, &inv.AmountPaid,
			&inv.JournalID, &inv.Notes, &inv.CreatedAt, &inv.IssuedAt, &inv.PaidAt, &inv.VoidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.RoundingMode = RoundingMode(mode)
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func fetchInvoiceQ(ctx context.Context, q pgxQuerier, invoiceID int) (*Invoice, error) {
	var inv Invoice
	var mode string
	err := q.QueryRow(ctx, `
		SELECT i.id, i.company_id, COALESCE(i.invoice_number, ''), i.customer_id, c.code, c.name,
		       i.status, i.currency, i.tax_rate, i.rounding_mode,
		       i.subtotal, i.discount_total, i.tax_amount, i.grand_total, i.amount_paid,
		       i.journal_id, i.notes, i.created_at, i.issued_at, i.paid_at, i.voided_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1
	`, invoiceID).Scan(
		&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerCode, &inv.CustomerName,
		&inv.Status, &inv.Currency, &inv.TaxRate, &mode,
		&inv.Subtotal, &inv.DiscountTotal, &inv.TaxAmount, &inv.GrandTotal, &inv.AmountPaid,
		&inv.JournalID, &inv.Notes, &inv.CreatedAt, &inv.IssuedAt, &inv.PaidAt, &inv.VoidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}
	inv.RoundingMode = RoundingMode(mode)

	lines, err := fetchInvoiceLinesQ(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines

	discounts, err := fetchInvoiceDiscountsQ(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Discounts = discounts
	return &inv, nil
}

func fetchInvoiceLinesQ(ctx context.Context, q pgxQuerier, invoiceID int) ([]InvoiceLine, error) {
	rq, ok := q.(pgxRowQuerier)
	if !ok {
		return nil, fmt.Errorf("querier does not support multi-row queries")
	}
	rows, err := rq.Query(ctx, `
		SELECT id, invoice_id, line_number, sku_id, sku_code, description, qty, unit_price,
		       category, discountable, is_surcharge, line_subtotal, discount_amount, line_total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_number
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.LineNumber, &l.SKUID, &l.SKUCode, &l.Description, &l.Qty, &l.UnitPrice,
			&l.Category, &l.Discountable, &l.IsSurcharge, &l.LineSubtotal, &l.DiscountAmount, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func fetchInvoiceDiscountsQ(ctx context.Context, q pgxQuerier, invoiceID int) ([]InvoiceDiscount, error) {
	rq, ok := q.(pgxRowQuerier)
	if !ok {
		return nil, fmt.Errorf("querier does not support multi-row queries")
	}
	rows, err := rq.Query(ctx, `
		SELECT id, invoice_id, code, type, value, scope, description, amount_applied
		FROM invoice_discounts
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice discounts: %w", err)
	}
	defer rows.Close()

	var discounts []InvoiceDiscount
	for rows.Next() {
		var d InvoiceDiscount
		var dType string
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.Code, &dType, &d.Value, &d.Scope, &d.Description, &d.AmountApplied); err != nil {
			return nil, fmt.Errorf("failed to scan invoice discount: %w", err)
		}
		d.Type = DiscountType(dType)
		discounts = append(discounts, d)
	}
	return discounts, nil
}
