package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// QuoteService prices customer quotes with the totals engine and converts
// accepted quotes into draft invoices.
type QuoteService interface {
	CreateQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
	// SendQuote transitions DRAFT → SENT and assigns the quote number.
	SendQuote(ctx context.Context, quoteID int) (*Quote, error)
	AcceptQuote(ctx context.Context, quoteID int) (*Quote, error)
	ExpireQuote(ctx context.Context, quoteID int) (*Quote, error)
	// ConvertToInvoice copies an ACCEPTED quote's lines and discounts into a
	// new DRAFT invoice and marks the quote CONVERTED.
	ConvertToInvoice(ctx context.Context, quoteID int, invoices InvoiceService) (*Invoice, error)

	GetQuote(ctx context.Context, quoteID int) (*Quote, error)
	GetQuotes(ctx context.Context, companyCode string, status *string) ([]Quote, error)
}

// QuoteRequest holds everything needed to create a priced DRAFT quote.
type QuoteRequest struct {
	CompanyCode  string
	CustomerCode string
	Currency     string
	TaxRate      decimal.Decimal
	ValidUntil   string // YYYY-MM-DD
	Lines        []InvoiceLineInput
	Discounts    []DiscountInput
	Notes        string
}

type quoteService struct {
	pool       *pgxpool.Pool
	docService DocumentService
}

func NewQuoteService(pool *pgxpool.Pool, docService DocumentService) QuoteService {
	return &quoteService{pool: pool, docService: docService}
}

func (s *quoteService) CreateQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("quote must have at least one line")
	}
	if req.ValidUntil != "" {
		if _, err := time.Parse("2006-01-02", req.ValidUntil); err != nil {
			return nil, fmt.Errorf("invalid valid-until date %q: %w", req.ValidUntil, err)
		}
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

	resolved, err := resolveBillingLines(ctx, tx, companyID, req.Lines)
	if err != nil {
		return nil, err
	}

	// Quotes always price HALF_UP; the rounding mode choice belongs to the
	// invoice the quote eventually becomes.
	result, err := CalculateTotals(previewLineItems(resolved), discountInputs(req.Discounts), req.TaxRate, RoundHalfUp)
	if err != nil {
		return nil, fmt.Errorf("quote pricing failed: %w", err)
	}

	var quoteID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotes (company_id, customer_id, status, currency, tax_rate,
		                    subtotal, discount_total, tax_amount, grand_total, valid_until, notes)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10)
		RETURNING id
	`, companyID, customerID, req.Currency, req.TaxRate,
		result.Subtotal, result.DiscountAmount, result.TaxAmount, result.GrandTotal,
		req.ValidUntil, req.Notes).Scan(&quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quote: %w", err)
	}

	for i, rl := range resolved {
		pl := result.LineItems[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO quote_lines (quote_id, line_number, sku_id, sku_code, description, qty, unit_price,
			                         category, discountable, is_surcharge, line_subtotal, discount_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, quoteID, i+1, rl.skuID, rl.skuCode, rl.description, rl.qty, rl.unitPrice,
			rl.category, rl.discountable, rl.isSurcharge, pl.LineSubtotal, pl.DiscountAmount, pl.AfterDiscounts)
		if err != nil {
			return nil, fmt.Errorf("failed to insert quote line %d: %w", i+1, err)
		}
	}

	for _, d := range req.Discounts {
		applied := decimal.Zero
		for _, ad := range result.AppliedDiscounts {
			if ad.DiscountID == d.Code {
				applied = ad.Amount
				break
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO quote_discounts (quote_id, code, type, value, scope, description, amount_applied)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, quoteID, d.Code, string(d.Type), d.Value, d.Scope, d.Description, applied)
		if err != nil {
			return nil, fmt.Errorf("failed to insert quote discount %s: %w", d.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote creation: %w", err)
	}

	return s.GetQuote(ctx, quoteID)
}

// transition moves a quote between statuses under FOR UPDATE, optionally
// assigning the quote number.
func (s *quoteService) transition(ctx context.Context, quoteID int, from, to string, assignNumber bool) (*Quote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID int
	var status string
	err = tx.QueryRow(ctx, "SELECT company_id, status FROM quotes WHERE id = $1 FOR UPDATE", quoteID).
		Scan(&companyID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to fetch quote %d: %w", quoteID, err)
	}
	if status != from {
		return nil, fmt.Errorf("quote %d cannot move to %s: status is %s (must be %s)", quoteID, to, status, from)
	}

	if assignNumber {
		fy := time.Now().Year()
		number, err := s.docService.IssueNumberTx(ctx, tx, companyID, DocTypeQuote, &fy)
		if err != nil {
			return nil, fmt.Errorf("failed to assign quote number: %w", err)
		}
		_, err = tx.Exec(ctx, "UPDATE quotes SET status = $1, quote_number = $2 WHERE id = $3", to, number, quoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to update quote %d: %w", quoteID, err)
		}
	} else {
		_, err = tx.Exec(ctx, "UPDATE quotes SET status = $1 WHERE id = $2", to, quoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to update quote %d: %w", quoteID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote transition: %w", err)
	}
	return s.GetQuote(ctx, quoteID)
}

func (s *quoteService) SendQuote(ctx context.Context, quoteID int) (*Quote, error) {
	return s.transition(ctx, quoteID, QuoteStatusDraft, QuoteStatusSent, true)
}

func (s *quoteService) AcceptQuote(ctx context.Context, quoteID int) (*Quote, error) {
	return s.transition(ctx, quoteID, QuoteStatusSent, QuoteStatusAccepted, false)
}

func (s *quoteService) ExpireQuote(ctx context.Context, quoteID int) (*Quote, error) {
	quote, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != QuoteStatusDraft && quote.Status != QuoteStatusSent {
		return nil, fmt.Errorf("quote %d cannot expire: status is %s", quoteID, quote.Status)
	}
	return s.transition(ctx, quoteID, quote.Status, QuoteStatusExpired, false)
}

func (s *quoteService) ConvertToInvoice(ctx context.Context, quoteID int, invoices InvoiceService) (*Invoice, error) {
	quote, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != QuoteStatusAccepted {
		return nil, fmt.Errorf("quote %s cannot convert: status is %s (must be ACCEPTED)", quote.QuoteNumber, quote.Status)
	}

	var companyCode string
	if err := s.pool.QueryRow(ctx, "SELECT company_code FROM companies WHERE id = $1", quote.CompanyID).Scan(&companyCode); err != nil {
		return nil, fmt.Errorf("failed to resolve company for quote %d: %w", quoteID, err)
	}

	req := InvoiceRequest{
		CompanyCode:  companyCode,
		CustomerCode: quote.CustomerCode,
		Currency:     quote.Currency,
		TaxRate:      quote.TaxRate,
		RoundingMode: RoundHalfUp,
		Notes:        fmt.Sprintf("Converted from quote %s", quote.QuoteNumber),
	}
	for _, l := range quote.Lines {
		req.Lines = append(req.Lines, InvoiceLineInput{
			SKUCode:     l.SKUCode,
			Description: l.Description,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
		})
	}
	for _, d := range quote.Discounts {
		req.Discounts = append(req.Discounts, DiscountInput{
			Code:        d.Code,
			Type:        d.Type,
			Value:       d.Value,
			Scope:       d.Scope,
			Description: d.Description,
		})
	}

	invoice, err := invoices.CreateInvoice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice from quote %s: %w", quote.QuoteNumber, err)
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE quotes SET status = 'CONVERTED', converted_invoice_id = $1 WHERE id = $2",
		invoice.ID, quoteID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark quote %d as CONVERTED: %w", quoteID, err)
	}

	return invoice, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *quoteService) GetQuote(ctx context.Context, quoteID int) (*Quote, error) {
	var q Quote
	err := s.pool.QueryRow(ctx, `
		SELECT q.id, q.company_id, COALESCE(q.quote_number, ''), q.customer_id, c.code, c.name,
		       q.status, q.currency, q.tax_rate,
		       q.subtotal, q.discount_total, q.tax_amount, q.grand_total,
		       COALESCE(q.valid_until::text, ''), q.notes, q.converted_invoice_id, q.created_at
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.id = $1
	`, quoteID).Scan(
		&q.ID, &q.CompanyID, &q.QuoteNumber, &q.CustomerID, &q.CustomerCode, &q.CustomerName,
		&q.Status, &q.Currency, &q.TaxRate,
		&q.Subtotal, &q.DiscountTotal, &q.TaxAmount, &q.GrandTotal,
		&q.ValidUntil, &q.Notes, &q.ConvertedInvoiceID, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to fetch quote %d: %w", quoteID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, quote_id, line_number, sku_id, sku_code, description, qty, unit_price,
		       category, discountable, is_surcharge, line_subtotal, discount_amount, line_total
		FROM quote_lines
		WHERE quote_id = $1
		ORDER BY line_number
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.LineNumber, &l.SKUID, &l.SKUCode, &l.Description, &l.Qty, &l.UnitPrice,
			&l.Category, &l.Discountable, &l.IsSurcharge, &l.LineSubtotal, &l.DiscountAmount, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote line: %w", err)
		}
		q.Lines = append(q.Lines, l)
	}
	rows.Close()

	drows, err := s.pool.Query(ctx, `
		SELECT id, quote_id, code, type, value, scope, description, amount_applied
		FROM quote_discounts
		WHERE quote_id = $1
		ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote discounts: %w", err)
	}
	defer drows.Close()

	for drows.Next() {
		var d InvoiceDiscount
		var dType string
		if err := drows.Scan(&d.ID, &d.InvoiceID, &d.Code, &dType, &d.Value, &d.Scope, &d.Description, &d.AmountApplied); err != nil {
			return nil, fmt.Errorf("failed to scan quote discount: %w", err)
		}
		d.Type = DiscountType(dType)
		q.Discounts = append(q.Discounts, d)
	}
	return &q, nil
}

func (s *quoteService) GetQuotes(ctx context.Context, companyCode string, status *string) ([]Quote, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT q.id, q.company_id, COALESCE(q.quote_number, ''), q.customer_id, c.code, c.name,
		       q.status, q.currency, q.tax_rate,
		       q.subtotal, q.discount_total, q.tax_amount, q.grand_total,
		       COALESCE(q.valid_until::text, ''), q.notes, q.converted_invoice_id, q.created_at
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.company_id = $1
	`
	args := []any{companyID}
	if status != nil {
		query += " AND q.status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY q.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(
			&q.ID, &q.CompanyID, &q.QuoteNumber, &q.CustomerID, &q.CustomerCode, &q.CustomerName,
			&q.Status, &q.Currency, &q.TaxRate,
			&q.Subtotal, &q.DiscountTotal, &q.TaxAmount, &q.GrandTotal,
			&q.ValidUntil, &q.Notes, &q.ConvertedInvoiceID, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
