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

// RMAService manages return merchandise authorizations. Processing an RMA is
// the richest money-moving workflow in the system: it sizes a credit memo
// with the totals engine, books the credit journal, and applies each line's
// disposition (restock, disposal, return-to-vendor, repair) with its own
// accounting treatment.
type RMAService interface {
	// RequestRMA validates the return against its invoice and creates the
	// RMA in REQUESTED status with a number assigned.
	RequestRMA(ctx context.Context, req RMARequest) (*RMA, error)
	// ReceiveRMA transitions REQUESTED → RECEIVED when goods hit the dock.
	ReceiveRMA(ctx context.Context, rmaID int) (*RMA, error)
	// ProcessRMA transitions RECEIVED → PROCESSED: credit memo, credit
	// journal, and per-line dispositions, all in one transaction.
	ProcessRMA(ctx context.Context, rmaID int) (*RMA, error)
	// RejectRMA transitions REQUESTED → REJECTED. Nothing is booked.
	RejectRMA(ctx context.Context, rmaID int, reason string) (*RMA, error)

	GetRMA(ctx context.Context, rmaID int) (*RMA, error)
	GetRMAs(ctx context.Context, companyCode string, status *string) ([]RMA, error)
}

// RMARequest holds everything needed to open an RMA against an invoice.
type RMARequest struct {
	CompanyCode   string
	InvoiceNumber string
	Reason        string
	Lines         []RMALineInput
}

type rmaService struct {
	pool       *pgxpool.Pool
	ruleEngine RuleEngine
	poster     *GLPoster
	ledger     *Ledger
	docService DocumentService
	inventory  InventoryService
}

func NewRMAService(pool *pgxpool.Pool, ruleEngine RuleEngine, poster *GLPoster, ledger *Ledger, docService DocumentService, inventory InventoryService) RMAService {
	return &rmaService{pool: pool, ruleEngine: ruleEngine, poster: poster, ledger: ledger, docService: docService, inventory: inventory}
}

func (s *rmaService) RequestRMA(ctx context.Context, req RMARequest) (*RMA, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("rma must have at least one line")
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

	var invoiceID, customerID int
	var invoiceStatus string
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, status FROM invoices
		WHERE company_id = $1 AND invoice_number = $2
	`, companyID, req.InvoiceNumber).Scan(&invoiceID, &customerID, &invoiceStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s not found for company %s", req.InvoiceNumber, req.CompanyCode)
		}
		return nil, fmt.Errorf("failed to resolve invoice: %w", err)
	}
	if invoiceStatus != InvoiceStatusIssued && invoiceStatus != InvoiceStatusPaid {
		return nil, fmt.Errorf("invoice %s cannot be returned against: status is %s", req.InvoiceNumber, invoiceStatus)
	}

	// Validate each requested line against the invoice and its disposition
	// prerequisites before inserting anything.
	type pendingLine struct {
		input RMALineInput
		line  InvoiceLine
	}
	var pending []pendingLine
	for i, input := range req.Lines {
		var il InvoiceLine
		err := tx.QueryRow(ctx, `
			SELECT id, invoice_id, sku_id, sku_code, description, qty, unit_price,
			       category, discountable, is_surcharge
			FROM invoice_lines
			WHERE id = $1 AND invoice_id = $2
		`, input.InvoiceLineID, invoiceID).Scan(
			&il.ID, &il.InvoiceID, &il.SKUID, &il.SKUCode, &il.Description, &il.Qty, &il.UnitPrice,
			&il.Category, &il.Discountable, &il.IsSurcharge,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("line %d: invoice line %d does not belong to invoice %s", i+1, input.InvoiceLineID, req.InvoiceNumber)
			}
			return nil, fmt.Errorf("line %d: failed to resolve invoice line: %w", i+1, err)
		}

		if !input.Qty.IsPositive() {
			return nil, fmt.Errorf("line %d: return qty must be > 0, got %s", i+1, input.Qty)
		}
		if input.Qty.GreaterThan(il.Qty) {
			return nil, fmt.Errorf("line %d: return qty %s exceeds invoiced qty %s", i+1, input.Qty, il.Qty)
		}

		switch input.Disposition {
		case DispositionRestock:
			if input.WarehouseCode == "" {
				return nil, fmt.Errorf("line %d: RESTOCK disposition requires a warehouse code", i+1)
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM warehouses WHERE company_id = $1 AND code = $2 AND is_active = true)",
				companyID, input.WarehouseCode).Scan(&exists); err != nil {
				return nil, fmt.Errorf("line %d: failed to verify warehouse: %w", i+1, err)
			}
			if !exists {
				return nil, fmt.Errorf("line %d: warehouse %s not found for company %s", i+1, input.WarehouseCode, req.CompanyCode)
			}
		case DispositionRTV:
			if input.VendorCode == "" {
				return nil, fmt.Errorf("line %d: RTV disposition requires a vendor code", i+1)
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM vendors WHERE company_id = $1 AND code = $2 AND is_active = true)",
				companyID, input.VendorCode).Scan(&exists); err != nil {
				return nil, fmt.Errorf("line %d: failed to verify vendor: %w", i+1, err)
			}
			if !exists {
				return nil, fmt.Errorf("line %d: vendor %s not found for company %s", i+1, input.VendorCode, req.CompanyCode)
			}
		case DispositionDisposal, DispositionRepair:
			// No extra prerequisites.
		default:
			return nil, fmt.Errorf("line %d: unknown disposition %q", i+1, input.Disposition)
		}

		pending = append(pending, pendingLine{input: input, line: il})
	}

	fy := time.Now().Year()
	rmaNumber, err := s.docService.IssueNumberTx(ctx, tx, companyID, DocTypeRMA, &fy)
	if err != nil {
		return nil, fmt.Errorf("failed to assign rma number: %w", err)
	}

	var rmaID int
	err = tx.QueryRow(ctx, `
		INSERT INTO rmas (company_id, rma_number, invoice_id, customer_id, status, reason, credit_amount)
		VALUES ($1, $2, $3, $4, 'REQUESTED', $5, 0)
		RETURNING id
	`, companyID, rmaNumber, invoiceID, customerID, req.Reason).Scan(&rmaID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rma: %w", err)
	}

	for i, p := range pending {
		_, err = tx.Exec(ctx, `
			INSERT INTO rma_lines (rma_id, line_number, invoice_line_id, sku_id, sku_code, description,
			                       qty, unit_price, category, discountable, is_surcharge,
			                       disposition, warehouse_code, vendor_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), NULLIF($14, ''))
		`, rmaID, i+1, p.line.ID, p.line.SKUID, p.line.SKUCode, p.line.Description,
			p.input.Qty, p.line.UnitPrice, p.line.Category, p.line.Discountable, p.line.IsSurcharge,
			string(p.input.Disposition), p.input.WarehouseCode, p.input.VendorCode)
		if err != nil {
			return nil, fmt.Errorf("failed to insert rma line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rma request: %w", err)
	}

	return s.GetRMA(ctx, rmaID)
}

func (s *rmaService) ReceiveRMA(ctx context.Context, rmaID int) (*RMA, error) {
	res, err := s.pool.Exec(ctx, `
		UPDATE rmas SET status = 'RECEIVED', received_at = NOW()
		WHERE id = $1 AND status = 'REQUESTED'
	`, rmaID)
	if err != nil {
		return nil, fmt.Errorf("failed to receive rma %d: %w", rmaID, err)
	}
	if res.RowsAffected() == 0 {
		rma, err := s.GetRMA(ctx, rmaID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("rma %s cannot be received: status is %s (must be REQUESTED)", rma.RMANumber, rma.Status)
	}
	return s.GetRMA(ctx, rmaID)
}

func (s *rmaService) RejectRMA(ctx context.Context, rmaID int, reason string) (*RMA, error) {
	res, err := s.pool.Exec(ctx, `
		UPDATE rmas SET status = 'REJECTED', reason = reason || ' | rejected: ' || $2
		WHERE id = $1 AND status = 'REQUESTED'
	`, rmaID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to reject rma %d: %w", rmaID, err)
	}
	if res.RowsAffected() == 0 {
		rma, err := s.GetRMA(ctx, rmaID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("rma %s cannot be rejected: status is %s (must be REQUESTED)", rma.RMANumber, rma.Status)
	}
	return s.GetRMA(ctx, rmaID)
}

func (s *rmaService) ProcessRMA(ctx context.Context, rmaID int) (*RMA, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID, invoiceID int
	var status, rmaNumber string
	err = tx.QueryRow(ctx,
		"SELECT company_id, invoice_id, status, rma_number FROM rmas WHERE id = $1 FOR UPDATE",
		rmaID).Scan(&companyID, &invoiceID, &status, &rmaNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("rma %d not found", rmaID)
		}
		return nil, fmt.Errorf("failed to fetch rma %d: %w", rmaID, err)
	}
	if status != RMAStatusReceived {
		return nil, fmt.Errorf("rma %s cannot be processed: status is %s (must be RECEIVED)", rmaNumber, status)
	}

	invoice, err := fetchInvoiceQ(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := fetchRMALinesQ(ctx, tx, rmaID)
	if err != nil {
		return nil, err
	}

	// Size the credit memo: re-price the returned quantities under the
	// invoice's own discounts and tax rate so the customer is credited what
	// they were actually charged. Flat discounts are scaled to the returned
	// share of their eligible base; applying them at full value would
	// over-discount a partial return.
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
	discounts := prorateFlatDiscounts(billingDiscounts(invoice.Discounts), invoice.Lines, lines)
	credit, err := CalculateTotals(items, discounts, invoice.TaxRate, invoice.RoundingMode)
	if err != nil {
		return nil, fmt.Errorf("rma %s credit memo calculation failed: %w", rmaNumber, err)
	}

	fy := time.Now().Year()
	creditMemoNumber, err := s.docService.IssueNumberTx(ctx, tx, companyID, DocTypeCreditMemo, &fy)
	if err != nil {
		return nil, fmt.Errorf("failed to assign credit memo number: %w", err)
	}

	salesReturnsAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleSalesReturns)
	if err != nil {
		return nil, err
	}
	arAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleAR)
	if err != nil {
		return nil, err
	}

	// DR sales returns for the net, DR tax payable for the tax, CR AR for the
	// full credit. Mirrors the invoice posting with sides flipped.
	memo := fmt.Sprintf("credit memo %s for rma %s", creditMemoNumber, rmaNumber)
	entries := []GLEntry{
		{Acct: salesReturnsAcct, Debit: credit.AfterDiscounts, Memo: memo},
	}
	if credit.TaxAmount.IsPositive() {
		taxAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleTaxPayable)
		if err != nil {
			return nil, err
		}
		entries = append(entries, GLEntry{Acct: taxAcct, Debit: credit.TaxAmount, Memo: memo})
	}
	entries = append(entries, GLEntry{Acct: arAcct, Credit: credit.GrandTotal, Memo: memo})

	creditSource := GLSource{Version: "1", Module: "rma", SourceRef: creditMemoNumber, Entries: entries}
	creditResult, err := s.poster.Post(creditSource)
	if err != nil {
		return nil, fmt.Errorf("rma %s credit journal rejected: %w", rmaNumber, err)
	}
	narration := fmt.Sprintf("Credit memo %s for RMA %s against invoice %s", creditMemoNumber, rmaNumber, invoice.InvoiceNumber)
	if _, err := s.ledger.RecordTx(ctx, tx, companyID, creditSource, creditResult, narration); err != nil {
		return nil, fmt.Errorf("failed to record credit journal: %w", err)
	}

	// Apply each line's disposition. Disposition journals value the stock at
	// the line's net credit amount.
	creditByLine := make(map[int]decimal.Decimal, len(credit.LineItems))
	for _, pl := range credit.LineItems {
		id, err := strconv.Atoi(pl.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected line id %q in credit calculation", pl.ID)
		}
		creditByLine[id] = pl.AfterDiscounts
	}

	for _, l := range lines {
		lineValue := creditByLine[l.ID]
		lineMemo := fmt.Sprintf("rma %s line %d (%s)", rmaNumber, l.LineNumber, l.SKUCode)

		var dispEntries []GLEntry
		switch l.Disposition {
		case DispositionRestock:
			if err := s.inventory.AdjustStockTx(ctx, tx, companyID, *l.WarehouseCode, l.SKUID, l.Qty); err != nil {
				return nil, fmt.Errorf("rma %s line %d restock failed: %w", rmaNumber, l.LineNumber, err)
			}
		case DispositionDisposal:
			disposalAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleDisposalExpense)
			if err != nil {
				return nil, err
			}
			inventoryAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleInventoryAsset)
			if err != nil {
				return nil, err
			}
			dispEntries = DisposalGLEntries(lineValue, disposalAcct, inventoryAcct, lineMemo)
		case DispositionRTV:
			rtvAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleRTVClearing)
			if err != nil {
				return nil, err
			}
			inventoryAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleInventoryAsset)
			if err != nil {
				return nil, err
			}
			dispEntries = []GLEntry{
				{Acct: rtvAcct, Debit: lineValue, Memo: lineMemo},
				{Acct: inventoryAcct, Credit: lineValue, Memo: lineMemo},
			}
		case DispositionRepair:
			repairAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleRepairExpense)
			if err != nil {
				return nil, err
			}
			inventoryAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleInventoryAsset)
			if err != nil {
				return nil, err
			}
			dispEntries = []GLEntry{
				{Acct: repairAcct, Debit: lineValue, Memo: lineMemo},
				{Acct: inventoryAcct, Credit: lineValue, Memo: lineMemo},
			}
		}

		// A zero-value line (fully discounted) has nothing to book.
		if dispEntries != nil && lineValue.IsPositive() {
			dispSource := GLSource{Version: "1", Module: "rma", SourceRef: rmaNumber, Entries: dispEntries}
			dispResult, err := s.poster.Post(dispSource)
			if err != nil {
				return nil, fmt.Errorf("rma %s line %d disposition journal rejected: %w", rmaNumber, l.LineNumber, err)
			}
			dispNarration := fmt.Sprintf("RMA %s line %d disposition %s", rmaNumber, l.LineNumber, l.Disposition)
			if _, err := s.ledger.RecordTx(ctx, tx, companyID, dispSource, dispResult, dispNarration); err != nil {
				return nil, fmt.Errorf("failed to record disposition journal: %w", err)
			}
			if _, err := tx.Exec(ctx,
				"UPDATE rma_lines SET disposition_ref = $1 WHERE id = $2",
				dispResult.JournalID, l.ID); err != nil {
				return nil, fmt.Errorf("failed to tag rma line %d: %w", l.ID, err)
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE rmas
		SET status = 'PROCESSED', credit_memo_number = $1, credit_journal_id = $2,
		    credit_amount = $3, processed_at = NOW()
		WHERE id = $4
	`, creditMemoNumber, creditResult.JournalID, credit.GrandTotal, rmaID); err != nil {
		return nil, fmt.Errorf("failed to mark rma %d as PROCESSED: %w", rmaID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rma processing: %w", err)
	}

	return s.GetRMA(ctx, rmaID)
}

// prorateFlatDiscounts scales each flat discount to the fraction of its
// eligible base that is being returned, so a partial return carries only the
// portion of the flat amount its lines absorbed on the invoice. Percent
// discounts pass through unchanged; they pro-rate by construction.
func prorateFlatDiscounts(discounts []Discount, invoiced []InvoiceLine, returned []RMALine) []Discount {
	out := make([]Discount, len(discounts))
	for i, d := range discounts {
		out[i] = d
		if d.Type != DiscountFlat || d.Value.IsZero() {
			continue
		}
		invoicedBase := decimal.Zero
		for _, il := range invoiced {
			if scopeMatches(il.Discountable, il.IsSurcharge, il.Category, d.Scope) {
				invoicedBase = invoicedBase.Add(il.LineSubtotal)
			}
		}
		if invoicedBase.IsZero() {
			continue
		}
		returnedBase := decimal.Zero
		for _, rl := range returned {
			if scopeMatches(rl.Discountable, rl.IsSurcharge, rl.Category, d.Scope) {
				returnedBase = returnedBase.Add(rl.Qty.Mul(rl.UnitPrice).Round(2))
			}
		}
		out[i].Value = d.Value.Mul(returnedBase).Div(invoicedBase).Round(2)
	}
	return out
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *rmaService) GetRMA(ctx context.Context, rmaID int) (*RMA, error) {
	var r RMA
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.company_id, r.rma_number, r.invoice_id, COALESCE(i.invoice_number, ''),
		       r.customer_id, c.code, c.name, r.status, r.reason,
		       r.credit_memo_number, r.credit_journal_id, r.credit_amount,
		       r.created_at, r.received_at, r.processed_at
		FROM rmas r
		JOIN invoices i ON i.id = r.invoice_id
		JOIN customers c ON c.id = r.customer_id
		WHERE r.id = $1
	`, rmaID).Scan(
		&r.ID, &r.CompanyID, &r.RMANumber, &r.InvoiceID, &r.InvoiceNumber,
		&r.CustomerID, &r.CustomerCode, &r.CustomerName, &r.Status, &r.Reason,
		&r.CreditMemoNumber, &r.CreditJournalID, &r.CreditAmount,
		&r.CreatedAt, &r.ReceivedAt, &r.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("rma %d not found", rmaID)
		}
		return nil, fmt.Errorf("failed to fetch rma %d: %w", rmaID, err)
	}

	lines, err := fetchRMALinesQ(ctx, s.pool, rmaID)
	if err != nil {
		return nil, err
	}
	r.Lines = lines
	return &r, nil
}

func (s *rmaService) GetRMAs(ctx context.Context, companyCode string, status *string) ([]RMA, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.company_id, r.rma_number, r.invoice_id, COALESCE(i.invoice_number, ''),
		       r.customer_id, c.code, c.name, r.status, r.reason,
		       r.credit_memo_number, r.credit_journal_id, r.credit_amount,
		       r.created_at, r.received_at, r.processed_at
		FROM rmas r
		JOIN invoices i ON i.id = r.invoice_id
		JOIN customers c ON c.id = r.customer_id
		WHERE r.company_id = $1
	`
	args := []any{companyID}
	if status != nil {
		query += " AND r.status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY r.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rmas: %w", err)
	}
	defer rows.Close()

	var rmas []RMA
	for rows.Next() {
		var r RMA
		if err := rows.Scan(
			&r.ID, &r.CompanyID, &r.RMANumber, &r.InvoiceID, &r.InvoiceNumber,
			&r.CustomerID, &r.CustomerCode, &r.CustomerName, &r.Status, &r.Reason,
			&r.CreditMemoNumber, &r.CreditJournalID, &r.CreditAmount,
			&r.CreatedAt, &r.ReceivedAt, &r.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rma: %w", err)
		}
		rmas = append(rmas, r)
	}
	return rmas, nil
}

func fetchRMALinesQ(ctx context.Context, q pgxQuerier, rmaID int) ([]RMALine, error) {
	rq, ok := q.(pgxRowQuerier)
	if !ok {
		return nil, fmt.Errorf("querier does not support multi-row queries")
	}
	rows, err := rq.Query(ctx, `
		SELECT id, rma_id, line_number, invoice_line_id, sku_id, sku_code, description,
		       qty, unit_price, category, discountable, is_surcharge,
		       disposition, warehouse_code, vendor_code, disposition_ref
		FROM rma_lines
		WHERE rma_id = $1
		ORDER BY line_number
	`, rmaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rma lines: %w", err)
	}
	defer rows.Close()

	var lines []RMALine
	for rows.Next() {
		var l RMALine
		var disposition string
		if err := rows.Scan(
			&l.ID, &l.RMAID, &l.LineNumber, &l.InvoiceLineID, &l.SKUID, &l.SKUCode, &l.Description,
			&l.Qty, &l.UnitPrice, &l.Category, &l.Discountable, &l.IsSurcharge,
			&disposition, &l.WarehouseCode, &l.VendorCode, &l.DispositionRef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rma line: %w", err)
		}
		l.Disposition = Disposition(disposition)
		lines = append(lines, l)
	}
	return lines, nil
}
