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

// PaymentService applies customer payments against issued invoices and books
// the cash receipt journal.
type PaymentService interface {
	// RecordPayment books DR bank / CR accounts receivable for the amount,
	// assigns a receipt number, and marks the invoice PAID when its balance
	// reaches zero. Overpayment is rejected, never clamped.
	RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentReceipt, error)
	GetPayments(ctx context.Context, companyCode string, invoiceID *int) ([]PaymentReceipt, error)
}

// PaymentRequest identifies the invoice and the money received.
type PaymentRequest struct {
	CompanyCode     string
	InvoiceNumber   string
	Amount          decimal.Decimal
	BankAccountCode string // empty means "resolve the BANK account rule"
	PaymentDate     string // YYYY-MM-DD; empty means today
	Method          string
	Reference       string
}

type paymentService struct {
	pool       *pgxpool.Pool
	ruleEngine RuleEngine
	poster     *GLPoster
	ledger     *Ledger
	docService DocumentService
}

func NewPaymentService(pool *pgxpool.Pool, ruleEngine RuleEngine, poster *GLPoster, ledger *Ledger, docService DocumentService) PaymentService {
	return &paymentService{pool: pool, ruleEngine: ruleEngine, poster: poster, ledger: ledger, docService: docService}
}

func (s *paymentService) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentReceipt, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be > 0, got %s", req.Amount)
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, fmt.Errorf("payment amount %s has more than 2 decimal places", req.Amount)
	}
	if req.PaymentDate == "" {
		req.PaymentDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.PaymentDate); err != nil {
		return nil, fmt.Errorf("invalid payment date %q: %w", req.PaymentDate, err)
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

	var invoiceID int
	var status string
	var grandTotal, amountPaid decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT id, status, grand_total, amount_paid
		FROM invoices
		WHERE company_id = $1 AND invoice_number = $2
		FOR UPDATE
	`, companyID, req.InvoiceNumber).Scan(&invoiceID, &status, &grandTotal, &amountPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s not found for company %s", req.InvoiceNumber, req.CompanyCode)
		}
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", req.InvoiceNumber, err)
	}
	if status != InvoiceStatusIssued {
		return nil, fmt.Errorf("invoice %s cannot accept payment: status is %s (must be ISSUED)", req.InvoiceNumber, status)
	}

	outstanding := grandTotal.Sub(amountPaid)
	if req.Amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("payment %s exceeds outstanding balance %s on invoice %s",
			req.Amount.StringFixed(2), outstanding.StringFixed(2), req.InvoiceNumber)
	}

	bankAcct := req.BankAccountCode
	if bankAcct == "" {
		if bankAcct, err = s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleBank); err != nil {
			return nil, err
		}
	}
	arAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleAR)
	if err != nil {
		return nil, err
	}

	fy := time.Now().Year()
	receiptNumber, err := s.docService.IssueNumberTx(ctx, tx, companyID, DocTypeReceipt, &fy)
	if err != nil {
		return nil, fmt.Errorf("failed to assign receipt number: %w", err)
	}

	memo := fmt.Sprintf("payment %s for invoice %s", receiptNumber, req.InvoiceNumber)
	source := GLSource{
		Version:   "1",
		Module:    "payments",
		SourceRef: receiptNumber,
		Entries:   PaymentGLEntries(req.Amount, bankAcct, arAcct, memo),
	}
	postResult, err := s.poster.Post(source)
	if err != nil {
		return nil, fmt.Errorf("payment journal rejected: %w", err)
	}

	narration := fmt.Sprintf("Payment %s received against invoice %s", receiptNumber, req.InvoiceNumber)
	if _, err := s.ledger.RecordTx(ctx, tx, companyID, source, postResult, narration); err != nil {
		return nil, fmt.Errorf("failed to record payment journal: %w", err)
	}

	var receiptID int
	err = tx.QueryRow(ctx, `
		INSERT INTO payment_receipts (company_id, receipt_number, invoice_id, amount, bank_account_code,
		                              payment_date, method, reference, journal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, companyID, receiptNumber, invoiceID, req.Amount, bankAcct,
		req.PaymentDate, req.Method, req.Reference, postResult.JournalID).Scan(&receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment receipt: %w", err)
	}

	newPaid := amountPaid.Add(req.Amount)
	if newPaid.Equal(grandTotal) {
		_, err = tx.Exec(ctx,
			"UPDATE invoices SET amount_paid = $1, status = 'PAID', paid_at = NOW() WHERE id = $2",
			newPaid, invoiceID)
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE invoices SET amount_paid = $1 WHERE id = $2",
			newPaid, invoiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return s.getPayment(ctx, receiptID)
}

func (s *paymentService) getPayment(ctx context.Context, receiptID int) (*PaymentReceipt, error) {
	var p PaymentReceipt
	err := s.pool.QueryRow(ctx, `
		SELECT pr.id, pr.company_id, pr.receipt_number, pr.invoice_id, COALESCE(i.invoice_number, ''),
		       pr.amount, pr.bank_account_code, pr.payment_date::text, pr.method, pr.reference,
		       pr.journal_id, pr.created_at
		FROM payment_receipts pr
		JOIN invoices i ON i.id = pr.invoice_id
		WHERE pr.id = $1
	`, receiptID).Scan(
		&p.ID, &p.CompanyID, &p.ReceiptNumber, &p.InvoiceID, &p.InvoiceNumber,
		&p.Amount, &p.BankAccountCode, &p.PaymentDate, &p.Method, &p.Reference,
		&p.JournalID, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment receipt %d: %w", receiptID, err)
	}
	return &p, nil
}

func (s *paymentService) GetPayments(ctx context.Context, companyCode string, invoiceID *int) ([]PaymentReceipt, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT pr.id, pr.company_id, pr.receipt_number, pr.invoice_id, COALESCE(i.invoice_number, ''),
		       pr.amount, pr.bank_account_code, pr.payment_date::text, pr.method, pr.reference,
		       pr.journal_id, pr.created_at
		FROM payment_receipts pr
		JOIN invoices i ON i.id = pr.invoice_id
		WHERE pr.company_id = $1
	`
	args := []any{companyID}
	if invoiceID != nil {
		query += " AND pr.invoice_id = $2"
		args = append(args, *invoiceID)
	}
	query += " ORDER BY pr.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment receipts: %w", err)
	}
	defer rows.Close()

	var receipts []PaymentReceipt
	for rows.Next() {
		var p PaymentReceipt
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.ReceiptNumber, &p.InvoiceID, &p.InvoiceNumber,
			&p.Amount, &p.BankAccountCode, &p.PaymentDate, &p.Method, &p.Reference,
			&p.JournalID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment receipt: %w", err)
		}
		receipts = append(receipts, p)
	}
	return receipts, nil
}
