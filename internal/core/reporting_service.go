package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// ARAgingRow buckets a customer's outstanding invoice balances by age since
// issue. Total is the sum of the four buckets.
type ARAgingRow struct {
	CustomerCode string          `json:"customer_code"`
	CustomerName string          `json:"customer_name"`
	Current      decimal.Decimal `json:"current"` // 0–30 days
	Days31to60   decimal.Decimal `json:"days_31_60"`
	Days61to90   decimal.Decimal `json:"days_61_90"`
	Over90       decimal.Decimal `json:"over_90"`
	Total        decimal.Decimal `json:"total"`
}

// CategoryRevenueRow is invoiced revenue grouped by SKU category, net of
// line-level discounts, for issued and paid invoices.
type CategoryRevenueRow struct {
	Category   string          `json:"category"`
	GrossTotal decimal.Decimal `json:"gross_total"` // before discounts
	Discounts  decimal.Decimal `json:"discounts"`
	NetTotal   decimal.Decimal `json:"net_total"`
}

// DiscountUsageRow summarizes how often a discount code was applied and how
// much revenue it gave away.
type DiscountUsageRow struct {
	Code         string          `json:"code"`
	Type         DiscountType    `json:"type"`
	TimesApplied int             `json:"times_applied"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// StatementLine represents a single journal line in an account statement.
// RunningBalance is the cumulative net-debit position after this line
// (positive = net debit, negative = net credit).
type StatementLine struct {
	PostedAt       string          `json:"posted_at"`
	JournalID      string          `json:"journal_id"`
	Module         string          `json:"module"`
	SourceRef      string          `json:"source_ref"`
	Narration      string          `json:"narration"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reporting queries over invoices and the
// ledger.
type ReportingService interface {
	// GetARAging buckets outstanding balances of ISSUED invoices by days
	// since issue, as of asOfDate (empty means today).
	GetARAging(ctx context.Context, companyCode, asOfDate string) ([]ARAgingRow, error)

	// GetRevenueByCategory sums invoiced line revenue per SKU category for
	// issued and paid invoices in the given date range. Empty bounds are open.
	GetRevenueByCategory(ctx context.Context, companyCode, fromDate, toDate string) ([]CategoryRevenueRow, error)

	// GetDiscountUsage summarizes applied discount codes across issued and
	// paid invoices.
	GetDiscountUsage(ctx context.Context, companyCode string) ([]DiscountUsageRow, error)

	// GetAccountStatement returns all journal lines for an account within the
	// given date range, ordered by posting time then entry id. fromDate and
	// toDate are optional; pass empty string for no bound.
	GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) ([]StatementLine, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) GetARAging(ctx context.Context, companyCode, asOfDate string) ([]ARAgingRow, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	if asOfDate == "" {
		asOfDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", asOfDate); err != nil {
		return nil, fmt.Errorf("invalid as-of date %q: %w", asOfDate, err)
	}

	// Bucket each open invoice's outstanding balance by age, then pivot per
	// customer in one pass.
	const q = `
		SELECT c.code, c.name,
		       ($2::date - i.issued_at::date) AS age_days,
		       i.grand_total - i.amount_paid  AS outstanding
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.company_id = $1
		  AND i.status = 'ISSUED'
		  AND i.issued_at::date <= $2::date
		  AND i.grand_total > i.amount_paid
		ORDER BY c.code`

	rows, err := s.pool.Query(ctx, q, companyID, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query AR aging: %w", err)
	}
	defer rows.Close()

	var report []ARAgingRow
	index := map[string]int{}
	for rows.Next() {
		var code, name string
		var ageDays int
		var outstanding decimal.Decimal
		if err := rows.Scan(&code, &name, &ageDays, &outstanding); err != nil {
			return nil, fmt.Errorf("failed to scan AR aging row: %w", err)
		}

		i, ok := index[code]
		if !ok {
			report = append(report, ARAgingRow{CustomerCode: code, CustomerName: name})
			i = len(report) - 1
			index[code] = i
		}
		row := &report[i]
		switch {
		case ageDays <= 30:
			row.Current = row.Current.Add(outstanding)
		case ageDays <= 60:
			row.Days31to60 = row.Days31to60.Add(outstanding)
		case ageDays <= 90:
			row.Days61to90 = row.Days61to90.Add(outstanding)
		default:
			row.Over90 = row.Over90.Add(outstanding)
		}
		row.Total = row.Total.Add(outstanding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AR aging row iteration error: %w", err)
	}
	return report, nil
}

func (s *reportingService) GetRevenueByCategory(ctx context.Context, companyCode, fromDate, toDate string) ([]CategoryRevenueRow, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT il.category,
		       SUM(il.line_subtotal)   AS gross_total,
		       SUM(il.discount_amount) AS discounts,
		       SUM(il.line_total)      AS net_total
		FROM invoice_lines il
		JOIN invoices i ON i.id = il.invoice_id
		WHERE i.company_id = $1
		  AND i.status IN ('ISSUED', 'PAID')`

	args := []any{companyID}
	if fromDate != "" {
		args = append(args, fromDate)
		q += fmt.Sprintf(" AND i.issued_at::date >= $%d::date", len(args))
	}
	if toDate != "" {
		args = append(args, toDate)
		q += fmt.Sprintf(" AND i.issued_at::date <= $%d::date", len(args))
	}
	q += " GROUP BY il.category ORDER BY net_total DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by category: %w", err)
	}
	defer rows.Close()

	var report []CategoryRevenueRow
	for rows.Next() {
		var r CategoryRevenueRow
		if err := rows.Scan(&r.Category, &r.GrossTotal, &r.Discounts, &r.NetTotal); err != nil {
			return nil, fmt.Errorf("failed to scan revenue row: %w", err)
		}
		report = append(report, r)
	}
	return report, nil
}

func (s *reportingService) GetDiscountUsage(ctx context.Context, companyCode string) ([]DiscountUsageRow, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT d.code, d.type, COUNT(*), SUM(d.amount_applied)
		FROM invoice_discounts d
		JOIN invoices i ON i.id = d.invoice_id
		WHERE i.company_id = $1
		  AND i.status IN ('ISSUED', 'PAID')
		GROUP BY d.code, d.type
		ORDER BY SUM(d.amount_applied) DESC`

	rows, err := s.pool.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discount usage: %w", err)
	}
	defer rows.Close()

	var report []DiscountUsageRow
	for rows.Next() {
		var r DiscountUsageRow
		var dtype string
		if err := rows.Scan(&r.Code, &dtype, &r.TimesApplied, &r.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan discount usage row: %w", err)
		}
		r.Type = DiscountType(dtype)
		report = append(report, r)
	}
	return report, nil
}

func (s *reportingService) GetAccountStatement(ctx context.Context, companyCode, accountCode, fromDate, toDate string) ([]StatementLine, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT je.posted_at::text, je.journal_id, je.module, je.source_ref, je.narration,
		       jl.debit, jl.credit
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.entry_id
		WHERE je.company_id = $1
		  AND jl.acct = $2`

	args := []any{companyID, accountCode}
	if fromDate != "" {
		args = append(args, fromDate)
		q += fmt.Sprintf(" AND je.posted_at::date >= $%d::date", len(args))
	}
	if toDate != "" {
		args = append(args, toDate)
		q += fmt.Sprintf(" AND je.posted_at::date <= $%d::date", len(args))
	}
	q += " ORDER BY je.posted_at ASC, je.id ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query account statement: %w", err)
	}
	defer rows.Close()

	var lines []StatementLine
	running := decimal.Zero
	for rows.Next() {
		var sl StatementLine
		if err := rows.Scan(
			&sl.PostedAt, &sl.JournalID, &sl.Module, &sl.SourceRef, &sl.Narration,
			&sl.Debit, &sl.Credit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		running = running.Add(sl.Debit).Sub(sl.Credit)
		sl.RunningBalance = running
		lines = append(lines, sl)
	}
	return lines, nil
}
