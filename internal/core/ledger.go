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

// GlJournalEntry is a persisted journal: an accepted GLSource batch plus the
// canonical posting record the validator produced for it.
type GlJournalEntry struct {
	ID              int             `json:"id"`
	CompanyID       int             `json:"company_id"`
	JournalID       string          `json:"journal_id"`
	Module          string          `json:"module"`
	SourceRef       string          `json:"source_ref"`
	Narration       string          `json:"narration"`
	Debits          decimal.Decimal `json:"debits"`
	Credits         decimal.Decimal `json:"credits"`
	PostedAt        time.Time       `json:"posted_at"`
	ReversedEntryID *int            `json:"reversed_entry_id,omitempty"`
	Lines           []GlJournalLine `json:"lines"`
}

// GlJournalLine is one persisted entry of a journal.
type GlJournalLine struct {
	ID      int             `json:"id"`
	EntryID int             `json:"entry_id"`
	Acct    string          `json:"acct"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Memo    string          `json:"memo,omitempty"`
}

// AccountBalance is one row of a trial balance.
type AccountBalance struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Type    AccountType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// LedgerService persists journals the GL poster has accepted and answers
// balance queries. It never validates batches itself; callers must run every
// batch through GLPoster.Post first and hand the result here.
type LedgerService interface {
	Record(ctx context.Context, companyID int, source GLSource, result *GLPostResult, narration string) (int, error)
	RecordTx(ctx context.Context, tx pgx.Tx, companyID int, source GLSource, result *GLPostResult, narration string) (int, error)
	GetJournal(ctx context.Context, journalID string) (*GlJournalEntry, error)
	ListJournals(ctx context.Context, companyCode string, module *string) ([]GlJournalEntry, error)
	TrialBalance(ctx context.Context, companyCode string) ([]AccountBalance, error)
	// Reverse books an inverted copy of an existing journal. The inverted
	// batch runs through the poster like any other posting.
	Reverse(ctx context.Context, poster *GLPoster, journalID, reason string) (*GLPostResult, error)
}

type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) Record(ctx context.Context, companyID int, source GLSource, result *GLPostResult, narration string) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entryID, err := l.RecordTx(ctx, tx, companyID, source, result, narration)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit journal record: %w", err)
	}
	return entryID, nil
}

func (l *Ledger) RecordTx(ctx context.Context, tx pgx.Tx, companyID int, source GLSource, result *GLPostResult, narration string) (int, error) {
	if result == nil {
		return 0, errors.New("cannot record a journal without a posting result")
	}

	var entryID int
	err := tx.QueryRow(ctx, `
		INSERT INTO journal_entries (company_id, journal_id, module, source_ref, narration, debits, credits, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, companyID, result.JournalID, source.Module, source.SourceRef, narration,
		result.Debits, result.Credits, result.At).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry %s: %w", result.JournalID, err)
	}

	for i, e := range source.Entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO journal_lines (entry_id, acct, debit, credit, memo)
			VALUES ($1, $2, $3, $4, $5)
		`, entryID, e.Acct, e.Debit.Round(2), e.Credit.Round(2), e.Memo)
		if err != nil {
			return 0, fmt.Errorf("failed to insert journal line %d: %w", i+1, err)
		}
	}

	return entryID, nil
}

func (l *Ledger) GetJournal(ctx context.Context, journalID string) (*GlJournalEntry, error) {
	var entry GlJournalEntry
	err := l.pool.QueryRow(ctx, `
		SELECT id, company_id, journal_id, module, source_ref, narration, debits, credits, posted_at, reversed_entry_id
		FROM journal_entries
		WHERE journal_id = $1
	`, journalID).Scan(
		&entry.ID, &entry.CompanyID, &entry.JournalID, &entry.Module, &entry.SourceRef,
		&entry.Narration, &entry.Debits, &entry.Credits, &entry.PostedAt, &entry.ReversedEntryID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("journal %s not found", journalID)
		}
		return nil, fmt.Errorf("failed to fetch journal %s: %w", journalID, err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, entry_id, acct, debit, credit, COALESCE(memo, '')
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id
	`, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line GlJournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.Acct, &line.Debit, &line.Credit, &line.Memo); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		entry.Lines = append(entry.Lines, line)
	}
	return &entry, nil
}

func (l *Ledger) ListJournals(ctx context.Context, companyCode string, module *string) ([]GlJournalEntry, error) {
	companyID, err := resolveCompanyID(ctx, l.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, company_id, journal_id, module, source_ref, narration, debits, credits, posted_at, reversed_entry_id
		FROM journal_entries
		WHERE company_id = $1
	`
	args := []any{companyID}
	if module != nil {
		query += " AND module = $2"
		args = append(args, *module)
	}
	query += " ORDER BY posted_at DESC, id DESC"

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	var entries []GlJournalEntry
	for rows.Next() {
		var e GlJournalEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.JournalID, &e.Module, &e.SourceRef,
			&e.Narration, &e.Debits, &e.Credits, &e.PostedAt, &e.ReversedEntryID); err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (l *Ledger) TrialBalance(ctx context.Context, companyCode string) ([]AccountBalance, error) {
	companyID, err := resolveCompanyID(ctx, l.pool, companyCode)
	if err != nil {
		return nil, err
	}

	// Lines are scoped to the company through their entries so another
	// company's activity on a shared account code never bleeds in. Accounts
	// with no activity still appear with a zero balance.
	rows, err := l.pool.Query(ctx, `
		SELECT a.code, a.name, a.type,
		       COALESCE(SUM(jl.debit), 0) - COALESCE(SUM(jl.credit), 0) AS balance
		FROM accounts a
		LEFT JOIN (
			SELECT l.acct, l.debit, l.credit
			FROM journal_lines l
			JOIN journal_entries e ON e.id = l.entry_id
			WHERE e.company_id = $1
		) jl ON jl.acct = a.code
		WHERE a.company_id = $1
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("trial balance query failed: %w", err)
	}
	defer rows.Close()

	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func (l *Ledger) Reverse(ctx context.Context, poster *GLPoster, journalID, reason string) (*GLPostResult, error) {
	original, err := l.GetJournal(ctx, journalID)
	if err != nil {
		return nil, err
	}

	var count int
	err = l.pool.QueryRow(ctx, "SELECT count(*) FROM journal_entries WHERE reversed_entry_id = $1", original.ID).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to check reversal status: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("journal %s is already reversed", journalID)
	}

	// Invert debits and credits and run the batch through the validator.
	source := GLSource{
		Version:   "1",
		Module:    "reversal",
		SourceRef: journalID,
	}
	for _, line := range original.Lines {
		source.Entries = append(source.Entries, GLEntry{
			Acct:   line.Acct,
			Debit:  line.Credit,
			Credit: line.Debit,
			Memo:   fmt.Sprintf("reversal of %s", journalID),
		})
	}

	result, err := poster.Post(source)
	if err != nil {
		return nil, fmt.Errorf("reversal of %s failed validation: %w", journalID, err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reversal transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	narration := fmt.Sprintf("Reversal of %s: %s", journalID, reason)
	entryID, err := l.RecordTx(ctx, tx, original.CompanyID, source, result, narration)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		"UPDATE journal_entries SET reversed_entry_id = $1 WHERE id = $2",
		original.ID, entryID,
	); err != nil {
		return nil, fmt.Errorf("failed to link reversal entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal: %w", err)
	}
	return result, nil
}
