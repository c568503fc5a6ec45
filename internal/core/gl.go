package core

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GLEntry is one account-code/debit-or-credit/memo record. Exactly one of
// Debit and Credit must be nonzero.
type GLEntry struct {
	Acct   string          `json:"acct"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Memo   string          `json:"memo,omitempty"`
}

// GLSource is a batch of entries submitted for posting, tagged with the
// originating module and a source reference (invoice number, RMA number, ...).
type GLSource struct {
	Version   string    `json:"version"`
	Module    string    `json:"module"`
	SourceRef string    `json:"source_ref"`
	Entries   []GLEntry `json:"entries"`
}

// GLPostResult is the canonical record of an accepted batch.
type GLPostResult struct {
	JournalID string          `json:"journal_id"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
	At        time.Time       `json:"at"`
}

// UnbalancedEntryError reports a batch whose debits and credits differ by more
// than the 1-cent tolerance. The difference is never auto-corrected.
type UnbalancedEntryError struct {
	Debits     decimal.Decimal
	Credits    decimal.Decimal
	Difference decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s (difference %s)",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.Difference.StringFixed(2))
}

// GLEvent is emitted to the injected sink on every posting attempt outcome.
type GLEvent struct {
	Kind       string          // "gl.posted" or "gl.rejected"
	JournalID  string          // empty when rejected
	Module     string
	SourceRef  string
	Debits     decimal.Decimal
	Credits    decimal.Decimal
	Difference decimal.Decimal // zero when posted
	At         time.Time
}

// EventSink receives GL posting events. Implementations must tolerate
// concurrent emits; no ordering is guaranteed.
type EventSink interface {
	Emit(event GLEvent)
}

// LogSink writes GL events to the standard logger.
type LogSink struct{}

func (LogSink) Emit(event GLEvent) {
	if event.Kind == "gl.rejected" {
		log.Printf("gl: rejected %s/%s debits=%s credits=%s difference=%s",
			event.Module, event.SourceRef,
			event.Debits.StringFixed(2), event.Credits.StringFixed(2), event.Difference.StringFixed(2))
		return
	}
	log.Printf("gl: posted %s %s/%s debits=%s credits=%s",
		event.JournalID, event.Module, event.SourceRef,
		event.Debits.StringFixed(2), event.Credits.StringFixed(2))
}

// centTolerance is the maximum acceptable |debits - credits| on a batch.
var centTolerance = decimal.New(1, -2)

// GLPoster validates double-entry batches and assigns journal identifiers.
// Persisting an accepted journal is the Ledger's job, not the poster's.
type GLPoster struct {
	sink  EventSink
	now   func() time.Time
	newID func() string
}

// NewGLPoster returns a poster emitting to sink. A nil sink falls back to LogSink.
func NewGLPoster(sink EventSink) *GLPoster {
	if sink == nil {
		sink = LogSink{}
	}
	return &GLPoster{sink: sink, now: time.Now, newID: newJournalID}
}

// newJournalID builds a collision-resistant journal identifier. The timestamp
// keeps IDs browsable in order; the uuid suffix guarantees uniqueness across
// concurrent calls.
func newJournalID() string {
	return fmt.Sprintf("JE-%s-%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Post validates every entry structurally, checks the batch balances within
// one cent, and returns the canonical posting record. Unbalanced batches fail
// with an UnbalancedEntryError carrying the computed difference; nothing is
// ever silently corrected.
func (p *GLPoster) Post(source GLSource) (*GLPostResult, error) {
	if len(source.Entries) == 0 {
		return nil, fmt.Errorf("gl source %s/%s has no entries", source.Module, source.SourceRef)
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for i, e := range source.Entries {
		if e.Acct == "" {
			return nil, fmt.Errorf("entry %d: account code is required", i+1)
		}
		if e.Debit.IsNegative() {
			return nil, fmt.Errorf("entry %d (account %s): debit must be >= 0, got %s", i+1, e.Acct, e.Debit)
		}
		if e.Credit.IsNegative() {
			return nil, fmt.Errorf("entry %d (account %s): credit must be >= 0, got %s", i+1, e.Acct, e.Credit)
		}
		if e.Debit.IsPositive() && e.Credit.IsPositive() {
			return nil, fmt.Errorf("entry %d (account %s): cannot carry both a debit and a credit", i+1, e.Acct)
		}
		if e.Debit.IsZero() && e.Credit.IsZero() {
			return nil, fmt.Errorf("entry %d (account %s): either debit or credit must be nonzero", i+1, e.Acct)
		}
		if !e.Debit.Equal(e.Debit.Round(2)) {
			return nil, fmt.Errorf("entry %d (account %s): debit %s has more than 2 decimal places", i+1, e.Acct, e.Debit)
		}
		if !e.Credit.Equal(e.Credit.Round(2)) {
			return nil, fmt.Errorf("entry %d (account %s): credit %s has more than 2 decimal places", i+1, e.Acct, e.Credit)
		}
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}

	debits = debits.Round(2)
	credits = credits.Round(2)

	if diff := debits.Sub(credits); diff.Abs().GreaterThan(centTolerance) {
		err := &UnbalancedEntryError{Debits: debits, Credits: credits, Difference: diff}
		p.sink.Emit(GLEvent{
			Kind:       "gl.rejected",
			Module:     source.Module,
			SourceRef:  source.SourceRef,
			Debits:     debits,
			Credits:    credits,
			Difference: diff,
			At:         p.now(),
		})
		return nil, err
	}

	result := &GLPostResult{
		JournalID: p.newID(),
		Debits:    debits,
		Credits:   credits,
		At:        p.now(),
	}
	p.sink.Emit(GLEvent{
		Kind:      "gl.posted",
		JournalID: result.JournalID,
		Module:    source.Module,
		SourceRef: source.SourceRef,
		Debits:    debits,
		Credits:   credits,
		At:        result.At,
	})
	return result, nil
}

// ── GL entry factories ───────────────────────────────────────────────────────
//
// Pure 2-entry constructors for the standard money-moving workflows. They do
// no validation of their own; correctness relies entirely on GLPoster.Post.

// InvoiceGLEntries books an issued invoice: DR accounts receivable, CR revenue.
func InvoiceGLEntries(amount decimal.Decimal, arAcct, revenueAcct, memo string) []GLEntry {
	return []GLEntry{
		{Acct: arAcct, Debit: amount, Memo: memo},
		{Acct: revenueAcct, Credit: amount, Memo: memo},
	}
}

// PaymentGLEntries books a received payment: DR bank, CR accounts receivable.
func PaymentGLEntries(amount decimal.Decimal, bankAcct, arAcct, memo string) []GLEntry {
	return []GLEntry{
		{Acct: bankAcct, Debit: amount, Memo: memo},
		{Acct: arAcct, Credit: amount, Memo: memo},
	}
}

// RMACreditGLEntries books an RMA credit memo: DR sales returns, CR accounts receivable.
func RMACreditGLEntries(amount decimal.Decimal, salesReturnsAcct, arAcct, memo string) []GLEntry {
	return []GLEntry{
		{Acct: salesReturnsAcct, Debit: amount, Memo: memo},
		{Acct: arAcct, Credit: amount, Memo: memo},
	}
}

// DisposalGLEntries books scrapped returned stock: DR disposal expense, CR inventory.
func DisposalGLEntries(amount decimal.Decimal, disposalAcct, inventoryAcct, memo string) []GLEntry {
	return []GLEntry{
		{Acct: disposalAcct, Debit: amount, Memo: memo},
		{Acct: inventoryAcct, Credit: amount, Memo: memo},
	}
}
