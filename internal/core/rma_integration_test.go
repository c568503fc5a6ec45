package core_test

import (
	"context"
	"strings"
	"testing"

	"logistics-backoffice/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newRMAStack(t *testing.T, pool *pgxpool.Pool) (core.InvoiceService, core.RMAService, core.InventoryService, *core.Ledger) {
	t.Helper()
	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	docService := core.NewDocumentService(pool)
	inventory := core.NewInventoryService(pool, ruleEngine, poster, ledger)
	invoices := core.NewInvoiceService(pool, ruleEngine, poster, ledger, docService)
	rmas := core.NewRMAService(pool, ruleEngine, poster, ledger, docService, inventory)
	return invoices, rmas, inventory, ledger
}

func issueStandardInvoice(t *testing.T, invoices core.InvoiceService) *core.Invoice {
	t.Helper()
	draft := draftStandardInvoice(t, invoices)
	issued, err := invoices.IssueInvoice(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}
	return issued
}

func lineID(t *testing.T, inv *core.Invoice, skuCode string) int {
	t.Helper()
	for _, l := range inv.Lines {
		if l.SKUCode == skuCode {
			return l.ID
		}
	}
	t.Fatalf("invoice has no line for sku %s", skuCode)
	return 0
}

func TestRMAWorkflow_RestockCreditsCustomerAndStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, rmas, inventory, ledger := newRMAStack(t, pool)
	issued := issueStandardInvoice(t, invoices)

	rma, err := rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Reason:        "overbilled pallets",
		Lines: []core.RMALineInput{
			{
				InvoiceLineID: lineID(t, issued, "STOR-PAL"),
				Qty:           dec("4"),
				Disposition:   core.DispositionRestock,
				WarehouseCode: "WH1",
			},
		},
	})
	if err != nil {
		t.Fatalf("RequestRMA failed: %v", err)
	}
	if rma.Status != core.RMAStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", rma.Status)
	}
	if !strings.HasPrefix(rma.RMANumber, "RMA-") {
		t.Errorf("rma number = %q, want RMA- prefix", rma.RMANumber)
	}

	// Processing before receipt is refused.
	if _, err := rmas.ProcessRMA(ctx, rma.ID); err == nil {
		t.Error("expected processing of REQUESTED rma to fail")
	}

	if _, err := rmas.ReceiveRMA(ctx, rma.ID); err != nil {
		t.Fatalf("ReceiveRMA failed: %v", err)
	}

	processed, err := rmas.ProcessRMA(ctx, rma.ID)
	if err != nil {
		t.Fatalf("ProcessRMA failed: %v", err)
	}
	if processed.Status != core.RMAStatusProcessed {
		t.Errorf("status = %s, want PROCESSED", processed.Status)
	}
	if processed.CreditMemoNumber == nil || !strings.HasPrefix(*processed.CreditMemoNumber, "CRM-") {
		t.Errorf("credit memo number = %v, want CRM- prefix", processed.CreditMemoNumber)
	}

	// 4 pallets @12 under the invoice's 10% discount: 48 − 4.80 = 43.20,
	// tax 8% = 3.46, credit total 46.66.
	if !processed.CreditAmount.Equal(dec("46.66")) {
		t.Errorf("credit amount = %s, want 46.66", processed.CreditAmount)
	}

	if processed.CreditJournalID == nil {
		t.Fatal("processed rma must carry a credit journal id")
	}
	entry, err := ledger.GetJournal(ctx, *processed.CreditJournalID)
	if err != nil {
		t.Fatalf("GetJournal failed: %v", err)
	}
	want := map[string][2]string{
		"4900": {"43.20", "0"},
		"2300": {"3.46", "0"},
		"1100": {"0", "46.66"},
	}
	for _, line := range entry.Lines {
		w, ok := want[line.Acct]
		if !ok {
			t.Errorf("unexpected account %s in credit journal", line.Acct)
			continue
		}
		if !line.Debit.Equal(dec(w[0])) || !line.Credit.Equal(dec(w[1])) {
			t.Errorf("account %s = DR %s / CR %s, want DR %s / CR %s",
				line.Acct, line.Debit, line.Credit, w[0], w[1])
		}
	}

	// The restocked units are back on hand; no disposition journal for RESTOCK.
	levels, err := inventory.GetStockLevels(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	found := false
	for _, sl := range levels {
		if sl.SKUCode == "STOR-PAL" && sl.WarehouseCode == "WH1" {
			found = true
			if !sl.OnHand.Equal(dec("4")) {
				t.Errorf("on hand = %s, want 4", sl.OnHand)
			}
		}
	}
	if !found {
		t.Error("expected a stock level row for STOR-PAL in WH1")
	}
	if processed.Lines[0].DispositionRef != nil {
		t.Errorf("RESTOCK line must not carry a disposition journal, got %v", *processed.Lines[0].DispositionRef)
	}
}

func TestRMAWorkflow_DispositionsBookTheirJournals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, rmas, _, ledger := newRMAStack(t, pool)
	issued := issueStandardInvoice(t, invoices)

	rma, err := rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Reason:        "damaged in transit",
		Lines: []core.RMALineInput{
			{
				InvoiceLineID: lineID(t, issued, "STOR-PAL"),
				Qty:           dec("2"),
				Disposition:   core.DispositionRTV,
				VendorCode:    "VEND-1",
			},
			{
				InvoiceLineID: lineID(t, issued, "FUEL-SUR"),
				Qty:           dec("1"),
				Disposition:   core.DispositionDisposal,
			},
		},
	})
	if err != nil {
		t.Fatalf("RequestRMA failed: %v", err)
	}
	if _, err := rmas.ReceiveRMA(ctx, rma.ID); err != nil {
		t.Fatalf("ReceiveRMA failed: %v", err)
	}
	processed, err := rmas.ProcessRMA(ctx, rma.ID)
	if err != nil {
		t.Fatalf("ProcessRMA failed: %v", err)
	}

	// 2 pallets @12 → 24 − 10% = 21.60; surcharge 25 undiscounted.
	// Credit: 46.60 + 8% tax 3.73 = 50.33.
	if !processed.CreditAmount.Equal(dec("50.33")) {
		t.Errorf("credit amount = %s, want 50.33", processed.CreditAmount)
	}

	// Every non-restock line gets its own disposition journal.
	for _, l := range processed.Lines {
		if l.DispositionRef == nil {
			t.Errorf("line %d (%s) has no disposition journal", l.LineNumber, l.Disposition)
			continue
		}
		entry, err := ledger.GetJournal(ctx, *l.DispositionRef)
		if err != nil {
			t.Fatalf("GetJournal(%s) failed: %v", *l.DispositionRef, err)
		}
		if entry.Module != "rma" {
			t.Errorf("disposition journal module = %s, want rma", entry.Module)
		}

		switch l.Disposition {
		case core.DispositionRTV:
			assertJournalPair(t, entry, "1450", "1400", "21.60")
		case core.DispositionDisposal:
			assertJournalPair(t, entry, "5200", "1400", "25.00")
		}
	}
}

// assertJournalPair checks a two-line journal: DR debitAcct / CR creditAcct of amount.
func assertJournalPair(t *testing.T, entry *core.GlJournalEntry, debitAcct, creditAcct, amount string) {
	t.Helper()
	if len(entry.Lines) != 2 {
		t.Errorf("journal %s has %d lines, want 2", entry.JournalID, len(entry.Lines))
		return
	}
	for _, line := range entry.Lines {
		switch line.Acct {
		case debitAcct:
			if !line.Debit.Equal(dec(amount)) {
				t.Errorf("journal %s: DR %s = %s, want %s", entry.JournalID, debitAcct, line.Debit, amount)
			}
		case creditAcct:
			if !line.Credit.Equal(dec(amount)) {
				t.Errorf("journal %s: CR %s = %s, want %s", entry.JournalID, creditAcct, line.Credit, amount)
			}
		default:
			t.Errorf("journal %s: unexpected account %s", entry.JournalID, line.Acct)
		}
	}
}

func TestRMAWorkflow_PartialReturnCarriesItsShareOfFlatDiscount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, rmas, _, _ := newRMAStack(t, pool)

	// Freight 80.00 and pallets 120.00 under a 20.00 flat discount: the
	// freight line absorbed 20 × 80/200 = 8.00 and was charged 72.00 net.
	draft, err := invoices.CreateInvoice(ctx, core.InvoiceRequest{
		CompanyCode:  "ACME",
		CustomerCode: "CUST-1",
		Currency:     "USD",
		TaxRate:      dec("0"),
		RoundingMode: core.RoundHalfUp,
		Lines: []core.InvoiceLineInput{
			{SKUCode: "FRT-LTL", Qty: dec("1")},
			{SKUCode: "STOR-PAL", Qty: dec("10")},
		},
		Discounts: []core.DiscountInput{
			{Code: "FLAT20", Type: core.DiscountFlat, Value: dec("20"), Scope: "all"},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	issued, err := invoices.IssueInvoice(ctx, draft.ID)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}

	rma, err := rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Reason:        "shipment refused",
		Lines: []core.RMALineInput{
			{InvoiceLineID: lineID(t, issued, "FRT-LTL"), Qty: dec("1"), Disposition: core.DispositionDisposal},
		},
	})
	if err != nil {
		t.Fatalf("RequestRMA failed: %v", err)
	}
	if _, err := rmas.ReceiveRMA(ctx, rma.ID); err != nil {
		t.Fatalf("ReceiveRMA failed: %v", err)
	}
	processed, err := rmas.ProcessRMA(ctx, rma.ID)
	if err != nil {
		t.Fatalf("ProcessRMA failed: %v", err)
	}

	// Returning only the freight line credits 80.00 − 8.00 = 72.00. The full
	// 20.00 flat amount would under-credit the customer by 12.00.
	if !processed.CreditAmount.Equal(dec("72.00")) {
		t.Errorf("credit amount = %s, want 72.00", processed.CreditAmount)
	}
}

func TestRMAWorkflow_RequestValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, rmas, _, _ := newRMAStack(t, pool)
	issued := issueStandardInvoice(t, invoices)
	storLine := lineID(t, issued, "STOR-PAL")

	cases := []struct {
		name  string
		lines []core.RMALineInput
	}{
		{"no lines", nil},
		{"zero qty", []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("0"), Disposition: core.DispositionDisposal},
		}},
		{"qty exceeds invoiced", []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("11"), Disposition: core.DispositionDisposal},
		}},
		{"unknown invoice line", []core.RMALineInput{
			{InvoiceLineID: 999999, Qty: dec("1"), Disposition: core.DispositionDisposal},
		}},
		{"restock without warehouse", []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("1"), Disposition: core.DispositionRestock},
		}},
		{"rtv without vendor", []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("1"), Disposition: core.DispositionRTV},
		}},
		{"unknown disposition", []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("1"), Disposition: core.Disposition("SHRED")},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rmas.RequestRMA(ctx, core.RMARequest{
				CompanyCode:   "ACME",
				InvoiceNumber: issued.InvoiceNumber,
				Reason:        "test",
				Lines:         tc.lines,
			})
			if err == nil {
				t.Error("expected RequestRMA to fail")
			}
		})
	}

	if _, err := rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   "ACME",
		InvoiceNumber: "",
		Reason:        "test",
		Lines: []core.RMALineInput{
			{InvoiceLineID: storLine, Qty: dec("1"), Disposition: core.DispositionDisposal},
		},
	}); err == nil {
		t.Error("expected RequestRMA against missing invoice to fail")
	}
}

func TestRMAWorkflow_Reject(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, rmas, _, _ := newRMAStack(t, pool)
	issued := issueStandardInvoice(t, invoices)

	rma, err := rmas.RequestRMA(ctx, core.RMARequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Reason:        "suspected fraud",
		Lines: []core.RMALineInput{
			{InvoiceLineID: lineID(t, issued, "STOR-PAL"), Qty: dec("1"), Disposition: core.DispositionDisposal},
		},
	})
	if err != nil {
		t.Fatalf("RequestRMA failed: %v", err)
	}

	rejected, err := rmas.RejectRMA(ctx, rma.ID, "no return window")
	if err != nil {
		t.Fatalf("RejectRMA failed: %v", err)
	}
	if rejected.Status != core.RMAStatusRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.CreditMemoNumber != nil || !rejected.CreditAmount.IsZero() {
		t.Error("rejected rma must not carry a credit")
	}

	// Terminal: neither receive nor process may follow.
	if _, err := rmas.ReceiveRMA(ctx, rma.ID); err == nil {
		t.Error("expected receive of REJECTED rma to fail")
	}
	if _, err := rmas.ProcessRMA(ctx, rma.ID); err == nil {
		t.Error("expected process of REJECTED rma to fail")
	}
}
