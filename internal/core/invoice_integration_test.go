package core_test

import (
	"context"
	"strings"
	"testing"

	"logistics-backoffice/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func newBillingStack(pool *pgxpool.Pool) (core.InvoiceService, core.PaymentService, *core.Ledger) {
	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	docService := core.NewDocumentService(pool)
	invoices := core.NewInvoiceService(pool, ruleEngine, poster, ledger, docService)
	payments := core.NewPaymentService(pool, ruleEngine, poster, ledger, docService)
	return invoices, payments, ledger
}

// draftStandardInvoice creates the invoice used by most workflow tests:
//
//	10 pallets storage @12 + fuel surcharge @25, SAVE10 = 10% off
//	discountable base 120.00 → 12.00 off → 108.00 + 25.00 = 133.00
//	tax 8% on 133.00 = 10.64 → grand total 143.64
func draftStandardInvoice(t *testing.T, invoices core.InvoiceService) *core.Invoice {
	t.Helper()
	inv, err := invoices.CreateInvoice(context.Background(), core.InvoiceRequest{
		CompanyCode:  "ACME",
		CustomerCode: "CUST-1",
		Currency:     "USD",
		TaxRate:      dec("0.08"),
		RoundingMode: core.RoundHalfUp,
		Lines: []core.InvoiceLineInput{
			{SKUCode: "STOR-PAL", Qty: dec("10")},
			{SKUCode: "FUEL-SUR", Qty: dec("1")},
		},
		Discounts: []core.DiscountInput{
			{Code: "SAVE10", Type: core.DiscountPercent, Value: dec("10"), Scope: "all"},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	return inv
}

func TestInvoiceWorkflow_IssueBooksJournal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, _, ledger := newBillingStack(pool)
	draft := draftStandardInvoice(t, invoices)

	if draft.Status != core.InvoiceStatusDraft {
		t.Fatalf("status = %s, want DRAFT", draft.Status)
	}
	if draft.InvoiceNumber != "" {
		t.Errorf("draft must not carry a number, got %s", draft.InvoiceNumber)
	}

	issued, err := invoices.IssueInvoice(ctx, draft.ID)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}
	if issued.Status != core.InvoiceStatusIssued {
		t.Errorf("status = %s, want ISSUED", issued.Status)
	}
	if !strings.HasPrefix(issued.InvoiceNumber, "INV-") {
		t.Errorf("invoice number = %q, want INV- prefix", issued.InvoiceNumber)
	}
	if !issued.Subtotal.Equal(dec("145.00")) {
		t.Errorf("subtotal = %s, want 145.00", issued.Subtotal)
	}
	if !issued.DiscountTotal.Equal(dec("12.00")) {
		t.Errorf("discount total = %s, want 12.00", issued.DiscountTotal)
	}
	if !issued.TaxAmount.Equal(dec("10.64")) {
		t.Errorf("tax = %s, want 10.64", issued.TaxAmount)
	}
	if !issued.GrandTotal.Equal(dec("143.64")) {
		t.Errorf("grand total = %s, want 143.64", issued.GrandTotal)
	}
	if issued.JournalID == nil {
		t.Fatal("issued invoice must carry a journal id")
	}

	// The surcharge line is untouched by the discount.
	for _, l := range issued.Lines {
		if l.SKUCode == "FUEL-SUR" && !l.DiscountAmount.IsZero() {
			t.Errorf("surcharge line discount = %s, want 0", l.DiscountAmount)
		}
		if l.SKUCode == "STOR-PAL" && !l.DiscountAmount.Equal(dec("12.00")) {
			t.Errorf("storage line discount = %s, want 12.00", l.DiscountAmount)
		}
	}
	if len(issued.Discounts) != 1 || !issued.Discounts[0].AmountApplied.Equal(dec("12.00")) {
		t.Errorf("discount audit = %+v, want SAVE10 applied 12.00", issued.Discounts)
	}

	// DR AR 143.64 / CR revenue 133.00 / CR tax 10.64
	entry, err := ledger.GetJournal(ctx, *issued.JournalID)
	if err != nil {
		t.Fatalf("GetJournal failed: %v", err)
	}
	if entry.Module != "billing" || entry.SourceRef != issued.InvoiceNumber {
		t.Errorf("journal header = %s/%s", entry.Module, entry.SourceRef)
	}
	want := map[string][2]string{
		"1100": {"143.64", "0"},
		"4000": {"0", "133.00"},
		"2300": {"0", "10.64"},
	}
	if len(entry.Lines) != len(want) {
		t.Fatalf("got %d journal lines, want %d", len(entry.Lines), len(want))
	}
	for _, line := range entry.Lines {
		w, ok := want[line.Acct]
		if !ok {
			t.Errorf("unexpected account %s", line.Acct)
			continue
		}
		if !line.Debit.Equal(dec(w[0])) || !line.Credit.Equal(dec(w[1])) {
			t.Errorf("account %s = DR %s / CR %s, want DR %s / CR %s",
				line.Acct, line.Debit, line.Credit, w[0], w[1])
		}
	}

	// Issuing twice must fail.
	if _, err := invoices.IssueInvoice(ctx, draft.ID); err == nil {
		t.Error("expected second issue to fail")
	}
}

func TestInvoiceWorkflow_VoidDraftAndIssued(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, _, ledger := newBillingStack(pool)

	// Draft void: no journal involved.
	draft := draftStandardInvoice(t, invoices)
	voided, err := invoices.VoidInvoice(ctx, draft.ID, "customer cancelled")
	if err != nil {
		t.Fatalf("VoidInvoice(draft) failed: %v", err)
	}
	if voided.Status != core.InvoiceStatusVoid {
		t.Errorf("status = %s, want VOID", voided.Status)
	}

	// Issued void: the journal is reversed.
	second := draftStandardInvoice(t, invoices)
	issued, err := invoices.IssueInvoice(ctx, second.ID)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}
	if _, err := invoices.VoidInvoice(ctx, issued.ID, "billing error"); err != nil {
		t.Fatalf("VoidInvoice(issued) failed: %v", err)
	}

	balances, err := ledger.TrialBalance(ctx, "ACME")
	if err != nil {
		t.Fatalf("TrialBalance failed: %v", err)
	}
	for _, b := range balances {
		if !b.Balance.IsZero() {
			t.Errorf("account %s balance = %s, want 0 after void reversal", b.Code, b.Balance)
		}
	}
}

func TestPaymentWorkflow_PartialThenFull(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, payments, ledger := newBillingStack(pool)
	draft := draftStandardInvoice(t, invoices)
	issued, err := invoices.IssueInvoice(ctx, draft.ID)
	if err != nil {
		t.Fatalf("IssueInvoice failed: %v", err)
	}

	// Partial payment leaves the invoice ISSUED.
	receipt, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Amount:        dec("100.00"),
		Method:        "ACH",
	})
	if err != nil {
		t.Fatalf("RecordPayment(partial) failed: %v", err)
	}
	if !strings.HasPrefix(receipt.ReceiptNumber, "PRC-") {
		t.Errorf("receipt number = %q, want PRC- prefix", receipt.ReceiptNumber)
	}

	after, err := invoices.GetInvoice(ctx, issued.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if after.Status != core.InvoiceStatusIssued {
		t.Errorf("status = %s, want ISSUED after partial payment", after.Status)
	}
	if !after.AmountPaid.Equal(dec("100.00")) {
		t.Errorf("amount paid = %s, want 100.00", after.AmountPaid)
	}

	// Overpaying the remainder is rejected, never clamped.
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Amount:        dec("50.00"),
	}); err == nil {
		t.Error("expected overpayment to be rejected")
	}

	// Paying exactly the remainder flips to PAID.
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Amount:        dec("43.64"),
	}); err != nil {
		t.Fatalf("RecordPayment(remainder) failed: %v", err)
	}

	paid, err := invoices.GetInvoice(ctx, issued.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if paid.Status != core.InvoiceStatusPaid {
		t.Errorf("status = %s, want PAID", paid.Status)
	}

	// A PAID invoice accepts no more money and cannot be voided.
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Amount:        dec("0.01"),
	}); err == nil {
		t.Error("expected payment against PAID invoice to fail")
	}
	if _, err := invoices.VoidInvoice(ctx, issued.ID, "nope"); err == nil {
		t.Error("expected void of PAID invoice to fail")
	}

	// Bank holds the full total, AR is cleared.
	balances, err := ledger.TrialBalance(ctx, "ACME")
	if err != nil {
		t.Fatalf("TrialBalance failed: %v", err)
	}
	var bank, ar decimal.Decimal
	for _, b := range balances {
		switch b.Code {
		case "1200":
			bank = b.Balance
		case "1100":
			ar = b.Balance
		}
	}
	if !bank.Equal(dec("143.64")) {
		t.Errorf("bank = %s, want 143.64", bank)
	}
	if !ar.IsZero() {
		t.Errorf("AR = %s, want 0", ar)
	}
}

func TestPaymentWorkflow_InputValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	_, payments, _ := newBillingStack(pool)

	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode: "ACME", InvoiceNumber: "INV-X", Amount: dec("-5"),
	}); err == nil {
		t.Error("expected negative amount to be rejected")
	}
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode: "ACME", InvoiceNumber: "INV-X", Amount: dec("1.005"),
	}); err == nil {
		t.Error("expected sub-cent amount to be rejected")
	}
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode: "ACME", InvoiceNumber: "INV-MISSING", Amount: dec("10.00"),
	}); err == nil {
		t.Error("expected unknown invoice to be rejected")
	}
}
