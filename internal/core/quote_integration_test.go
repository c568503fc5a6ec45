package core_test

import (
	"context"
	"strings"
	"testing"

	"logistics-backoffice/internal/core"
)

func TestQuoteWorkflow_LifecycleAndConversion(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	docService := core.NewDocumentService(pool)
	quotes := core.NewQuoteService(pool, docService)
	invoices, _, _ := newBillingStack(pool)

	quote, err := quotes.CreateQuote(ctx, core.QuoteRequest{
		CompanyCode:  "ACME",
		CustomerCode: "CUST-1",
		Currency:     "USD",
		TaxRate:      dec("0.08"),
		ValidUntil:   "2026-12-31",
		Lines: []core.InvoiceLineInput{
			{SKUCode: "STOR-PAL", Qty: dec("10")},
			{SKUCode: "FUEL-SUR", Qty: dec("1")},
		},
		Discounts: []core.DiscountInput{
			{Code: "SAVE10", Type: core.DiscountPercent, Value: dec("10"), Scope: "all"},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if quote.Status != core.QuoteStatusDraft {
		t.Fatalf("status = %s, want DRAFT", quote.Status)
	}
	// Quotes are priced on creation with the same engine as invoices.
	if !quote.GrandTotal.Equal(dec("143.64")) {
		t.Errorf("grand total = %s, want 143.64", quote.GrandTotal)
	}

	sent, err := quotes.SendQuote(ctx, quote.ID)
	if err != nil {
		t.Fatalf("SendQuote failed: %v", err)
	}
	if sent.Status != core.QuoteStatusSent {
		t.Errorf("status = %s, want SENT", sent.Status)
	}
	if !strings.HasPrefix(sent.QuoteNumber, "QTE-") {
		t.Errorf("quote number = %q, want QTE- prefix", sent.QuoteNumber)
	}

	// Converting before acceptance is refused.
	if _, err := quotes.ConvertToInvoice(ctx, quote.ID, invoices); err == nil {
		t.Error("expected conversion of SENT quote to fail")
	}

	accepted, err := quotes.AcceptQuote(ctx, quote.ID)
	if err != nil {
		t.Fatalf("AcceptQuote failed: %v", err)
	}
	if accepted.Status != core.QuoteStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", accepted.Status)
	}

	invoice, err := quotes.ConvertToInvoice(ctx, quote.ID, invoices)
	if err != nil {
		t.Fatalf("ConvertToInvoice failed: %v", err)
	}
	if invoice.Status != core.InvoiceStatusDraft {
		t.Errorf("converted invoice status = %s, want DRAFT", invoice.Status)
	}
	if len(invoice.Lines) != 2 || len(invoice.Discounts) != 1 {
		t.Errorf("converted invoice carries %d lines / %d discounts, want 2 / 1",
			len(invoice.Lines), len(invoice.Discounts))
	}

	converted, err := quotes.GetQuote(ctx, quote.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if converted.Status != core.QuoteStatusConverted {
		t.Errorf("status = %s, want CONVERTED", converted.Status)
	}
	if converted.ConvertedInvoiceID == nil || *converted.ConvertedInvoiceID != invoice.ID {
		t.Errorf("converted_invoice_id = %v, want %d", converted.ConvertedInvoiceID, invoice.ID)
	}

	// Issuing the converted invoice reproduces the quoted total.
	issued, err := invoices.IssueInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("IssueInvoice(converted) failed: %v", err)
	}
	if !issued.GrandTotal.Equal(quote.GrandTotal) {
		t.Errorf("issued total %s differs from quoted total %s", issued.GrandTotal, quote.GrandTotal)
	}

	// A CONVERTED quote is terminal.
	if _, err := quotes.ExpireQuote(ctx, quote.ID); err == nil {
		t.Error("expected expiry of CONVERTED quote to fail")
	}
}

func TestQuoteWorkflow_Expiry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	docService := core.NewDocumentService(pool)
	quotes := core.NewQuoteService(pool, docService)

	quote, err := quotes.CreateQuote(ctx, core.QuoteRequest{
		CompanyCode:  "ACME",
		CustomerCode: "CUST-1",
		Currency:     "USD",
		TaxRate:      dec("0"),
		ValidUntil:   "2026-01-31",
		Lines:        []core.InvoiceLineInput{{SKUCode: "HNDL-CS", Qty: dec("100")}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if _, err := quotes.SendQuote(ctx, quote.ID); err != nil {
		t.Fatalf("SendQuote failed: %v", err)
	}

	expired, err := quotes.ExpireQuote(ctx, quote.ID)
	if err != nil {
		t.Fatalf("ExpireQuote failed: %v", err)
	}
	if expired.Status != core.QuoteStatusExpired {
		t.Errorf("status = %s, want EXPIRED", expired.Status)
	}
	if _, err := quotes.AcceptQuote(ctx, quote.ID); err == nil {
		t.Error("expected acceptance of EXPIRED quote to fail")
	}
}
