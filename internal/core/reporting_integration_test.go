package core_test

import (
	"context"
	"testing"

	"logistics-backoffice/internal/core"
)

func TestReporting_ARAging(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, payments, _ := newBillingStack(pool)
	reports := core.NewReportingService(pool)

	issued := issueStandardInvoice(t, invoices)

	// Backdate the issue so the balance lands in the 31-60 bucket.
	if _, err := pool.Exec(ctx,
		"UPDATE invoices SET issued_at = NOW() - INTERVAL '45 days' WHERE id = $1",
		issued.ID); err != nil {
		t.Fatalf("failed to backdate invoice: %v", err)
	}

	second := issueStandardInvoice(t, invoices)
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: second.InvoiceNumber,
		Amount:        dec("100.00"),
	}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	aging, err := reports.GetARAging(ctx, "ACME", "")
	if err != nil {
		t.Fatalf("GetARAging failed: %v", err)
	}
	if len(aging) != 1 {
		t.Fatalf("got %d aging rows, want 1", len(aging))
	}
	row := aging[0]
	if row.CustomerCode != "CUST-1" {
		t.Errorf("customer = %s, want CUST-1", row.CustomerCode)
	}
	// First invoice 143.64 fully open at 45 days; second 43.64 open current.
	if !row.Days31to60.Equal(dec("143.64")) {
		t.Errorf("31-60 bucket = %s, want 143.64", row.Days31to60)
	}
	if !row.Current.Equal(dec("43.64")) {
		t.Errorf("current bucket = %s, want 43.64", row.Current)
	}
	if !row.Total.Equal(dec("187.28")) {
		t.Errorf("total = %s, want 187.28", row.Total)
	}
}

func TestReporting_RevenueByCategoryAndDiscountUsage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, _, _ := newBillingStack(pool)
	reports := core.NewReportingService(pool)

	issueStandardInvoice(t, invoices)

	// Drafts must not appear in revenue figures.
	draftStandardInvoice(t, invoices)

	revenue, err := reports.GetRevenueByCategory(ctx, "ACME", "", "")
	if err != nil {
		t.Fatalf("GetRevenueByCategory failed: %v", err)
	}
	byCategory := map[string]core.CategoryRevenueRow{}
	for _, r := range revenue {
		byCategory[r.Category] = r
	}
	storage, ok := byCategory["storage"]
	if !ok {
		t.Fatal("missing storage category")
	}
	if !storage.GrossTotal.Equal(dec("120.00")) || !storage.Discounts.Equal(dec("12.00")) || !storage.NetTotal.Equal(dec("108.00")) {
		t.Errorf("storage = %+v, want 120.00 / 12.00 / 108.00", storage)
	}
	accessorial, ok := byCategory["accessorial"]
	if !ok {
		t.Fatal("missing accessorial category")
	}
	if !accessorial.NetTotal.Equal(dec("25.00")) {
		t.Errorf("accessorial net = %s, want 25.00", accessorial.NetTotal)
	}

	usage, err := reports.GetDiscountUsage(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetDiscountUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("got %d discount rows, want 1", len(usage))
	}
	if usage[0].Code != "SAVE10" || usage[0].TimesApplied != 1 || !usage[0].TotalAmount.Equal(dec("12.00")) {
		t.Errorf("discount usage = %+v, want SAVE10 ×1 for 12.00", usage[0])
	}
}

func TestReporting_AccountStatementRunningBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	invoices, payments, _ := newBillingStack(pool)
	reports := core.NewReportingService(pool)

	issued := issueStandardInvoice(t, invoices)
	if _, err := payments.RecordPayment(ctx, core.PaymentRequest{
		CompanyCode:   "ACME",
		InvoiceNumber: issued.InvoiceNumber,
		Amount:        dec("143.64"),
	}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	statement, err := reports.GetAccountStatement(ctx, "ACME", "1100", "", "")
	if err != nil {
		t.Fatalf("GetAccountStatement failed: %v", err)
	}
	if len(statement) != 2 {
		t.Fatalf("got %d statement lines, want 2", len(statement))
	}
	if !statement[0].Debit.Equal(dec("143.64")) || !statement[0].RunningBalance.Equal(dec("143.64")) {
		t.Errorf("line 1 = %+v, want debit 143.64 running 143.64", statement[0])
	}
	if !statement[1].Credit.Equal(dec("143.64")) || !statement[1].RunningBalance.IsZero() {
		t.Errorf("line 2 = %+v, want credit 143.64 running 0", statement[1])
	}
}
