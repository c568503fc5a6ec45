package core_test

import (
	"context"
	"testing"

	"logistics-backoffice/internal/core"
)

func TestVendorService_CreateAndFetch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	vendors := core.NewVendorService(pool)

	created, err := vendors.CreateVendor(ctx, "ACME", core.VendorInput{
		Code:          "VEND-2",
		Name:          "Crate Works",
		ContactPerson: "R. Alvarez",
		Email:         "returns@crateworks.test",
		ReturnAddress: "400 Industrial Pkwy",
	})
	if err != nil {
		t.Fatalf("CreateVendor failed: %v", err)
	}
	if created.RMATermsDays != 30 {
		t.Errorf("rma terms = %d, want default 30", created.RMATermsDays)
	}
	if !created.IsActive {
		t.Error("new vendor must be active")
	}

	fetched, err := vendors.GetVendorByCode(ctx, "ACME", "VEND-2")
	if err != nil {
		t.Fatalf("GetVendorByCode failed: %v", err)
	}
	if fetched.Name != "Crate Works" || fetched.ReturnAddress == nil || *fetched.ReturnAddress != "400 Industrial Pkwy" {
		t.Errorf("fetched vendor = %+v", fetched)
	}

	all, err := vendors.GetVendors(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetVendors failed: %v", err)
	}
	// VEND-1 is seeded, VEND-2 created here; ordered by code.
	if len(all) != 2 || all[0].Code != "VEND-1" || all[1].Code != "VEND-2" {
		t.Errorf("GetVendors = %+v, want VEND-1 then VEND-2", all)
	}

	if _, err := vendors.CreateVendor(ctx, "ACME", core.VendorInput{Code: "", Name: "X"}); err == nil {
		t.Error("expected vendor without code to be rejected")
	}
	if _, err := vendors.GetVendorByCode(ctx, "ACME", "VEND-9"); err == nil {
		t.Error("expected unknown vendor to fail")
	}
}
