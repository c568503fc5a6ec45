package core_test

import (
	"context"
	"testing"

	"logistics-backoffice/internal/core"
)

func TestInventory_ReceiveStockWeightedAverage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	inventory := core.NewInventoryService(pool, ruleEngine, poster, ledger)

	// First receipt: 10 @ 4.00
	err := inventory.ReceiveStock(ctx, core.ReceiveStockRequest{
		CompanyCode:   "ACME",
		WarehouseCode: "WH1",
		SKUCode:       "STOR-PAL",
		Qty:           dec("10"),
		UnitCost:      dec("4.00"),
	})
	if err != nil {
		t.Fatalf("ReceiveStock failed: %v", err)
	}

	// Second receipt: 10 @ 6.00 → weighted average 5.00 over 20 units
	err = inventory.ReceiveStock(ctx, core.ReceiveStockRequest{
		CompanyCode:   "ACME",
		WarehouseCode: "WH1",
		SKUCode:       "STOR-PAL",
		Qty:           dec("10"),
		UnitCost:      dec("6.00"),
	})
	if err != nil {
		t.Fatalf("second ReceiveStock failed: %v", err)
	}

	levels, err := inventory.GetStockLevels(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("got %d stock levels, want 1", len(levels))
	}
	if !levels[0].OnHand.Equal(dec("20")) {
		t.Errorf("on hand = %s, want 20", levels[0].OnHand)
	}
	if !levels[0].UnitCost.Equal(dec("5.00")) {
		t.Errorf("unit cost = %s, want 5.00 (weighted average)", levels[0].UnitCost)
	}

	// Each receipt booked DR inventory / CR bank.
	balances, err := ledger.TrialBalance(ctx, "ACME")
	if err != nil {
		t.Fatalf("TrialBalance failed: %v", err)
	}
	for _, b := range balances {
		switch b.Code {
		case "1400":
			if !b.Balance.Equal(dec("100.00")) {
				t.Errorf("inventory balance = %s, want 100.00", b.Balance)
			}
		case "1200":
			if !b.Balance.Equal(dec("-100.00")) {
				t.Errorf("bank balance = %s, want -100.00", b.Balance)
			}
		}
	}

	movements, err := inventory.GetMovements(ctx, "ACME", "STOR-PAL")
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Errorf("got %d movements, want 2", len(movements))
	}
	for _, m := range movements {
		if m.MovementType != "RECEIPT" {
			t.Errorf("movement type = %s, want RECEIPT", m.MovementType)
		}
	}
}

func TestInventory_ReceiveStockValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	inventory := core.NewInventoryService(pool, ruleEngine, poster, ledger)

	cases := []struct {
		name string
		req  core.ReceiveStockRequest
	}{
		{"zero qty", core.ReceiveStockRequest{CompanyCode: "ACME", WarehouseCode: "WH1", SKUCode: "STOR-PAL", Qty: dec("0"), UnitCost: dec("1")}},
		{"negative cost", core.ReceiveStockRequest{CompanyCode: "ACME", WarehouseCode: "WH1", SKUCode: "STOR-PAL", Qty: dec("1"), UnitCost: dec("-1")}},
		{"bad date", core.ReceiveStockRequest{CompanyCode: "ACME", WarehouseCode: "WH1", SKUCode: "STOR-PAL", Qty: dec("1"), UnitCost: dec("1"), MovementDate: "01/02/2026"}},
		{"unknown warehouse", core.ReceiveStockRequest{CompanyCode: "ACME", WarehouseCode: "WH9", SKUCode: "STOR-PAL", Qty: dec("1"), UnitCost: dec("1")}},
		{"unknown sku", core.ReceiveStockRequest{CompanyCode: "ACME", WarehouseCode: "WH1", SKUCode: "NOPE", Qty: dec("1"), UnitCost: dec("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := inventory.ReceiveStock(ctx, tc.req); err == nil {
				t.Error("expected ReceiveStock to fail")
			}
		})
	}
}

func TestInventory_AdjustStockTxRejectsNegativeLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	ruleEngine := core.NewRuleEngine(pool)
	poster := core.NewGLPoster(nil)
	ledger := core.NewLedger(pool)
	inventory := core.NewInventoryService(pool, ruleEngine, poster, ledger)

	var skuID int
	if err := pool.QueryRow(ctx, "SELECT id FROM skus WHERE code = 'STOR-PAL'").Scan(&skuID); err != nil {
		t.Fatalf("failed to resolve sku: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	defer tx.Rollback(ctx)

	if err := inventory.AdjustStockTx(ctx, tx, 1, "WH1", skuID, dec("5")); err != nil {
		t.Fatalf("positive adjustment failed: %v", err)
	}
	if err := inventory.AdjustStockTx(ctx, tx, 1, "WH1", skuID, dec("-3")); err != nil {
		t.Fatalf("negative adjustment failed: %v", err)
	}
	if err := inventory.AdjustStockTx(ctx, tx, 1, "WH1", skuID, dec("-10")); err == nil {
		t.Error("expected adjustment below zero to fail")
	}
}
