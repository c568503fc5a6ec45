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

// InventoryService manages warehouse stock levels and goods movements. Goods
// receipts book their journal through the posting validator so the stock write
// and the accounting entry land atomically.
type InventoryService interface {
	GetWarehouses(ctx context.Context, companyCode string) ([]Warehouse, error)
	GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error)
	GetMovements(ctx context.Context, companyCode, skuCode string) ([]StockMovement, error)

	// ReceiveStock records a goods receipt: increases qty_on_hand at weighted
	// average cost and books DR inventory / CR creditAccountCode. An empty
	// creditAccountCode resolves the BANK rule.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) error

	// AdjustStockTx moves qtyDelta units of a SKU in or out of a warehouse
	// within the caller's transaction. No journal is booked; used by RMA
	// restocking where the credit memo already carries the money movement.
	AdjustStockTx(ctx context.Context, tx pgx.Tx, companyID int, warehouseCode string, skuID int, qtyDelta decimal.Decimal) error
}

// ReceiveStockRequest describes one goods receipt.
type ReceiveStockRequest struct {
	CompanyCode       string
	WarehouseCode     string
	SKUCode           string
	Qty               decimal.Decimal
	UnitCost          decimal.Decimal
	MovementDate      string // YYYY-MM-DD; empty means today
	CreditAccountCode string
}

type inventoryService struct {
	pool       *pgxpool.Pool
	ruleEngine RuleEngine
	poster     *GLPoster
	ledger     *Ledger
}

func NewInventoryService(pool *pgxpool.Pool, ruleEngine RuleEngine, poster *GLPoster, ledger *Ledger) InventoryService {
	return &inventoryService{pool: pool, ruleEngine: ruleEngine, poster: poster, ledger: ledger}
}

func (s *inventoryService) GetWarehouses(ctx context.Context, companyCode string) ([]Warehouse, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM warehouses
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, nil
}

func (s *inventoryService) GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sk.code, sk.name, w.code, w.name, si.qty_on_hand, si.unit_cost
		FROM stock_items si
		JOIN skus sk      ON sk.id = si.sku_id
		JOIN warehouses w ON w.id = si.warehouse_id
		WHERE si.company_id = $1
		ORDER BY sk.code, w.code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(
			&sl.SKUCode, &sl.SKUName,
			&sl.WarehouseCode, &sl.WarehouseName,
			&sl.OnHand, &sl.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, nil
}

func (s *inventoryService) GetMovements(ctx context.Context, companyCode, skuCode string) ([]StockMovement, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT sm.id, sm.company_id, sm.stock_item_id, sm.movement_type,
		       sm.quantity, sm.unit_cost, sm.total_cost, sm.movement_date::text, sm.notes, sm.created_at
		FROM stock_movements sm
		WHERE sm.company_id = $1
	`
	args := []any{companyID}
	if skuCode != "" {
		query += `
		  AND sm.stock_item_id IN (
			SELECT si.id FROM stock_items si JOIN skus sk ON sk.id = si.sku_id WHERE sk.code = $2
		  )`
		args = append(args, skuCode)
	}
	query += " ORDER BY sm.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(
			&m.ID, &m.CompanyID, &m.StockItemID, &m.MovementType,
			&m.Quantity, &m.UnitCost, &m.TotalCost, &m.MovementDate, &m.Notes, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// ReceiveStock updates qty_on_hand using weighted average cost and books:
//
//	DR inventory asset / CR credit account (default: BANK rule)
func (s *inventoryService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) error {
	if !req.Qty.IsPositive() {
		return fmt.Errorf("receive quantity must be positive, got %s", req.Qty)
	}
	if req.UnitCost.IsNegative() {
		return fmt.Errorf("unit cost cannot be negative, got %s", req.UnitCost)
	}
	if req.MovementDate == "" {
		req.MovementDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.MovementDate); err != nil {
		return fmt.Errorf("invalid movement date %q: %w", req.MovementDate, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, req.CompanyCode)
	if err != nil {
		return err
	}

	inventoryAcct, err := s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleInventoryAsset)
	if err != nil {
		return err
	}
	creditAcct := req.CreditAccountCode
	if creditAcct == "" {
		if creditAcct, err = s.ruleEngine.ResolveAccountTx(ctx, tx, companyID, RuleBank); err != nil {
			return err
		}
	}

	var warehouseID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, req.WarehouseCode,
	).Scan(&warehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("warehouse %s not found for company %s", req.WarehouseCode, req.CompanyCode)
		}
		return fmt.Errorf("failed to resolve warehouse: %w", err)
	}

	var skuID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM skus WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, req.SKUCode,
	).Scan(&skuID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("sku %s not found for company %s", req.SKUCode, req.CompanyCode)
		}
		return fmt.Errorf("failed to resolve sku: %w", err)
	}

	// Upsert then lock the stock_item row.
	var itemID int
	var oldQty, oldCost decimal.Decimal
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_items (company_id, sku_id, warehouse_id, qty_on_hand, unit_cost)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (company_id, sku_id, warehouse_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, companyID, skuID, warehouseID).Scan(&itemID)
	if err != nil {
		return fmt.Errorf("failed to upsert stock item: %w", err)
	}
	err = tx.QueryRow(ctx,
		"SELECT qty_on_hand, unit_cost FROM stock_items WHERE id = $1 FOR UPDATE",
		itemID,
	).Scan(&oldQty, &oldCost)
	if err != nil {
		return fmt.Errorf("failed to lock stock item: %w", err)
	}

	// Weighted average: new_cost = (old_qty*old_cost + qty*unit_cost) / (old_qty + qty)
	newQty := oldQty.Add(req.Qty)
	var newCost decimal.Decimal
	if newQty.IsZero() {
		newCost = req.UnitCost
	} else {
		newCost = oldQty.Mul(oldCost).Add(req.Qty.Mul(req.UnitCost)).Div(newQty)
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_items SET qty_on_hand = $1, unit_cost = $2, updated_at = NOW()
		WHERE id = $3
	`, newQty, newCost, itemID)
	if err != nil {
		return fmt.Errorf("failed to update stock item: %w", err)
	}

	totalCost := req.Qty.Mul(req.UnitCost).Round(2)
	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (company_id, stock_item_id, movement_type, quantity, unit_cost, total_cost, movement_date, notes)
		VALUES ($1, $2, 'RECEIPT', $3, $4, $5, $6, $7)
	`, companyID, itemID, req.Qty, req.UnitCost, totalCost, req.MovementDate,
		fmt.Sprintf("Goods receipt: %s × %s units @ %s", req.SKUCode, req.Qty.String(), req.UnitCost.String()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}

	memo := fmt.Sprintf("goods receipt %s into %s", req.SKUCode, req.WarehouseCode)
	source := GLSource{
		Version:   "1",
		Module:    "inventory",
		SourceRef: fmt.Sprintf("GR-%s-%s-%s", req.CompanyCode, req.SKUCode, req.MovementDate),
		Entries: []GLEntry{
			{Acct: inventoryAcct, Debit: totalCost, Memo: memo},
			{Acct: creditAcct, Credit: totalCost, Memo: memo},
		},
	}
	postResult, err := s.poster.Post(source)
	if err != nil {
		return fmt.Errorf("goods receipt journal rejected: %w", err)
	}
	narration := fmt.Sprintf("Goods receipt: %s units of %s @ %s into %s",
		req.Qty.String(), req.SKUCode, req.UnitCost.String(), req.WarehouseCode)
	if _, err := s.ledger.RecordTx(ctx, tx, companyID, source, postResult, narration); err != nil {
		return fmt.Errorf("failed to record goods receipt journal: %w", err)
	}

	// Single commit: stock write and journal land together or not at all.
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit goods receipt: %w", err)
	}
	return nil
}

// AdjustStockTx adds qtyDelta to a SKU's on-hand level in the given warehouse.
// The stock_item row is created on first touch. Negative deltas may not take
// the level below zero.
func (s *inventoryService) AdjustStockTx(ctx context.Context, tx pgx.Tx, companyID int, warehouseCode string, skuID int, qtyDelta decimal.Decimal) error {
	if qtyDelta.IsZero() {
		return nil
	}

	var warehouseID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, warehouseCode,
	).Scan(&warehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("warehouse %s not found", warehouseCode)
		}
		return fmt.Errorf("failed to resolve warehouse: %w", err)
	}

	var itemID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_items (company_id, sku_id, warehouse_id, qty_on_hand, unit_cost)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (company_id, sku_id, warehouse_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, companyID, skuID, warehouseID).Scan(&itemID); err != nil {
		return fmt.Errorf("failed to upsert stock item: %w", err)
	}

	var onHand decimal.Decimal
	if err := tx.QueryRow(ctx,
		"SELECT qty_on_hand FROM stock_items WHERE id = $1 FOR UPDATE",
		itemID,
	).Scan(&onHand); err != nil {
		return fmt.Errorf("failed to lock stock item: %w", err)
	}
	newQty := onHand.Add(qtyDelta)
	if newQty.IsNegative() {
		return fmt.Errorf("stock adjustment would take sku %d below zero in %s (on hand %s, delta %s)",
			skuID, warehouseCode, onHand.String(), qtyDelta.String())
	}

	if _, err := tx.Exec(ctx,
		"UPDATE stock_items SET qty_on_hand = $1, updated_at = NOW() WHERE id = $2",
		newQty, itemID,
	); err != nil {
		return fmt.Errorf("failed to adjust stock item: %w", err)
	}

	movementType := "ADJUSTMENT"
	if qtyDelta.IsPositive() {
		movementType = "RMA_RESTOCK"
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (company_id, stock_item_id, movement_type, quantity, unit_cost, total_cost, movement_date, notes)
		VALUES ($1, $2, $3, $4, 0, 0, CURRENT_DATE, $5)
	`, companyID, itemID, movementType, qtyDelta,
		fmt.Sprintf("Stock adjustment %s units in %s", qtyDelta.String(), warehouseCode),
	); err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}
