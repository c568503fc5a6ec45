package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages the billable catalog: customers and SKUs. SKU flags
// (category, discountable, surcharge) are snapshotted onto document lines at
// creation time, so edits here never rewrite history.
type CatalogService interface {
	CreateCustomer(ctx context.Context, companyCode string, input CustomerInput) (*Customer, error)
	GetCustomers(ctx context.Context, companyCode string) ([]Customer, error)
	GetCustomerByCode(ctx context.Context, companyCode, code string) (*Customer, error)

	CreateSKU(ctx context.Context, companyCode string, input SKUInput) (*SKU, error)
	UpdateSKUPrice(ctx context.Context, companyCode, skuCode string, unitPrice decimal.Decimal) (*SKU, error)
	DeactivateSKU(ctx context.Context, companyCode, skuCode string) error
	GetSKUs(ctx context.Context, companyCode string, category string) ([]SKU, error)
	GetSKUByCode(ctx context.Context, companyCode, code string) (*SKU, error)
}

// CustomerInput holds the fields required to create a customer.
type CustomerInput struct {
	Code         string
	Name         string
	Email        string
	Phone        string
	Address      string
	CreditLimit  decimal.Decimal
	PaymentTerms int // days; 0 means 30
}

// SKUInput holds the fields required to create a SKU.
type SKUInput struct {
	Code               string
	Name               string
	Description        string
	Category           string
	Unit               string // billing unit: pallet, cwt, shipment, hour
	UnitPrice          decimal.Decimal
	Discountable       bool
	IsSurcharge        bool
	RevenueAccountCode string
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

// ── Customers ────────────────────────────────────────────────────────────────

func (s *catalogService) CreateCustomer(ctx context.Context, companyCode string, input CustomerInput) (*Customer, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	if input.Code == "" || input.Name == "" {
		return nil, fmt.Errorf("customer code and name are required")
	}
	terms := input.PaymentTerms
	if terms == 0 {
		terms = 30
	}

	c := &Customer{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, code, name, email, phone, address, credit_limit, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, company_id, code, name, email, phone, address, credit_limit,
		          payment_terms_days, is_active, created_at`,
		companyID, input.Code, input.Name, input.Email, input.Phone, input.Address, input.CreditLimit, terms,
	).Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreditLimit,
		&c.PaymentTermsDays, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", input.Code, err)
	}
	return c, nil
}

func (s *catalogService) GetCustomers(ctx context.Context, companyCode string) ([]Customer, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, email, phone, address, credit_limit,
		       payment_terms_days, is_active, created_at
		FROM customers
		WHERE company_id = $1 AND is_active = true
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreditLimit,
			&c.PaymentTermsDays, &c.IsActive, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (s *catalogService) GetCustomerByCode(ctx context.Context, companyCode, code string) (*Customer, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	c := &Customer{}
	err = s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, email, phone, address, credit_limit,
		       payment_terms_days, is_active, created_at
		FROM customers
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	).Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreditLimit,
		&c.PaymentTermsDays, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("customer %q not found: %w", code, err)
	}
	return c, nil
}

// ── SKUs ─────────────────────────────────────────────────────────────────────

func (s *catalogService) CreateSKU(ctx context.Context, companyCode string, input SKUInput) (*SKU, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	if input.Code == "" || input.Name == "" {
		return nil, fmt.Errorf("sku code and name are required")
	}
	if input.Category == "" {
		return nil, fmt.Errorf("sku category is required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("sku unit price cannot be negative, got %s", input.UnitPrice)
	}
	if input.IsSurcharge && input.Discountable {
		return nil, fmt.Errorf("surcharge skus cannot be discountable")
	}

	sku := &SKU{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO skus (company_id, code, name, description, category, unit, unit_price,
		                  discountable, is_surcharge, revenue_account_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING id, company_id, code, name, description, category, unit, unit_price,
		          discountable, is_surcharge, COALESCE(revenue_account_code, ''), is_active, created_at`,
		companyID, input.Code, input.Name, input.Description, input.Category, input.Unit, input.UnitPrice,
		input.Discountable, input.IsSurcharge, input.RevenueAccountCode,
	).Scan(
		&sku.ID, &sku.CompanyID, &sku.Code, &sku.Name, &sku.Description, &sku.Category, &sku.Unit, &sku.UnitPrice,
		&sku.Discountable, &sku.IsSurcharge, &sku.RevenueAccountCode, &sku.IsActive, &sku.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create sku %q: %w", input.Code, err)
	}
	return sku, nil
}

func (s *catalogService) UpdateSKUPrice(ctx context.Context, companyCode, skuCode string, unitPrice decimal.Decimal) (*SKU, error) {
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("sku unit price cannot be negative, got %s", unitPrice)
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	res, err := s.pool.Exec(ctx,
		"UPDATE skus SET unit_price = $1 WHERE company_id = $2 AND code = $3 AND is_active = true",
		unitPrice, companyID, skuCode)
	if err != nil {
		return nil, fmt.Errorf("update sku %q price: %w", skuCode, err)
	}
	if res.RowsAffected() == 0 {
		return nil, fmt.Errorf("sku %q not found for company %s", skuCode, companyCode)
	}
	return s.GetSKUByCode(ctx, companyCode, skuCode)
}

func (s *catalogService) DeactivateSKU(ctx context.Context, companyCode, skuCode string) error {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return err
	}

	res, err := s.pool.Exec(ctx,
		"UPDATE skus SET is_active = false WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, skuCode)
	if err != nil {
		return fmt.Errorf("deactivate sku %q: %w", skuCode, err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("sku %q not found for company %s", skuCode, companyCode)
	}
	return nil
}

func (s *catalogService) GetSKUs(ctx context.Context, companyCode string, category string) ([]SKU, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, company_id, code, name, description, category, unit, unit_price,
		       discountable, is_surcharge, COALESCE(revenue_account_code, ''), is_active, created_at
		FROM skus
		WHERE company_id = $1 AND is_active = true
	`
	args := []any{companyID}
	if category != "" {
		query += " AND category = $2"
		args = append(args, category)
	}
	query += " ORDER BY code"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get skus: %w", err)
	}
	defer rows.Close()

	var skus []SKU
	for rows.Next() {
		var sku SKU
		if err := rows.Scan(
			&sku.ID, &sku.CompanyID, &sku.Code, &sku.Name, &sku.Description, &sku.Category, &sku.Unit, &sku.UnitPrice,
			&sku.Discountable, &sku.IsSurcharge, &sku.RevenueAccountCode, &sku.IsActive, &sku.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		skus = append(skus, sku)
	}
	return skus, nil
}

func (s *catalogService) GetSKUByCode(ctx context.Context, companyCode, code string) (*SKU, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	sku := &SKU{}
	err = s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, description, category, unit, unit_price,
		       discountable, is_surcharge, COALESCE(revenue_account_code, ''), is_active, created_at
		FROM skus
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	).Scan(
		&sku.ID, &sku.CompanyID, &sku.Code, &sku.Name, &sku.Description, &sku.Category, &sku.Unit, &sku.UnitPrice,
		&sku.Discountable, &sku.IsSurcharge, &sku.RevenueAccountCode, &sku.IsActive, &sku.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sku %q not found: %w", code, err)
	}
	return sku, nil
}
