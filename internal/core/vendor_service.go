package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type vendorService struct {
	pool *pgxpool.Pool
}

// NewVendorService constructs a VendorService backed by PostgreSQL.
func NewVendorService(pool *pgxpool.Pool) VendorService {
	return &vendorService{pool: pool}
}

func (s *vendorService) CreateVendor(ctx context.Context, companyCode string, input VendorInput) (*Vendor, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	if input.Code == "" || input.Name == "" {
		return nil, fmt.Errorf("vendor code and name are required")
	}
	terms := input.RMATermsDays
	if terms == 0 {
		terms = 30
	}

	toPtr := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	v := &Vendor{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO vendors (company_id, code, name, contact_person, email, phone, return_address, rma_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, company_id, code, name, contact_person, email, phone, return_address,
		          rma_terms_days, is_active, created_at`,
		companyID, input.Code, input.Name, toPtr(input.ContactPerson), toPtr(input.Email),
		toPtr(input.Phone), toPtr(input.ReturnAddress), terms,
	).Scan(
		&v.ID, &v.CompanyID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.ReturnAddress,
		&v.RMATermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create vendor %q: %w", input.Code, err)
	}
	return v, nil
}

func (s *vendorService) GetVendors(ctx context.Context, companyCode string) ([]Vendor, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, contact_person, email, phone, return_address,
		       rma_terms_days, is_active, created_at
		FROM vendors
		WHERE company_id = $1 AND is_active = true
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(
			&v.ID, &v.CompanyID, &v.Code, &v.Name,
			&v.ContactPerson, &v.Email, &v.Phone, &v.ReturnAddress,
			&v.RMATermsDays, &v.IsActive, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

func (s *vendorService) GetVendorByCode(ctx context.Context, companyCode, code string) (*Vendor, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	v := &Vendor{}
	err = s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, contact_person, email, phone, return_address,
		       rma_terms_days, is_active, created_at
		FROM vendors
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	).Scan(
		&v.ID, &v.CompanyID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.ReturnAddress,
		&v.RMATermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("vendor %q not found: %w", code, err)
	}
	return v, nil
}
