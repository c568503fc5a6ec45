package core

import (
	"context"
	"time"
)

// Vendor is a supplier that returned goods can be routed back to via the RTV
// (return-to-vendor) disposition.
type Vendor struct {
	ID            int       `json:"id"`
	CompanyID     int       `json:"company_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	ReturnAddress *string   `json:"return_address,omitempty"`
	RMATermsDays  int       `json:"rma_terms_days"` // window the vendor accepts returns in
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// VendorInput holds the fields required to create a new vendor.
type VendorInput struct {
	Code          string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	ReturnAddress string
	RMATermsDays  int
}

// VendorService provides vendor master data operations.
type VendorService interface {
	CreateVendor(ctx context.Context, companyCode string, input VendorInput) (*Vendor, error)
	GetVendors(ctx context.Context, companyCode string) ([]Vendor, error)
	GetVendorByCode(ctx context.Context, companyCode, code string) (*Vendor, error)
}
