package core

import "time"

type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// Account is one chart-of-accounts record, scoped to a company.
type Account struct {
	ID        int         `json:"id"`
	CompanyID int         `json:"company_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
}

// Company is an operating entity of the 3PL. All master data and documents
// are scoped to a company.
type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusPosted    DocumentStatus = "POSTED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// Document type codes used by the back office. Each has its own gapless
// numbering sequence (see DocumentService).
const (
	DocTypeInvoice    = "INV"
	DocTypeCreditMemo = "CRM"
	DocTypeReceipt    = "PRC"
	DocTypeQuote      = "QTE"
	DocTypeRMA        = "RMA"
)

type DocumentType struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	AffectsGL         bool   `json:"affects_gl"`
	AffectsAR         bool   `json:"affects_ar"`
	AffectsInventory  bool   `json:"affects_inventory"`
	NumberingStrategy string `json:"numbering_strategy"` // 'global' or 'per_fy'
	ResetsEveryFY     bool   `json:"resets_every_fy"`
}

// Document is a numbered business document. The number is assigned when the
// document transitions DRAFT -> POSTED, never before.
type Document struct {
	ID             int            `json:"id"`
	CompanyID      int            `json:"company_id"`
	TypeCode       string         `json:"type_code"`
	Status         DocumentStatus `json:"status"`
	DocumentNumber *string        `json:"document_number,omitempty"`
	FinancialYear  *int           `json:"financial_year,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	PostedAt       *time.Time     `json:"posted_at,omitempty"`
}

type DocumentSequence struct {
	CompanyID     int    `json:"company_id"`
	TypeCode      string `json:"type_code"`
	FinancialYear *int   `json:"financial_year,omitempty"`
	LastNumber    int64  `json:"last_number"`
}
