package web

import (
	"net/http"

	"logistics-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiListCustomers handles GET /api/companies/{code}/customers.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.ListCustomers(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Customers)
}

// apiCreateCustomer handles POST /api/companies/{code}/customers.
// Body: { code, name, email?, phone?, address?, credit_limit?, payment_terms_days? }
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		Code             string `json:"code"`
		Name             string `json:"name"`
		Email            string `json:"email"`
		Phone            string `json:"phone"`
		Address          string `json:"address"`
		CreditLimit      string `json:"credit_limit"`
		PaymentTermsDays int    `json:"payment_terms_days"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Code == "" || body.Name == "" {
		writeError(w, r, "code and name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	creditLimit := decimal.Zero
	if body.CreditLimit != "" {
		var err error
		creditLimit, err = decimal.NewFromString(body.CreditLimit)
		if err != nil {
			writeError(w, r, "invalid credit_limit", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	result, err := h.svc.CreateCustomer(r.Context(), app.CreateCustomerRequest{
		CompanyCode:  code,
		Code:         body.Code,
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		Address:      body.Address,
		CreditLimit:  creditLimit,
		PaymentTerms: body.PaymentTermsDays,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Customer)
}

// apiListSKUs handles GET /api/companies/{code}/skus?category=storage.
func (h *Handler) apiListSKUs(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	category := r.URL.Query().Get("category")
	result, err := h.svc.ListSKUs(r.Context(), code, category)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.SKUs)
}

// apiCreateSKU handles POST /api/companies/{code}/skus.
// Body: { code, name, description?, category, unit, unit_price, discountable,
//         is_surcharge, revenue_account_code? }
func (h *Handler) apiCreateSKU(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		Code               string `json:"code"`
		Name               string `json:"name"`
		Description        string `json:"description"`
		Category           string `json:"category"`
		Unit               string `json:"unit"`
		UnitPrice          string `json:"unit_price"`
		Discountable       bool   `json:"discountable"`
		IsSurcharge        bool   `json:"is_surcharge"`
		RevenueAccountCode string `json:"revenue_account_code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Code == "" || body.Name == "" {
		writeError(w, r, "code and name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	unitPrice, err := decimal.NewFromString(body.UnitPrice)
	if err != nil {
		writeError(w, r, "invalid unit_price", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateSKU(r.Context(), app.CreateSKURequest{
		CompanyCode:        code,
		Code:               body.Code,
		Name:               body.Name,
		Description:        body.Description,
		Category:           body.Category,
		Unit:               body.Unit,
		UnitPrice:          unitPrice,
		Discountable:       body.Discountable,
		IsSurcharge:        body.IsSurcharge,
		RevenueAccountCode: body.RevenueAccountCode,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.SKU)
}

// apiUpdateSKUPrice handles PATCH /api/companies/{code}/skus/{skuCode}/price.
// Body: { unit_price }
func (h *Handler) apiUpdateSKUPrice(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	skuCode := chi.URLParam(r, "skuCode")

	var body struct {
		UnitPrice string `json:"unit_price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateSKUPrice(r.Context(), code, skuCode, body.UnitPrice)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.SKU)
}

// apiDeactivateSKU handles DELETE /api/companies/{code}/skus/{skuCode}.
func (h *Handler) apiDeactivateSKU(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	skuCode := chi.URLParam(r, "skuCode")

	if err := h.svc.DeactivateSKU(r.Context(), code, skuCode); err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
