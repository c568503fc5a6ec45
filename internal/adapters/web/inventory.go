package web

import (
	"net/http"

	"logistics-backoffice/internal/app"

	"github.com/shopspring/decimal"
)

// apiListWarehouses handles GET /api/companies/{code}/warehouses.
func (h *Handler) apiListWarehouses(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.ListWarehouses(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Warehouses)
}

// apiStockLevels handles GET /api/companies/{code}/stock.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.GetStockLevels(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Levels)
}

// apiListMovements handles GET /api/companies/{code}/stock/movements?sku=STOR-PAL.
func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	sku := r.URL.Query().Get("sku")
	result, err := h.svc.ListMovements(r.Context(), code, sku)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Movements)
}

// apiReceiveStock handles POST /api/companies/{code}/stock/receive.
// Body: { sku_code, warehouse_code, qty, unit_cost, movement_date?, credit_account_code? }
func (h *Handler) apiReceiveStock(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		SKUCode           string `json:"sku_code"`
		WarehouseCode     string `json:"warehouse_code"`
		Qty               string `json:"qty"`
		UnitCost          string `json:"unit_cost"`
		MovementDate      string `json:"movement_date"`
		CreditAccountCode string `json:"credit_account_code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	qty, err := decimal.NewFromString(body.Qty)
	if err != nil {
		writeError(w, r, "invalid qty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	unitCost, err := decimal.NewFromString(body.UnitCost)
	if err != nil {
		writeError(w, r, "invalid unit_cost", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	err = h.svc.ReceiveStock(r.Context(), app.ReceiveStockRequest{
		CompanyCode:       code,
		SKUCode:           body.SKUCode,
		WarehouseCode:     body.WarehouseCode,
		Qty:               qty,
		UnitCost:          unitCost,
		MovementDate:      body.MovementDate,
		CreditAccountCode: body.CreditAccountCode,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	countJournal("inventory")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"status": "received"})
}

// apiListVendors handles GET /api/companies/{code}/vendors.
func (h *Handler) apiListVendors(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.ListVendors(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Vendors)
}

// apiCreateVendor handles POST /api/companies/{code}/vendors.
// Body: { code, name, contact_person?, email?, phone?, return_address?, rma_terms_days? }
func (h *Handler) apiCreateVendor(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		Code          string `json:"code"`
		Name          string `json:"name"`
		ContactPerson string `json:"contact_person"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		ReturnAddress string `json:"return_address"`
		RMATermsDays  int    `json:"rma_terms_days"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Code == "" || body.Name == "" {
		writeError(w, r, "code and name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateVendor(r.Context(), app.CreateVendorRequest{
		CompanyCode:   code,
		Code:          body.Code,
		Name:          body.Name,
		ContactPerson: body.ContactPerson,
		Email:         body.Email,
		Phone:         body.Phone,
		ReturnAddress: body.ReturnAddress,
		RMATermsDays:  body.RMATermsDays,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Vendor)
}
