package web

import (
	"net/http"
	"strconv"

	"logistics-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// rmaID extracts and validates the {id} URL parameter.
func rmaID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid rma id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// apiListRMAs handles GET /api/companies/{code}/rmas?status=RECEIVED.
func (h *Handler) apiListRMAs(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	statusFilter := r.URL.Query().Get("status")
	var statusPtr *string
	if statusFilter != "" {
		statusPtr = &statusFilter
	}
	result, err := h.svc.ListRMAs(r.Context(), code, statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.RMAs)
}

// apiGetRMA handles GET /api/rmas/{id}.
func (h *Handler) apiGetRMA(w http.ResponseWriter, r *http.Request) {
	id, ok := rmaID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetRMA(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result.RMA)
}

// apiRequestRMA handles POST /api/companies/{code}/rmas.
// Body: { invoice_number, reason, lines: [{invoice_line_id, qty, disposition,
//         warehouse_code?, vendor_code?}] }
func (h *Handler) apiRequestRMA(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		InvoiceNumber string `json:"invoice_number"`
		Reason        string `json:"reason"`
		Lines         []struct {
			InvoiceLineID int    `json:"invoice_line_id"`
			Qty           string `json:"qty"`
			Disposition   string `json:"disposition"`
			WarehouseCode string `json:"warehouse_code"`
			VendorCode    string `json:"vendor_code"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.InvoiceNumber == "" {
		writeError(w, r, "invoice_number is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if len(body.Lines) == 0 {
		writeError(w, r, "at least one line is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	req := app.CreateRMARequest{
		CompanyCode:   code,
		InvoiceNumber: body.InvoiceNumber,
		Reason:        body.Reason,
	}
	for i, l := range body.Lines {
		qty, err := decimal.NewFromString(l.Qty)
		if err != nil || qty.IsZero() {
			writeError(w, r, "line "+strconv.Itoa(i+1)+": invalid qty", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Lines = append(req.Lines, app.RMALineInput{
			InvoiceLineID: l.InvoiceLineID,
			Qty:           qty,
			Disposition:   l.Disposition,
			WarehouseCode: l.WarehouseCode,
			VendorCode:    l.VendorCode,
		})
	}

	result, err := h.svc.RequestRMA(r.Context(), req)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.RMA)
}

// apiReceiveRMA handles POST /api/rmas/{id}/receive.
func (h *Handler) apiReceiveRMA(w http.ResponseWriter, r *http.Request) {
	id, ok := rmaID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ReceiveRMA(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.RMA)
}

// apiProcessRMA handles POST /api/rmas/{id}/process.
func (h *Handler) apiProcessRMA(w http.ResponseWriter, r *http.Request) {
	id, ok := rmaID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ProcessRMA(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	countJournal("rma")
	writeJSON(w, result.RMA)
}

// apiRejectRMA handles POST /api/rmas/{id}/reject.
// Body: { reason }
func (h *Handler) apiRejectRMA(w http.ResponseWriter, r *http.Request) {
	id, ok := rmaID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Reason == "" {
		writeError(w, r, "reason is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RejectRMA(r.Context(), id, body.Reason)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.RMA)
}
