package web

import (
	"net/http"

	"logistics-backoffice/internal/core"
)

// rateSchema handles GET /api/rates/schema. Partners validate their files
// against this before uploading.
func (h *Handler) rateSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, core.RateRowSchema())
}

// apiImportRates handles POST /api/companies/{code}/rates/import. The body is
// the raw CSV. Row-level failures reject only those rows; a malformed header
// fails the whole upload.
func (h *Handler) apiImportRates(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	result, err := h.svc.ImportRates(r.Context(), code, r.Body)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	if result.Report.Rejected > 0 {
		// Partial success: report which rows were dropped.
		w.WriteHeader(http.StatusMultiStatus)
	}
	writeJSON(w, result.Report)
}

// apiListRates handles GET /api/companies/{code}/rates?origin=ORD&dest=LAX.
func (h *Handler) apiListRates(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	origin := r.URL.Query().Get("origin")
	dest := r.URL.Query().Get("dest")

	result, err := h.svc.ListRates(r.Context(), code, origin, dest)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Rates)
}
