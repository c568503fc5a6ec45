package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiTrialBalance handles GET /api/companies/{code}/trial-balance.
func (h *Handler) apiTrialBalance(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.GetTrialBalance(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// apiListJournals handles GET /api/companies/{code}/journals?module=billing.
func (h *Handler) apiListJournals(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	moduleFilter := r.URL.Query().Get("module")
	var modulePtr *string
	if moduleFilter != "" {
		modulePtr = &moduleFilter
	}
	result, err := h.svc.ListJournals(r.Context(), code, modulePtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Entries)
}

// apiGetJournal handles GET /api/journals/{journalID}.
func (h *Handler) apiGetJournal(w http.ResponseWriter, r *http.Request) {
	journalID := chi.URLParam(r, "journalID")
	result, err := h.svc.GetJournal(r.Context(), journalID)
	if err != nil {
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result.Entry)
}

// apiReverseJournal handles POST /api/journals/{journalID}/reverse.
// Body: { reason }
func (h *Handler) apiReverseJournal(w http.ResponseWriter, r *http.Request) {
	journalID := chi.URLParam(r, "journalID")

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

	result, err := h.svc.ReverseJournal(r.Context(), journalID, body.Reason)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	countJournal("reversal")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Entry)
}

// apiAccountStatement handles GET /api/companies/{code}/accounts/{accountCode}/statement?from=&to=.
func (h *Handler) apiAccountStatement(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	accountCode := chi.URLParam(r, "accountCode")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	result, err := h.svc.GetAccountStatement(r.Context(), code, accountCode, from, to)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// apiARAging handles GET /api/companies/{code}/reports/ar-aging?as_of=.
func (h *Handler) apiARAging(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	asOf := r.URL.Query().Get("as_of")

	result, err := h.svc.GetARAging(r.Context(), code, asOf)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// apiRevenueByCategory handles GET /api/companies/{code}/reports/revenue-by-category?from=&to=.
func (h *Handler) apiRevenueByCategory(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	result, err := h.svc.GetRevenueByCategory(r.Context(), code, from, to)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// apiDiscountUsage handles GET /api/companies/{code}/reports/discount-usage.
func (h *Handler) apiDiscountUsage(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	result, err := h.svc.GetDiscountUsage(r.Context(), code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}
