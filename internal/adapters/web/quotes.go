package web

import (
	"net/http"
	"strconv"

	"logistics-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// quoteID extracts and validates the {id} URL parameter.
func quoteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid quote id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// apiListQuotes handles GET /api/companies/{code}/quotes?status=SENT.
func (h *Handler) apiListQuotes(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	statusFilter := r.URL.Query().Get("status")
	var statusPtr *string
	if statusFilter != "" {
		statusPtr = &statusFilter
	}
	result, err := h.svc.ListQuotes(r.Context(), code, statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Quotes)
}

// apiGetQuote handles GET /api/quotes/{id}.
func (h *Handler) apiGetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result.Quote)
}

// apiCreateQuote handles POST /api/companies/{code}/quotes.
// Body mirrors invoice creation plus valid_until.
func (h *Handler) apiCreateQuote(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		CustomerCode string                `json:"customer_code"`
		Currency     string                `json:"currency"`
		TaxRate      string                `json:"tax_rate"`
		ValidUntil   string                `json:"valid_until"`
		Notes        string                `json:"notes"`
		Lines        []billingLineBody     `json:"lines"`
		Discounts    []billingDiscountBody `json:"discounts"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CustomerCode == "" {
		writeError(w, r, "customer_code is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if len(body.Lines) == 0 {
		writeError(w, r, "at least one line is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	taxRate, err := decimal.NewFromString(body.TaxRate)
	if err != nil {
		writeError(w, r, "invalid tax_rate", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	lines, err := parseBillingLines(body.Lines)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	discounts, err := parseBillingDiscounts(body.Discounts)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateQuote(r.Context(), app.CreateQuoteRequest{
		CompanyCode:  code,
		CustomerCode: body.CustomerCode,
		Currency:     body.Currency,
		TaxRate:      taxRate,
		ValidUntil:   body.ValidUntil,
		Notes:        body.Notes,
		Lines:        lines,
		Discounts:    discounts,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Quote)
}

// apiSendQuote handles POST /api/quotes/{id}/send.
func (h *Handler) apiSendQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.SendQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Quote)
}

// apiAcceptQuote handles POST /api/quotes/{id}/accept.
func (h *Handler) apiAcceptQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.AcceptQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Quote)
}

// apiExpireQuote handles POST /api/quotes/{id}/expire.
func (h *Handler) apiExpireQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ExpireQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Quote)
}

// apiConvertQuote handles POST /api/quotes/{id}/convert. Returns the new DRAFT invoice.
func (h *Handler) apiConvertQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ConvertQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Invoice)
}
