package web

import (
	"fmt"
	"net/http"

	"logistics-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// billingLineBody is the wire shape of one invoice or quote line.
type billingLineBody struct {
	SKUCode     string `json:"sku_code"`
	Description string `json:"description"`
	Qty         string `json:"qty"`
	UnitPrice   string `json:"unit_price"`
}

// billingDiscountBody is the wire shape of one discount.
type billingDiscountBody struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Scope       string `json:"scope"`
	Description string `json:"description"`
}

// parseBillingLines converts wire lines into app inputs, validating quantities.
func parseBillingLines(lines []billingLineBody) ([]app.BillingLineInput, error) {
	out := make([]app.BillingLineInput, 0, len(lines))
	for i, l := range lines {
		qty, err := decimal.NewFromString(l.Qty)
		if err != nil || qty.IsZero() {
			return nil, fmt.Errorf("line %d: invalid qty %q", i+1, l.Qty)
		}
		price, _ := decimal.NewFromString(l.UnitPrice)
		out = append(out, app.BillingLineInput{
			SKUCode:     l.SKUCode,
			Description: l.Description,
			Qty:         qty,
			UnitPrice:   price,
		})
	}
	return out, nil
}

// parseBillingDiscounts converts wire discounts into app inputs.
func parseBillingDiscounts(discounts []billingDiscountBody) ([]app.BillingDiscountInput, error) {
	out := make([]app.BillingDiscountInput, 0, len(discounts))
	for i, d := range discounts {
		value, err := decimal.NewFromString(d.Value)
		if err != nil {
			return nil, fmt.Errorf("discount %d: invalid value %q", i+1, d.Value)
		}
		out = append(out, app.BillingDiscountInput{
			Code:        d.Code,
			Type:        d.Type,
			Value:       value,
			Scope:       d.Scope,
			Description: d.Description,
		})
	}
	return out, nil
}

// apiListInvoices handles GET /api/companies/{code}/invoices?status=ISSUED.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	statusFilter := r.URL.Query().Get("status")
	var statusPtr *string
	if statusFilter != "" {
		statusPtr = &statusFilter
	}
	result, err := h.svc.ListInvoices(r.Context(), code, statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Invoices)
}

// apiGetInvoice handles GET /api/companies/{code}/invoices/{ref}.
func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	ref := chi.URLParam(r, "ref")
	result, err := h.svc.GetInvoice(r.Context(), ref, code)
	if err != nil {
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result.Invoice)
}

// apiCreateInvoice handles POST /api/companies/{code}/invoices.
// Body: { customer_code, currency?, tax_rate, rounding_mode?, notes?,
//         lines: [{sku_code, qty, unit_price?, description?}],
//         discounts?: [{code, type, value, scope?, description?}] }
func (h *Handler) apiCreateInvoice(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		CustomerCode string                `json:"customer_code"`
		Currency     string                `json:"currency"`
		TaxRate      string                `json:"tax_rate"`
		RoundingMode string                `json:"rounding_mode"`
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

	result, err := h.svc.CreateInvoice(r.Context(), app.CreateInvoiceRequest{
		CompanyCode:  code,
		CustomerCode: body.CustomerCode,
		Currency:     body.Currency,
		TaxRate:      taxRate,
		RoundingMode: body.RoundingMode,
		Notes:        body.Notes,
		Lines:        lines,
		Discounts:    discounts,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Invoice)
}

// apiIssueInvoice handles POST /api/companies/{code}/invoices/{ref}/issue.
func (h *Handler) apiIssueInvoice(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	ref := chi.URLParam(r, "ref")
	result, err := h.svc.IssueInvoice(r.Context(), ref, code)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	countJournal("billing")
	writeJSON(w, result.Invoice)
}

// apiVoidInvoice handles POST /api/companies/{code}/invoices/{ref}/void.
// Body: { reason }
func (h *Handler) apiVoidInvoice(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	ref := chi.URLParam(r, "ref")

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

	result, err := h.svc.VoidInvoice(r.Context(), ref, code, body.Reason)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Invoice)
}

// apiListPayments handles GET /api/companies/{code}/payments?invoice=INV-2026-00001.
func (h *Handler) apiListPayments(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)
	invoiceRef := r.URL.Query().Get("invoice")
	result, err := h.svc.ListPayments(r.Context(), code, invoiceRef)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Receipts)
}

// apiRecordPayment handles POST /api/companies/{code}/payments.
// Body: { invoice_number, amount, bank_account_code?, payment_date?, method?, reference? }
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	code := companyCode(r)

	var body struct {
		InvoiceNumber   string `json:"invoice_number"`
		Amount          string `json:"amount"`
		BankAccountCode string `json:"bank_account_code"`
		PaymentDate     string `json:"payment_date"`
		Method          string `json:"method"`
		Reference       string `json:"reference"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.InvoiceNumber == "" {
		writeError(w, r, "invoice_number is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, r, "invalid amount", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), app.RecordPaymentRequest{
		CompanyCode:     code,
		InvoiceNumber:   body.InvoiceNumber,
		Amount:          amount,
		BankAccountCode: body.BankAccountCode,
		PaymentDate:     body.PaymentDate,
		Method:          body.Method,
		Reference:       body.Reference,
	})
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	countJournal("payments")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Receipt)
}
