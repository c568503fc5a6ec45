package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"logistics-backoffice/internal/app"
	"logistics-backoffice/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(Metrics)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/rates/schema", h.rateSchema)

	// ── Authenticated API ─────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.ResolveUser)

		// Rate CSV upload: allows larger bodies than the JSON endpoints.
		r.With(RequirePermission(core.PermRateImport), RequestBodyLimit(16<<20)).
			Post("/api/companies/{code}/rates/import", h.apiImportRates)

		// All other endpoints: 1 MB body limit to prevent unbounded request abuse.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			// ── Ledger ────────────────────────────────────────────────────────
			r.With(RequirePermission(core.PermLedgerView)).
				Get("/api/companies/{code}/trial-balance", h.apiTrialBalance)
			r.With(RequirePermission(core.PermLedgerView)).
				Get("/api/companies/{code}/journals", h.apiListJournals)
			r.With(RequirePermission(core.PermLedgerView)).
				Get("/api/journals/{journalID}", h.apiGetJournal)
			r.With(RequirePermission(core.PermLedgerReverse)).
				Post("/api/journals/{journalID}/reverse", h.apiReverseJournal)
			r.With(RequirePermission(core.PermLedgerView)).
				Get("/api/companies/{code}/accounts/{accountCode}/statement", h.apiAccountStatement)

			// ── Reports ───────────────────────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(core.PermReportView))
				r.Get("/api/companies/{code}/reports/ar-aging", h.apiARAging)
				r.Get("/api/companies/{code}/reports/revenue-by-category", h.apiRevenueByCategory)
				r.Get("/api/companies/{code}/reports/discount-usage", h.apiDiscountUsage)
			})

			// ── Catalog ───────────────────────────────────────────────────────
			r.Get("/api/companies/{code}/customers", h.apiListCustomers)
			r.Get("/api/companies/{code}/skus", h.apiListSKUs)
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(core.PermCatalogManage))
				r.Post("/api/companies/{code}/customers", h.apiCreateCustomer)
				r.Post("/api/companies/{code}/skus", h.apiCreateSKU)
				r.Patch("/api/companies/{code}/skus/{skuCode}/price", h.apiUpdateSKUPrice)
				r.Delete("/api/companies/{code}/skus/{skuCode}", h.apiDeactivateSKU)
			})

			// ── Quotes ────────────────────────────────────────────────────────
			r.Get("/api/companies/{code}/quotes", h.apiListQuotes)
			r.Get("/api/quotes/{id}", h.apiGetQuote)
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(core.PermQuoteManage))
				r.Post("/api/companies/{code}/quotes", h.apiCreateQuote)
				r.Post("/api/quotes/{id}/send", h.apiSendQuote)
				r.Post("/api/quotes/{id}/accept", h.apiAcceptQuote)
				r.Post("/api/quotes/{id}/expire", h.apiExpireQuote)
				r.Post("/api/quotes/{id}/convert", h.apiConvertQuote)
			})

			// ── Invoices ──────────────────────────────────────────────────────
			r.Get("/api/companies/{code}/invoices", h.apiListInvoices)
			r.Get("/api/companies/{code}/invoices/{ref}", h.apiGetInvoice)
			r.With(RequirePermission(core.PermInvoiceDraft)).
				Post("/api/companies/{code}/invoices", h.apiCreateInvoice)
			r.With(RequirePermission(core.PermInvoiceIssue)).
				Post("/api/companies/{code}/invoices/{ref}/issue", h.apiIssueInvoice)
			r.With(RequirePermission(core.PermInvoiceVoid)).
				Post("/api/companies/{code}/invoices/{ref}/void", h.apiVoidInvoice)

			// ── Payments ──────────────────────────────────────────────────────
			r.Get("/api/companies/{code}/payments", h.apiListPayments)
			r.With(RequirePermission(core.PermPaymentRecord)).
				Post("/api/companies/{code}/payments", h.apiRecordPayment)

			// ── RMAs ──────────────────────────────────────────────────────────
			r.Get("/api/companies/{code}/rmas", h.apiListRMAs)
			r.Get("/api/rmas/{id}", h.apiGetRMA)
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(core.PermRMARequest))
				r.Post("/api/companies/{code}/rmas", h.apiRequestRMA)
				r.Post("/api/rmas/{id}/reject", h.apiRejectRMA)
			})
			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(core.PermRMAProcess))
				r.Post("/api/rmas/{id}/receive", h.apiReceiveRMA)
				r.Post("/api/rmas/{id}/process", h.apiProcessRMA)
			})

			// ── Inventory and vendors ─────────────────────────────────────────
			r.Get("/api/companies/{code}/warehouses", h.apiListWarehouses)
			r.Get("/api/companies/{code}/stock", h.apiStockLevels)
			r.Get("/api/companies/{code}/stock/movements", h.apiListMovements)
			r.With(RequirePermission(core.PermStockManage)).
				Post("/api/companies/{code}/stock/receive", h.apiReceiveStock)
			r.Get("/api/companies/{code}/vendors", h.apiListVendors)
			r.With(RequirePermission(core.PermCatalogManage)).
				Post("/api/companies/{code}/vendors", h.apiCreateVendor)

			// ── Benchmark rates ───────────────────────────────────────────────
			r.Get("/api/companies/{code}/rates", h.apiListRates)
		})
	})

	h.router = r
	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}

	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// me returns the acting user's profile and effective permissions.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, r, "no acting user resolved", "UNAUTHENTICATED", http.StatusUnauthorized)
		return
	}

	type response struct {
		ID          int      `json:"id"`
		Username    string   `json:"username"`
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}

	writeJSON(w, response{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: core.PermissionsFor(user.Role),
	})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
