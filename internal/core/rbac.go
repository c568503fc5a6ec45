package core

// Role is a coarse-grained job function. Permissions are labels checked at the
// request boundary; they gate which operations a role may invoke, not row-level
// data access.
type Role string

const (
	RoleClerk      Role = "CLERK"      // quotes and invoice drafting
	RoleBilling    Role = "BILLING"    // issuing, payments, credit memos
	RoleWarehouse  Role = "WAREHOUSE"  // stock, receiving, RMA handling
	RoleController Role = "CONTROLLER" // ledger, reversals, reports, imports
	RoleAdmin      Role = "ADMIN"      // everything
)

// Permission labels. Handlers declare the permission they require and the
// middleware checks it against the caller's role.
const (
	PermQuoteManage    = "quote.manage"
	PermInvoiceDraft   = "invoice.draft"
	PermInvoiceIssue   = "invoice.issue"
	PermInvoiceVoid    = "invoice.void"
	PermPaymentRecord  = "payment.record"
	PermRMARequest     = "rma.request"
	PermRMAProcess     = "rma.process"
	PermStockManage    = "stock.manage"
	PermCatalogManage  = "catalog.manage"
	PermLedgerView     = "ledger.view"
	PermLedgerReverse  = "ledger.reverse"
	PermReportView     = "report.view"
	PermRateImport     = "rates.import"
)

var rolePermissions = map[Role][]string{
	RoleClerk: {
		PermQuoteManage, PermInvoiceDraft, PermReportView,
	},
	RoleBilling: {
		PermQuoteManage, PermInvoiceDraft, PermInvoiceIssue, PermInvoiceVoid,
		PermPaymentRecord, PermRMARequest, PermReportView, PermLedgerView,
	},
	RoleWarehouse: {
		PermStockManage, PermRMARequest, PermRMAProcess, PermReportView,
	},
	RoleController: {
		PermInvoiceIssue, PermInvoiceVoid, PermPaymentRecord, PermRMAProcess,
		PermCatalogManage, PermLedgerView, PermLedgerReverse, PermReportView, PermRateImport,
	},
}

// Can reports whether the role holds the permission. ADMIN holds everything;
// unknown roles hold nothing.
func Can(role Role, permission string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// PermissionsFor returns the permission labels a role holds. The slice is a
// copy; callers may mutate it.
func PermissionsFor(role Role) []string {
	if role == RoleAdmin {
		var all []string
		seen := map[string]bool{}
		for _, perms := range rolePermissions {
			for _, p := range perms {
				if !seen[p] {
					seen[p] = true
					all = append(all, p)
				}
			}
		}
		return all
	}
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
