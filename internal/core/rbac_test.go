package core_test

import (
	"testing"

	"logistics-backoffice/internal/core"
)

func TestCan_RoleBoundaries(t *testing.T) {
	cases := []struct {
		name       string
		role       core.Role
		permission string
		want       bool
	}{
		{"clerk can draft invoices", core.RoleClerk, core.PermInvoiceDraft, true},
		{"clerk cannot issue invoices", core.RoleClerk, core.PermInvoiceIssue, false},
		{"clerk cannot reverse journals", core.RoleClerk, core.PermLedgerReverse, false},
		{"billing can issue invoices", core.RoleBilling, core.PermInvoiceIssue, true},
		{"billing can record payments", core.RoleBilling, core.PermPaymentRecord, true},
		{"billing cannot manage stock", core.RoleBilling, core.PermStockManage, false},
		{"warehouse can process rmas", core.RoleWarehouse, core.PermRMAProcess, true},
		{"warehouse cannot record payments", core.RoleWarehouse, core.PermPaymentRecord, false},
		{"controller can reverse journals", core.RoleController, core.PermLedgerReverse, true},
		{"controller can import rates", core.RoleController, core.PermRateImport, true},
		{"admin holds everything", core.RoleAdmin, core.PermLedgerReverse, true},
		{"unknown role holds nothing", core.Role("INTERN"), core.PermReportView, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.Can(tc.role, tc.permission); got != tc.want {
				t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.permission, got, tc.want)
			}
		})
	}
}

func TestPermissionsFor_AdminCoversEveryRole(t *testing.T) {
	adminPerms := map[string]bool{}
	for _, p := range core.PermissionsFor(core.RoleAdmin) {
		adminPerms[p] = true
	}
	for _, role := range []core.Role{core.RoleClerk, core.RoleBilling, core.RoleWarehouse, core.RoleController} {
		for _, p := range core.PermissionsFor(role) {
			if !adminPerms[p] {
				t.Errorf("admin is missing %s held by %s", p, role)
			}
		}
	}
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	perms := core.PermissionsFor(core.RoleClerk)
	if len(perms) == 0 {
		t.Fatal("expected clerk to hold at least one permission")
	}
	perms[0] = "tampered"
	if core.Can(core.RoleClerk, "tampered") {
		t.Error("mutating the returned slice leaked into the role table")
	}
}
