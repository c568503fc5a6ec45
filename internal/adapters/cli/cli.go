package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"logistics-backoffice/internal/app"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	switch args[0] {
	case "bal", "balances":
		result, err := svc.GetTrialBalance(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get balances: %v", err)
		}
		printTrialBalance(result)

	case "invoices", "inv":
		var statusPtr *string
		if len(args) > 1 {
			status := strings.ToUpper(args[1])
			statusPtr = &status
		}
		result, err := svc.ListInvoices(ctx, company.CompanyCode, statusPtr)
		if err != nil {
			log.Fatalf("Failed to list invoices: %v", err)
		}
		printInvoices(result)

	case "rmas":
		var statusPtr *string
		if len(args) > 1 {
			status := strings.ToUpper(args[1])
			statusPtr = &status
		}
		result, err := svc.ListRMAs(ctx, company.CompanyCode, statusPtr)
		if err != nil {
			log.Fatalf("Failed to list RMAs: %v", err)
		}
		printRMAs(result)

	case "stock":
		result, err := svc.GetStockLevels(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get stock levels: %v", err)
		}
		printStock(result)

	case "aging":
		result, err := svc.GetARAging(ctx, company.CompanyCode, "")
		if err != nil {
			log.Fatalf("Failed to get AR aging: %v", err)
		}
		printARAging(result)

	case "import-rates":
		if len(args) < 2 {
			log.Fatal("Usage: backoffice import-rates <file.csv>")
		}
		f, err := os.Open(args[1])
		if err != nil {
			log.Fatalf("Failed to open rate file: %v", err)
		}
		defer f.Close()
		result, err := svc.ImportRates(ctx, company.CompanyCode, f)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		printRateReport(result)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: bal, invoices, rmas, stock, aging, import-rates", args[0])
	}
}

func printTrialBalance(result *app.TrialBalanceResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-58s\n", "TRIAL BALANCE")
	fmt.Printf("  Company  : %s — %s\n", result.CompanyCode, result.CompanyName)
	fmt.Printf("  Currency : %s\n", result.Currency)
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-10s %-30s %15s\n", "CODE", "NAME", "BALANCE")
	fmt.Println(strings.Repeat("-", 62))
	for _, b := range result.Accounts {
		fmt.Printf("  %-10s %-30s %15s\n", b.Code, b.Name, b.Balance.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printInvoices(result *app.InvoiceListResult) {
	fmt.Println()
	fmt.Printf("  %-18s %-10s %-10s %-24s %12s %12s\n",
		"NUMBER", "ID", "STATUS", "CUSTOMER", "TOTAL", "PAID")
	fmt.Println(strings.Repeat("-", 92))
	for _, inv := range result.Invoices {
		number := inv.InvoiceNumber
		if number == "" {
			number = "(draft)"
		}
		fmt.Printf("  %-18s %-10d %-10s %-24s %12s %12s\n",
			number, inv.ID, inv.Status, inv.CustomerCode,
			inv.GrandTotal.StringFixed(2), inv.AmountPaid.StringFixed(2))
	}
}

func printRMAs(result *app.RMAListResult) {
	fmt.Println()
	fmt.Printf("  %-18s %-10s %-10s %-18s %12s\n",
		"NUMBER", "ID", "STATUS", "INVOICE", "CREDIT")
	fmt.Println(strings.Repeat("-", 74))
	for _, rma := range result.RMAs {
		fmt.Printf("  %-18s %-10d %-10s %-18s %12s\n",
			rma.RMANumber, rma.ID, rma.Status, rma.InvoiceNumber,
			rma.CreditAmount.StringFixed(2))
	}
}

func printStock(result *app.StockResult) {
	fmt.Println()
	fmt.Printf("  %-14s %-28s %-10s %10s %12s\n",
		"SKU", "NAME", "WAREHOUSE", "ON HAND", "UNIT COST")
	fmt.Println(strings.Repeat("-", 80))
	for _, l := range result.Levels {
		fmt.Printf("  %-14s %-28s %-10s %10s %12s\n",
			l.SKUCode, l.SKUName, l.WarehouseCode,
			l.OnHand.StringFixed(2), l.UnitCost.StringFixed(4))
	}
}

func printARAging(result *app.ARAgingResult) {
	fmt.Println()
	fmt.Printf("  AR AGING as of %s\n", result.AsOfDate)
	fmt.Printf("  %-12s %-24s %10s %10s %10s %10s %12s\n",
		"CUSTOMER", "NAME", "CURRENT", "31-60", "61-90", ">90", "TOTAL")
	fmt.Println(strings.Repeat("-", 96))
	for _, row := range result.Rows {
		fmt.Printf("  %-12s %-24s %10s %10s %10s %10s %12s\n",
			row.CustomerCode, row.CustomerName,
			row.Current.StringFixed(2), row.Days31to60.StringFixed(2),
			row.Days61to90.StringFixed(2), row.Over90.StringFixed(2),
			row.Total.StringFixed(2))
	}
}

func printRateReport(result *app.RateImportResult) {
	r := result.Report
	fmt.Printf("Imported %d of %d rows (%d rejected)\n", r.Imported, r.TotalRows, r.Rejected)
	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Printf("  row %d: %s: %s\n", e.Row, e.Field, e.Message)
		} else {
			fmt.Printf("  row %d: %s\n", e.Row, e.Message)
		}
	}
}
