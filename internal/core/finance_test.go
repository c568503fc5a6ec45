package core_test

import (
	"reflect"
	"strings"
	"testing"

	"logistics-backoffice/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(id, sku string, qty, unitPrice string, discountable bool) core.LineItem {
	return core.LineItem{
		ID:           id,
		SKU:          sku,
		Qty:          dec(qty),
		UnitPrice:    dec(unitPrice),
		Discountable: discountable,
	}
}

func assertMoney(t *testing.T, field string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", field, got.StringFixed(2), want.StringFixed(2))
	}
}

func TestCalculateTotals_EndToEnd(t *testing.T) {
	// Single $100 line, 10% discount, 8% tax.
	lines := []core.LineItem{line("L1", "A", "2", "50", true)}
	discounts := []core.Discount{
		{ID: "D1", Type: core.DiscountPercent, Value: dec("10"), Scope: core.ScopeAll},
	}

	res, err := core.CalculateTotals(lines, discounts, dec("0.08"), core.RoundHalfUp)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}

	assertMoney(t, "Subtotal", res.Subtotal, dec("100.00"))
	assertMoney(t, "DiscountAmount", res.DiscountAmount, dec("10.00"))
	assertMoney(t, "AfterDiscounts", res.AfterDiscounts, dec("90.00"))
	assertMoney(t, "TaxAmount", res.TaxAmount, dec("7.20"))
	assertMoney(t, "GrandTotal", res.GrandTotal, dec("97.20"))

	if len(res.AppliedDiscounts) != 1 {
		t.Fatalf("expected 1 applied discount record, got %d", len(res.AppliedDiscounts))
	}
	assertMoney(t, "AppliedDiscounts[0].Amount", res.AppliedDiscounts[0].Amount, dec("10.00"))
}

func TestCalculateTotals_FlatBeforePercent(t *testing.T) {
	// Discounts supplied percent-first: the engine must still apply the flat
	// $10 first (net $90), then 10% of $90 ($9), for $19 total — not $18.10.
	lines := []core.LineItem{line("L1", "A", "1", "100", true)}
	discounts := []core.Discount{
		{ID: "PCT", Type: core.DiscountPercent, Value: dec("10"), Scope: core.ScopeAll},
		{ID: "FLAT", Type: core.DiscountFlat, Value: dec("10"), Scope: core.ScopeAll},
	}

	res, err := core.CalculateTotals(lines, discounts, decimal.Zero, core.RoundHalfUp)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}

	assertMoney(t, "DiscountAmount", res.DiscountAmount, dec("19.00"))
	assertMoney(t, "AfterDiscounts", res.AfterDiscounts, dec("81.00"))

	if res.AppliedDiscounts[0].DiscountID != "FLAT" {
		t.Errorf("first applied discount = %s, want FLAT", res.AppliedDiscounts[0].DiscountID)
	}
	assertMoney(t, "flat amount", res.AppliedDiscounts[0].Amount, dec("10.00"))
	assertMoney(t, "percent amount", res.AppliedDiscounts[1].Amount, dec("9.00"))
}

func TestCalculateTotals_NonDiscountableExcluded(t *testing.T) {
	// A duties line must receive $0 discount from any scope while the other
	// line is discounted normally.
	duties := line("L2", "DUTY", "1", "50", false)
	lines := []core.LineItem{line("L1", "A", "1", "100", true), duties}

	for _, d := range []core.Discount{
		{ID: "D1", Type: core.DiscountPercent, Value: dec("10"), Scope: core.ScopeAll},
		{ID: "D2", Type: core.DiscountFlat, Value: dec("30"), Scope: core.ScopeNonSurcharges},
	} {
		res, err := core.CalculateTotals(lines, []core.Discount{d}, decimal.Zero, core.RoundHalfUp)
		if err != nil {
			t.Fatalf("CalculateTotals(%s): %v", d.ID, err)
		}
		for _, pl := range res.LineItems {
			if pl.ID == "L2" && !pl.DiscountAmount.IsZero() {
				t.Errorf("discount %s: duties line got %s discount, want 0", d.ID, pl.DiscountAmount)
			}
			if pl.ID == "L1" && pl.DiscountAmount.IsZero() {
				t.Errorf("discount %s: eligible line got no discount", d.ID)
			}
		}
	}
}

func TestCalculateTotals_ScopePredicates(t *testing.T) {
	freight := core.LineItem{ID: "L1", SKU: "FRT", Qty: dec("1"), UnitPrice: dec("100"), Category: "freight", Discountable: true}
	fuel := core.LineItem{ID: "L2", SKU: "FUEL", Qty: dec("1"), UnitPrice: dec("40"), Category: "accessorial", Discountable: true, IsSurcharge: true}

	tests := []struct {
		name      string
		scope     string
		wantL1    string
		wantL2    string
	}{
		{"all touches both", core.ScopeAll, "10.00", "4.00"},
		{"non_surcharges skips the surcharge", core.ScopeNonSurcharges, "10.00", "0.00"},
		{"category matches only freight", "category:freight", "10.00", "0.00"},
		{"category matches only accessorial", "category:accessorial", "0.00", "4.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := core.Discount{ID: "D1", Type: core.DiscountPercent, Value: dec("10"), Scope: tt.scope}
			res, err := core.CalculateTotals([]core.LineItem{freight, fuel}, []core.Discount{d}, decimal.Zero, core.RoundHalfUp)
			if err != nil {
				t.Fatalf("CalculateTotals: %v", err)
			}
			assertMoney(t, "L1 discount", res.LineItems[0].DiscountAmount, dec(tt.wantL1))
			assertMoney(t, "L2 discount", res.LineItems[1].DiscountAmount, dec(tt.wantL2))
		})
	}
}

func TestCalculateTotals_FlatProportionalDistribution(t *testing.T) {
	// $60 and $40 lines share a flat $10 by current net: $6.00 and $4.00.
	lines := []core.LineItem{
		line("L1", "A", "1", "60", true),
		line("L2", "B", "1", "40", true),
	}
	discounts := []core.Discount{
		{ID: "D1", Type: core.DiscountFlat, Value: dec("10"), Scope: core.ScopeAll},
	}

	res, err := core.CalculateTotals(lines, discounts, decimal.Zero, core.RoundHalfUp)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}
	assertMoney(t, "L1 share", res.LineItems[0].DiscountAmount, dec("6.00"))
	assertMoney(t, "L2 share", res.LineItems[1].DiscountAmount, dec("4.00"))
}

func TestCalculateTotals_FlatSkipsZeroNetGroup(t *testing.T) {
	// Only eligible line already has zero net: nothing to distribute over.
	lines := []core.LineItem{
		line("L1", "A", "1", "0", true),
		line("L2", "B", "1", "75", false),
	}
	discounts := []core.Discount{
		{ID: "D1", Type: core.DiscountFlat, Value: dec("10"), Scope: core.ScopeAll},
	}

	res, err := core.CalculateTotals(lines, discounts, decimal.Zero, core.RoundHalfUp)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}
	assertMoney(t, "DiscountAmount", res.DiscountAmount, dec("0.00"))
	assertMoney(t, "GrandTotal", res.GrandTotal, dec("75.00"))
}

func TestCalculateTotals_RoundingModeDivergesOnTax(t *testing.T) {
	// afterDiscounts 100.50 at 5% gives raw tax 5.025: HALF_UP rounds away
	// from zero to 5.03, HALF_EVEN rounds to the even cent 5.02.
	lines := []core.LineItem{line("L1", "A", "1", "100.50", true)}

	up, err := core.CalculateTotals(lines, nil, dec("0.05"), core.RoundHalfUp)
	if err != nil {
		t.Fatalf("HALF_UP: %v", err)
	}
	even, err := core.CalculateTotals(lines, nil, dec("0.05"), core.RoundHalfEven)
	if err != nil {
		t.Fatalf("HALF_EVEN: %v", err)
	}

	assertMoney(t, "HALF_UP tax", up.TaxAmount, dec("5.03"))
	assertMoney(t, "HALF_UP grand total", up.GrandTotal, dec("105.53"))
	assertMoney(t, "HALF_EVEN tax", even.TaxAmount, dec("5.02"))
	assertMoney(t, "HALF_EVEN grand total", even.GrandTotal, dec("105.52"))
}

func TestCalculateTotals_BalanceInvariants(t *testing.T) {
	// subtotal - discount == afterDiscounts and afterDiscounts + tax == grandTotal
	// must hold exactly across a messy mixed invoice.
	lines := []core.LineItem{
		line("L1", "A", "3", "33.33", true),
		line("L2", "B", "1", "19.99", true),
		{ID: "L3", SKU: "FUEL", Qty: dec("1"), UnitPrice: dec("12.47"), Discountable: true, IsSurcharge: true},
		line("L4", "DUTY", "1", "8.25", false),
	}
	discounts := []core.Discount{
		{ID: "D1", Type: core.DiscountFlat, Value: dec("7.77"), Scope: core.ScopeNonSurcharges},
		{ID: "D2", Type: core.DiscountPercent, Value: dec("12.5"), Scope: core.ScopeAll},
	}

	for _, mode := range []core.RoundingMode{core.RoundHalfUp, core.RoundHalfEven} {
		res, err := core.CalculateTotals(lines, discounts, dec("0.0875"), mode)
		if err != nil {
			t.Fatalf("CalculateTotals(%s): %v", mode, err)
		}
		if !res.Subtotal.Sub(res.DiscountAmount).Round(2).Equal(res.AfterDiscounts) {
			t.Errorf("%s: subtotal %s - discount %s != afterDiscounts %s",
				mode, res.Subtotal, res.DiscountAmount, res.AfterDiscounts)
		}
		if !res.AfterDiscounts.Add(res.TaxAmount).Round(2).Equal(res.GrandTotal) {
			t.Errorf("%s: afterDiscounts %s + tax %s != grandTotal %s",
				mode, res.AfterDiscounts, res.TaxAmount, res.GrandTotal)
		}
		var lineDiscounts decimal.Decimal
		for _, pl := range res.LineItems {
			lineDiscounts = lineDiscounts.Add(pl.DiscountAmount)
		}
		if !lineDiscounts.Equal(res.DiscountAmount) {
			t.Errorf("%s: sum of line discounts %s != invoice discount %s", mode, lineDiscounts, res.DiscountAmount)
		}
	}
}

func TestCalculateTotals_Idempotent(t *testing.T) {
	lines := []core.LineItem{
		line("L1", "A", "3", "33.33", true),
		line("L2", "B", "2", "14.50", true),
	}
	discounts := []core.Discount{
		{ID: "D1", Type: core.DiscountFlat, Value: dec("5"), Scope: core.ScopeAll},
		{ID: "D2", Type: core.DiscountPercent, Value: dec("7.5"), Scope: core.ScopeAll},
	}

	first, err := core.CalculateTotals(lines, discounts, dec("0.08"), core.RoundHalfUp)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := core.CalculateTotals(lines, discounts, dec("0.08"), core.RoundHalfUp)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCalculateTotals_InputValidation(t *testing.T) {
	good := line("L1", "A", "1", "10", true)

	tests := []struct {
		name      string
		lines     []core.LineItem
		discounts []core.Discount
		taxRate   decimal.Decimal
		mode      core.RoundingMode
		wantErr   string
	}{
		{"empty line items", nil, nil, decimal.Zero, core.RoundHalfUp, "at least one line item"},
		{"missing id", []core.LineItem{line("", "A", "1", "10", true)}, nil, decimal.Zero, core.RoundHalfUp, "id is required"},
		{"missing sku", []core.LineItem{line("L1", "", "1", "10", true)}, nil, decimal.Zero, core.RoundHalfUp, "sku is required"},
		{"zero qty", []core.LineItem{line("L1", "A", "0", "10", true)}, nil, decimal.Zero, core.RoundHalfUp, "qty must be > 0"},
		{"negative qty", []core.LineItem{line("L1", "A", "-1", "10", true)}, nil, decimal.Zero, core.RoundHalfUp, "qty must be > 0"},
		{"negative price", []core.LineItem{line("L1", "A", "1", "-0.01", true)}, nil, decimal.Zero, core.RoundHalfUp, "unit price must be >= 0"},
		{"discount missing id", []core.LineItem{good}, []core.Discount{{Type: core.DiscountFlat, Value: dec("1"), Scope: core.ScopeAll}}, decimal.Zero, core.RoundHalfUp, "id is required"},
		{"percent over 100", []core.LineItem{good}, []core.Discount{{ID: "D", Type: core.DiscountPercent, Value: dec("100.01"), Scope: core.ScopeAll}}, decimal.Zero, core.RoundHalfUp, "percent value must be in [0,100]"},
		{"negative percent", []core.LineItem{good}, []core.Discount{{ID: "D", Type: core.DiscountPercent, Value: dec("-1"), Scope: core.ScopeAll}}, decimal.Zero, core.RoundHalfUp, "percent value must be in [0,100]"},
		{"negative flat", []core.LineItem{good}, []core.Discount{{ID: "D", Type: core.DiscountFlat, Value: dec("-5"), Scope: core.ScopeAll}}, decimal.Zero, core.RoundHalfUp, "flat value must be >= 0"},
		{"unknown discount type", []core.LineItem{good}, []core.Discount{{ID: "D", Type: "bogo", Value: dec("1"), Scope: core.ScopeAll}}, decimal.Zero, core.RoundHalfUp, "unknown type"},
		{"unknown scope", []core.LineItem{good}, []core.Discount{{ID: "D", Type: core.DiscountFlat, Value: dec("1"), Scope: "vip"}}, decimal.Zero, core.RoundHalfUp, "unknown scope"},
		{"empty category scope", []core.LineItem{good}, []core.Discount{{ID: "D", Type: core.DiscountFlat, Value: dec("1"), Scope: "category:"}}, decimal.Zero, core.RoundHalfUp, "unknown scope"},
		{"tax rate negative", []core.LineItem{good}, nil, dec("-0.01"), core.RoundHalfUp, "tax rate must be in [0,1]"},
		{"tax rate over 1", []core.LineItem{good}, nil, dec("1.01"), core.RoundHalfUp, "tax rate must be in [0,1]"},
		{"unknown rounding mode", []core.LineItem{good}, nil, decimal.Zero, "HALF_DOWN", "unknown rounding mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := core.CalculateTotals(tt.lines, tt.discounts, tt.taxRate, tt.mode)
			if err == nil {
				t.Fatalf("expected error containing %q, got result %+v", tt.wantErr, res)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCalculateTotals_PercentOnReducedNetPerLine(t *testing.T) {
	// Flat $20 spread over $150/$50 nets ($15/$5), then 10% of each reduced
	// net: $13.50 + $4.50. Early per-line rounding must show in the audit trail.
	lines := []core.LineItem{
		line("L1", "A", "1", "150", true),
		line("L2", "B", "1", "50", true),
	}
	discounts := []core.Discount{
		{ID: "FLAT", Type: core.DiscountFlat, Value: dec("20"), Scope: core.ScopeAll},
		{ID: "PCT", Type: core.DiscountPercent, Value: dec("10"), Scope: core.ScopeAll},
	}

	res, err := core.CalculateTotals(lines, discounts, decimal.Zero, core.RoundHalfUp)
	if err != nil {
		t.Fatalf("CalculateTotals: %v", err)
	}

	assertMoney(t, "L1 discount", res.LineItems[0].DiscountAmount, dec("28.50"))
	assertMoney(t, "L2 discount", res.LineItems[1].DiscountAmount, dec("9.50"))
	assertMoney(t, "L1 after", res.LineItems[0].AfterDiscounts, dec("121.50"))
	assertMoney(t, "L2 after", res.LineItems[1].AfterDiscounts, dec("40.50"))
	assertMoney(t, "AfterDiscounts", res.AfterDiscounts, dec("162.00"))
}
