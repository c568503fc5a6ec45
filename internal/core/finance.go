package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how a fractional cent is resolved when computing tax.
type RoundingMode string

const (
	// RoundHalfUp rounds an exact half cent away from zero.
	RoundHalfUp RoundingMode = "HALF_UP"
	// RoundHalfEven rounds an exact half cent to the nearest even cent (banker's rounding).
	RoundHalfEven RoundingMode = "HALF_EVEN"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

// Discount scopes. Category scopes are spelled "category:<name>".
const (
	ScopeAll           = "all"
	ScopeNonSurcharges = "non_surcharges"
	scopeCategoryPrefix = "category:"
)

// LineItem is one billable unit on an invoice, quote, or credit memo.
// Lines with Discountable=false (duties, pass-through charges) are permanently
// excluded from discount eligibility regardless of discount scope.
type LineItem struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Description  string          `json:"description"`
	Qty          decimal.Decimal `json:"qty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Category     string          `json:"category,omitempty"`
	Discountable bool            `json:"discountable"`
	IsSurcharge  bool            `json:"is_surcharge,omitempty"`
}

// Discount reduces eligible lines either by a flat amount (distributed
// proportionally) or by a percentage of each eligible line's current net.
type Discount struct {
	ID          string          `json:"id"`
	Type        DiscountType    `json:"type"`
	Value       decimal.Decimal `json:"value"`
	Scope       string          `json:"scope"`
	Description string          `json:"description,omitempty"`
}

// ProcessedLineItem is a LineItem with its computed amounts. DiscountAmount
// accumulates as each discount is applied, in application order.
type ProcessedLineItem struct {
	LineItem
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AfterDiscounts decimal.Decimal `json:"after_discounts"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
}

// AppliedDiscount is the audit record for one discount: which lines it touched
// and how much it removed in total.
type AppliedDiscount struct {
	DiscountID  string          `json:"discount_id"`
	Type        DiscountType    `json:"type"`
	Description string          `json:"description,omitempty"`
	LineIDs     []string        `json:"line_ids"`
	Amount      decimal.Decimal `json:"amount"`
}

// CalculationResult is the full output of CalculateTotals. All monetary fields
// are rounded to cents.
type CalculationResult struct {
	LineItems        []ProcessedLineItem `json:"line_items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	DiscountAmount   decimal.Decimal     `json:"discount_amount"`
	AfterDiscounts   decimal.Decimal     `json:"after_discounts"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	GrandTotal       decimal.Decimal     `json:"grand_total"`
	AppliedDiscounts []AppliedDiscount   `json:"applied_discounts"`
}

var (
	percentMax = decimal.NewFromInt(100)
	taxRateMax = decimal.NewFromInt(1)
)

// roundTax resolves a fractional cent on the tax amount per the requested mode.
// Every other rounding step in the engine is half-away-from-zero; the mode
// parameter deliberately scopes to tax only.
func roundTax(d decimal.Decimal, mode RoundingMode) decimal.Decimal {
	if mode == RoundHalfEven {
		return d.RoundBank(2)
	}
	return d.Round(2)
}

func validateLineItems(lineItems []LineItem) error {
	if len(lineItems) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	for i, li := range lineItems {
		if strings.TrimSpace(li.ID) == "" {
			return fmt.Errorf("line %d: id is required", i+1)
		}
		if strings.TrimSpace(li.SKU) == "" {
			return fmt.Errorf("line %s: sku is required", li.ID)
		}
		if !li.Qty.IsPositive() {
			return fmt.Errorf("line %s: qty must be > 0, got %s", li.ID, li.Qty)
		}
		if li.UnitPrice.IsNegative() {
			return fmt.Errorf("line %s: unit price must be >= 0, got %s", li.ID, li.UnitPrice)
		}
	}
	return nil
}

func validateDiscounts(discounts []Discount) error {
	for i, d := range discounts {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("discount %d: id is required", i+1)
		}
		switch d.Type {
		case DiscountFlat:
			if d.Value.IsNegative() {
				return fmt.Errorf("discount %s: flat value must be >= 0, got %s", d.ID, d.Value)
			}
		case DiscountPercent:
			if d.Value.IsNegative() || d.Value.GreaterThan(percentMax) {
				return fmt.Errorf("discount %s: percent value must be in [0,100], got %s", d.ID, d.Value)
			}
		default:
			return fmt.Errorf("discount %s: unknown type %q", d.ID, d.Type)
		}
		if !validScope(d.Scope) {
			return fmt.Errorf("discount %s: unknown scope %q", d.ID, d.Scope)
		}
	}
	return nil
}

func validScope(scope string) bool {
	if scope == ScopeAll || scope == ScopeNonSurcharges {
		return true
	}
	if strings.HasPrefix(scope, scopeCategoryPrefix) {
		return strings.TrimPrefix(scope, scopeCategoryPrefix) != ""
	}
	return false
}

// scopeMatches reports whether a discount with the given scope may touch a
// line with the given attributes. A non-discountable line never qualifies,
// regardless of scope.
func scopeMatches(discountable, isSurcharge bool, category, scope string) bool {
	if !discountable {
		return false
	}
	switch {
	case scope == ScopeAll:
		return true
	case scope == ScopeNonSurcharges:
		return !isSurcharge
	case strings.HasPrefix(scope, scopeCategoryPrefix):
		return category == strings.TrimPrefix(scope, scopeCategoryPrefix)
	}
	return false
}

func eligible(line *ProcessedLineItem, scope string) bool {
	return scopeMatches(line.Discountable, line.IsSurcharge, line.Category, scope)
}

// CalculateTotals computes per-line and invoice-level totals from line items
// and an ordered discount list.
//
// Flat discounts are applied before percent discounts (stable order within
// each kind): percent discounts are computed on the already-reduced net of
// each line, so applying flat amounts first changes the percent base. Every
// per-line and per-discount amount is rounded to cents as it is produced so
// the audit trail is exact at the cent level; late rounding would compound
// differently and give different answers.
//
// taxRate is a fraction in [0,1]. roundingMode applies to the tax step only.
func CalculateTotals(lineItems []LineItem, discounts []Discount, taxRate decimal.Decimal, mode RoundingMode) (*CalculationResult, error) {
	if err := validateLineItems(lineItems); err != nil {
		return nil, err
	}
	if err := validateDiscounts(discounts); err != nil {
		return nil, err
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(taxRateMax) {
		return nil, fmt.Errorf("tax rate must be in [0,1], got %s", taxRate)
	}
	if mode != RoundHalfUp && mode != RoundHalfEven {
		return nil, fmt.Errorf("unknown rounding mode %q", mode)
	}

	// 1. Per-line subtotals and the invoice subtotal.
	processed := make([]ProcessedLineItem, len(lineItems))
	subtotal := decimal.Zero
	for i, li := range lineItems {
		lineSubtotal := li.Qty.Mul(li.UnitPrice).Round(2)
		processed[i] = ProcessedLineItem{
			LineItem:       li,
			LineSubtotal:   lineSubtotal,
			DiscountAmount: decimal.Zero,
		}
		subtotal = subtotal.Add(lineSubtotal)
	}

	// 2. Flat discounts before percent discounts; ties keep relative order.
	ordered := make([]Discount, len(discounts))
	copy(ordered, discounts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Type == DiscountFlat && ordered[j].Type == DiscountPercent
	})

	// 3. Apply each discount to its eligible lines.
	applied := make([]AppliedDiscount, 0, len(ordered))
	for _, d := range ordered {
		record := AppliedDiscount{
			DiscountID:  d.ID,
			Type:        d.Type,
			Description: d.Description,
			Amount:      decimal.Zero,
		}

		var elig []*ProcessedLineItem
		groupNet := decimal.Zero
		for i := range processed {
			if eligible(&processed[i], d.Scope) {
				elig = append(elig, &processed[i])
				groupNet = groupNet.Add(processed[i].LineSubtotal.Sub(processed[i].DiscountAmount))
			}
		}

		switch d.Type {
		case DiscountFlat:
			// Distribute proportionally by each line's current net relative to
			// the eligible group's net total. A zero group net distributes nothing.
			if !groupNet.IsZero() {
				for _, line := range elig {
					net := line.LineSubtotal.Sub(line.DiscountAmount)
					share := d.Value.Mul(net).Div(groupNet).Round(2)
					line.DiscountAmount = line.DiscountAmount.Add(share)
					record.Amount = record.Amount.Add(share)
					record.LineIDs = append(record.LineIDs, line.ID)
				}
			}
		case DiscountPercent:
			for _, line := range elig {
				net := line.LineSubtotal.Sub(line.DiscountAmount)
				share := net.Mul(d.Value).Div(percentMax).Round(2)
				line.DiscountAmount = line.DiscountAmount.Add(share)
				record.Amount = record.Amount.Add(share)
				record.LineIDs = append(record.LineIDs, line.ID)
			}
		}
		applied = append(applied, record)
	}

	// 4. Per-line after-discount and taxable amounts.
	totalDiscount := decimal.Zero
	for i := range processed {
		processed[i].AfterDiscounts = processed[i].LineSubtotal.Sub(processed[i].DiscountAmount).Round(2)
		processed[i].TaxableAmount = processed[i].AfterDiscounts
		totalDiscount = totalDiscount.Add(processed[i].DiscountAmount)
	}

	// 5-7. Invoice-level totals.
	afterDiscounts := subtotal.Sub(totalDiscount).Round(2)
	taxAmount := roundTax(afterDiscounts.Mul(taxRate), mode)
	grandTotal := afterDiscounts.Add(taxAmount).Round(2)

	return &CalculationResult{
		LineItems:        processed,
		Subtotal:         subtotal.Round(2),
		DiscountAmount:   totalDiscount.Round(2),
		AfterDiscounts:   afterDiscounts,
		TaxAmount:        taxAmount,
		GrandTotal:       grandTotal,
		AppliedDiscounts: applied,
	}, nil
}
