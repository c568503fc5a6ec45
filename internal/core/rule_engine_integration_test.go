package core_test

import (
	"context"
	"testing"

	"logistics-backoffice/internal/core"
)

func TestRuleEngine_ResolveAccount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	// Layer an override on top of the seeded rules
	_, err := pool.Exec(ctx, `
		INSERT INTO account_rules (company_id, rule_type, account_code, priority)
		VALUES (1, 'REVENUE', '4010', 10)
		ON CONFLICT DO NOTHING;
	`)
	if err != nil {
		t.Fatalf("Failed to seed account_rules: %v", err)
	}

	re := core.NewRuleEngine(pool)

	t.Run("resolves AR", func(t *testing.T) {
		code, err := re.ResolveAccount(ctx, 1, core.RuleAR)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != "1100" {
			t.Errorf("expected 1100, got %s", code)
		}
	})

	t.Run("resolves SALES_RETURNS", func(t *testing.T) {
		code, err := re.ResolveAccount(ctx, 1, core.RuleSalesReturns)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != "4900" {
			t.Errorf("expected 4900, got %s", code)
		}
	})

	t.Run("priority DESC picks highest priority row", func(t *testing.T) {
		code, err := re.ResolveAccount(ctx, 1, core.RuleRevenue)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != "4010" {
			t.Errorf("expected 4010 (priority 10), got %s", code)
		}
	})

	t.Run("missing rule returns descriptive error", func(t *testing.T) {
		_, err := re.ResolveAccount(ctx, 1, "NONEXISTENT_RULE")
		if err == nil {
			t.Error("expected error for missing rule, got nil")
		}
	})

	t.Run("company isolation", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
			INSERT INTO companies (id, company_code, name, base_currency)
			VALUES (2, 'BETA', 'Beta Logistics', 'USD')
			ON CONFLICT DO NOTHING;
		`)
		if err != nil {
			t.Fatalf("Failed to seed second company: %v", err)
		}

		_, err = re.ResolveAccount(ctx, 2, core.RuleAR)
		if err == nil {
			t.Error("expected error: company 2 has no AR rule")
		}
	})
}
