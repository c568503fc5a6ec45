package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Account rule types resolved by the money-moving workflows. Seeded per
// company in account_rules so no service hardcodes a chart-of-accounts code.
const (
	RuleAR              = "AR"
	RuleRevenue         = "REVENUE"
	RuleTaxPayable      = "TAX_PAYABLE"
	RuleSalesReturns    = "SALES_RETURNS"
	RuleBank            = "BANK"
	RuleInventoryAsset  = "INVENTORY_ASSET"
	RuleDisposalExpense = "DISPOSAL_EXPENSE"
	RuleRTVClearing     = "RTV_CLEARING"
	RuleRepairExpense   = "REPAIR_EXPENSE"
)

// RuleEngine resolves configurable account mappings from the account_rules
// table. It replaces hardcoded account constants in the domain services.
type RuleEngine interface {
	ResolveAccount(ctx context.Context, companyID int, ruleType string) (string, error)
	// ResolveAccountTx resolves inside an existing transaction so a workflow's
	// account lookups and its journal insert share one consistent snapshot.
	ResolveAccountTx(ctx context.Context, tx pgx.Tx, companyID int, ruleType string) (string, error)
}

type ruleEngine struct {
	pool *pgxpool.Pool
}

// NewRuleEngine constructs a RuleEngine backed by the account_rules table.
func NewRuleEngine(pool *pgxpool.Pool) RuleEngine {
	return &ruleEngine{pool: pool}
}

func (r *ruleEngine) ResolveAccount(ctx context.Context, companyID int, ruleType string) (string, error) {
	return resolveAccountQ(ctx, r.pool, companyID, ruleType)
}

func (r *ruleEngine) ResolveAccountTx(ctx context.Context, tx pgx.Tx, companyID int, ruleType string) (string, error) {
	return resolveAccountQ(ctx, tx, companyID, ruleType)
}

// resolveAccountQ returns the account code for (companyID, ruleType), highest
// priority first. Returns a descriptive error if no active rule exists.
func resolveAccountQ(ctx context.Context, q pgxQuerier, companyID int, ruleType string) (string, error) {
	var accountCode string
	err := q.QueryRow(ctx, `
		SELECT account_code
		FROM account_rules
		WHERE company_id = $1
		  AND rule_type = $2
		  AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
		ORDER BY priority DESC
		LIMIT 1
	`, companyID, ruleType).Scan(&accountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("no account rule found for company_id %d, rule_type %q — seed account_rules or run migrations", companyID, ruleType)
		}
		return "", fmt.Errorf("failed to resolve account rule (company_id=%d, rule_type=%q): %w", companyID, ruleType, err)
	}
	return accountCode, nil
}
