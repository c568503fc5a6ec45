// seed loads the demo dataset: the ACME company, its chart of accounts and
// posting rules, document types, one user per role, and a starter catalog.
// Safe to re-run; every statement upserts.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"logistics-backoffice/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding company...")
	_, err = tx.Exec(ctx, `
		INSERT INTO companies (company_code, name, base_currency)
		VALUES ('ACME', 'Acme Logistics', 'USD')
		ON CONFLICT (company_code) DO UPDATE
		  SET name = EXCLUDED.name,
		      base_currency = EXCLUDED.base_currency;
	`)
	if err != nil {
		log.Fatalf("Failed to seed company: %v", err)
	}

	log.Println("Seeding chart of accounts...")
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (company_id, code, name, type)
		SELECT c.id, a.code, a.name, a.type
		FROM companies c
		CROSS JOIN (VALUES
		    ('1100', 'Accounts Receivable', 'asset'),
		    ('1200', 'Operating Bank',      'asset'),
		    ('1400', 'Inventory',           'asset'),
		    ('1450', 'RTV Clearing',        'asset'),
		    ('2300', 'Sales Tax Payable',   'liability'),
		    ('4000', 'Service Revenue',     'revenue'),
		    ('4100', 'Storage Revenue',     'revenue'),
		    ('4200', 'Freight Revenue',     'revenue'),
		    ('4900', 'Sales Returns',       'revenue'),
		    ('5200', 'Disposal Expense',    'expense'),
		    ('5300', 'Repair Expense',      'expense')
		) AS a(code, name, type)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name,
		      type = EXCLUDED.type;
	`)
	if err != nil {
		log.Fatalf("Failed to seed accounts: %v", err)
	}

	log.Println("Seeding posting rules...")
	_, err = tx.Exec(ctx, `
		INSERT INTO account_rules (company_id, rule_type, account_code, priority)
		SELECT c.id, r.rule_type, r.account_code, 0
		FROM companies c
		CROSS JOIN (VALUES
		    ('AR',               '1100'),
		    ('BANK',             '1200'),
		    ('INVENTORY_ASSET',  '1400'),
		    ('RTV_CLEARING',     '1450'),
		    ('TAX_PAYABLE',      '2300'),
		    ('REVENUE',          '4000'),
		    ('SALES_RETURNS',    '4900'),
		    ('DISPOSAL_EXPENSE', '5200'),
		    ('REPAIR_EXPENSE',   '5300')
		) AS r(rule_type, account_code)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, rule_type, priority) DO UPDATE
		  SET account_code = EXCLUDED.account_code;
	`)
	if err != nil {
		log.Fatalf("Failed to seed posting rules: %v", err)
	}

	log.Println("Seeding document types...")
	_, err = tx.Exec(ctx, `
		INSERT INTO document_types (code, name, affects_gl, affects_ar, affects_inventory, numbering_strategy, resets_every_fy)
		VALUES
		  ('INV', 'Customer Invoice',     true,  true,  false, 'per_fy', true),
		  ('CRM', 'Credit Memo',          true,  true,  false, 'per_fy', true),
		  ('PRC', 'Payment Receipt',      true,  true,  false, 'per_fy', true),
		  ('QTE', 'Quote',                false, false, false, 'per_fy', true),
		  ('RMA', 'Return Authorization', true,  false, true,  'per_fy', true)
		ON CONFLICT (code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed document types: %v", err)
	}

	log.Println("Seeding users...")
	_, err = tx.Exec(ctx, `
		INSERT INTO users (company_id, username, email, role)
		SELECT c.id, u.username, u.email, u.role
		FROM companies c
		CROSS JOIN (VALUES
		    ('clerk',      'clerk@acme.test',      'CLERK'),
		    ('billing',    'billing@acme.test',    'BILLING'),
		    ('warehouse',  'warehouse@acme.test',  'WAREHOUSE'),
		    ('controller', 'controller@acme.test', 'CONTROLLER'),
		    ('admin',      'admin@acme.test',      'ADMIN')
		) AS u(username, email, role)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (username) DO UPDATE
		  SET email = EXCLUDED.email,
		      role  = EXCLUDED.role,
		      is_active = true;
	`)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (company_id, code, name, email, phone, address, credit_limit, payment_terms_days)
		SELECT c.id, k.code, k.name, k.email, k.phone, k.address, k.credit_limit::numeric, k.terms
		FROM companies c
		CROSS JOIN (VALUES
		    ('CUST-1', 'Harbor Imports',    'ap@harborimports.test',  '555-0101', '12 Dock Rd',      '50000', 30),
		    ('CUST-2', 'Meridian Retail',   'ap@meridianretail.test', '555-0102', '400 Commerce St', '25000', 45),
		    ('CUST-3', 'Northgate Foods',   'ap@northgate.test',      '555-0103', '7 Coldchain Ave', '80000', 30)
		) AS k(code, name, email, phone, address, credit_limit, terms)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name,
		      email = EXCLUDED.email;
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding service catalog...")
	_, err = tx.Exec(ctx, `
		INSERT INTO skus (company_id, code, name, description, category, unit, unit_price, discountable, is_surcharge)
		SELECT c.id, s.code, s.name, s.description, s.category, s.unit, s.unit_price::numeric, s.discountable, s.is_surcharge
		FROM companies c
		CROSS JOIN (VALUES
		    ('STOR-PAL', 'Pallet Storage',  'Monthly pallet storage',          'storage',     'pallet',   '12.00', true,  false),
		    ('STOR-BIN', 'Bin Storage',     'Monthly small-item bin storage',  'storage',     'bin',      '4.00',  true,  false),
		    ('HNDL-CS',  'Case Handling',   'Pick and pack per case',          'handling',    'case',     '3.50',  true,  false),
		    ('HNDL-EA',  'Each Handling',   'Pick and pack per unit',          'handling',    'each',     '0.75',  true,  false),
		    ('FRT-LTL',  'LTL Freight',     'Less-than-truckload freight',     'freight',     'shipment', '80.00', true,  false),
		    ('FRT-PCL',  'Parcel Freight',  'Small parcel freight',            'freight',     'shipment', '9.50',  true,  false),
		    ('FUEL-SUR', 'Fuel Surcharge',  'Fuel surcharge per shipment',     'accessorial', 'shipment', '25.00', false, true),
		    ('PEAK-SUR', 'Peak Surcharge',  'Peak season surcharge',           'accessorial', 'shipment', '15.00', false, true)
		) AS s(code, name, description, category, unit, unit_price, discountable, is_surcharge)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name,
		      unit_price = EXCLUDED.unit_price,
		      is_active = true;
	`)
	if err != nil {
		log.Fatalf("Failed to seed service catalog: %v", err)
	}

	log.Println("Seeding warehouses and vendors...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (company_id, code, name)
		SELECT c.id, w.code, w.name
		FROM companies c
		CROSS JOIN (VALUES
		    ('WH1', 'Main Warehouse'),
		    ('WH2', 'Overflow Warehouse')
		) AS w(code, name)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name;

		INSERT INTO vendors (company_id, code, name, contact_person, email, return_address, rma_terms_days)
		SELECT c.id, v.code, v.name, v.contact, v.email, v.addr, v.terms
		FROM companies c
		CROSS JOIN (VALUES
		    ('VEND-1', 'Pallet Supply Co',   'R. Ortiz', 'returns@palletsupply.test', '90 Mill Rd',      30),
		    ('VEND-2', 'Crate & Carton Ltd', 'J. Wu',    'rma@crateandcarton.test',   '18 Packers Way',  45)
		) AS v(code, name, contact, email, addr, terms)
		WHERE c.company_code = 'ACME'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name,
		      rma_terms_days = EXCLUDED.rma_terms_days;
	`)
	if err != nil {
		log.Fatalf("Failed to seed warehouses and vendors: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded.")
	os.Exit(0)
}
