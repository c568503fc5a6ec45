package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BenchmarkRate is one market tariff benchmark: what the market charges for a
// service on a lane. Imported rates feed pricing reviews against the SKU
// catalog.
type BenchmarkRate struct {
	ID            int             `json:"id"`
	CompanyID     int             `json:"company_id"`
	LaneOrigin    string          `json:"lane_origin" jsonschema:"required,description=Origin location code (e.g. ORD, LAX)"`
	LaneDest      string          `json:"lane_dest" jsonschema:"required,description=Destination location code"`
	ServiceCode   string          `json:"service_code" jsonschema:"required,description=Service identifier matching a SKU category or code"`
	Unit          string          `json:"unit" jsonschema:"required,description=Billing unit: pallet, cwt, shipment"`
	Rate          decimal.Decimal `json:"rate" jsonschema:"required,description=Benchmark rate per unit, max 4 decimal places"`
	Currency      string          `json:"currency" jsonschema:"required,description=ISO 4217 currency code"`
	EffectiveFrom string          `json:"effective_from" jsonschema:"required,description=YYYY-MM-DD"`
	EffectiveTo   string          `json:"effective_to,omitempty" jsonschema:"description=YYYY-MM-DD, empty for open-ended"`
	Source        string          `json:"source" jsonschema:"required,description=Name of the benchmark provider"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RateRowError describes one rejected CSV row.
type RateRowError struct {
	Row     int    `json:"row"` // 1-based, excluding the header
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// RateImportReport summarizes an import run. Valid rows are imported even when
// other rows fail; the report tells the caller exactly which rows to fix.
type RateImportReport struct {
	TotalRows int            `json:"total_rows"`
	Imported  int            `json:"imported"`
	Rejected  int            `json:"rejected"`
	Errors    []RateRowError `json:"errors,omitempty"`
}

// rateCSVHeader is the required column order.
var rateCSVHeader = []string{
	"lane_origin", "lane_dest", "service_code", "unit",
	"rate", "currency", "effective_from", "effective_to", "source",
}

// RateRowSchema returns the JSON Schema describing one benchmark rate row.
// Served to partners so files can be validated before upload.
func RateRowSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&BenchmarkRate{})
}

// RateBenchmarkImporter ingests benchmark tariff CSVs.
type RateBenchmarkImporter struct {
	pool *pgxpool.Pool
}

func NewRateBenchmarkImporter(pool *pgxpool.Pool) *RateBenchmarkImporter {
	return &RateBenchmarkImporter{pool: pool}
}

// Import reads the CSV, validates every row, and upserts the valid ones keyed
// by (lane, service, unit, effective_from, source).
func (imp *RateBenchmarkImporter) Import(ctx context.Context, companyCode string, r io.Reader) (*RateImportReport, error) {
	companyID, err := resolveCompanyID(ctx, imp.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rates, report, err := ParseRateCSV(r)
	if err != nil {
		return nil, err
	}

	tx, err := imp.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rate := range rates {
		_, err := tx.Exec(ctx, `
			INSERT INTO benchmark_rates (company_id, lane_origin, lane_dest, service_code, unit,
			                             rate, currency, effective_from, effective_to, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, NULLIF($9, '')::date, $10)
			ON CONFLICT (company_id, lane_origin, lane_dest, service_code, unit, effective_from, source)
			DO UPDATE SET rate = EXCLUDED.rate, currency = EXCLUDED.currency, effective_to = EXCLUDED.effective_to
		`, companyID, rate.LaneOrigin, rate.LaneDest, rate.ServiceCode, rate.Unit,
			rate.Rate, rate.Currency, rate.EffectiveFrom, rate.EffectiveTo, rate.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert benchmark rate %s-%s/%s: %w",
				rate.LaneOrigin, rate.LaneDest, rate.ServiceCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rate import: %w", err)
	}
	return report, nil
}

// GetRates returns benchmark rates for a lane; empty strings match any value.
func (imp *RateBenchmarkImporter) GetRates(ctx context.Context, companyCode, laneOrigin, laneDest string) ([]BenchmarkRate, error) {
	companyID, err := resolveCompanyID(ctx, imp.pool, companyCode)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT id, company_id, lane_origin, lane_dest, service_code, unit,
		       rate, currency, effective_from::text, COALESCE(effective_to::text, ''), source, created_at
		FROM benchmark_rates
		WHERE company_id = $1`
	args := []any{companyID}
	if laneOrigin != "" {
		args = append(args, laneOrigin)
		q += fmt.Sprintf(" AND lane_origin = $%d", len(args))
	}
	if laneDest != "" {
		args = append(args, laneDest)
		q += fmt.Sprintf(" AND lane_dest = $%d", len(args))
	}
	q += " ORDER BY lane_origin, lane_dest, service_code, effective_from DESC"

	rows, err := imp.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark rates: %w", err)
	}
	defer rows.Close()

	var rates []BenchmarkRate
	for rows.Next() {
		var br BenchmarkRate
		if err := rows.Scan(
			&br.ID, &br.CompanyID, &br.LaneOrigin, &br.LaneDest, &br.ServiceCode, &br.Unit,
			&br.Rate, &br.Currency, &br.EffectiveFrom, &br.EffectiveTo, &br.Source, &br.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark rate: %w", err)
		}
		rates = append(rates, br)
	}
	return rates, nil
}

// ParseRateCSV validates the file and returns the rows that passed along with
// a report covering every row. A malformed header fails the whole file; row
// failures only reject that row.
func ParseRateCSV(r io.Reader) ([]BenchmarkRate, *RateImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("rate file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := validateRateHeader(header); err != nil {
		return nil, nil, err
	}

	report := &RateImportReport{}
	var rates []BenchmarkRate
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.TotalRows++
			report.Rejected++
			report.Errors = append(report.Errors, RateRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		report.TotalRows++
		rate, rowErrs := parseRateRow(rowNum, record)
		if len(rowErrs) > 0 {
			report.Rejected++
			report.Errors = append(report.Errors, rowErrs...)
			continue
		}
		report.Imported++
		rates = append(rates, *rate)
	}
	return rates, report, nil
}

func validateRateHeader(header []string) error {
	if len(header) != len(rateCSVHeader) {
		return fmt.Errorf("header has %d columns, want %d (%s)",
			len(header), len(rateCSVHeader), strings.Join(rateCSVHeader, ","))
	}
	for i, want := range rateCSVHeader {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRateRow(rowNum int, record []string) (*BenchmarkRate, []RateRowError) {
	var errs []RateRowError
	fail := func(field, msg string) {
		errs = append(errs, RateRowError{Row: rowNum, Field: field, Message: msg})
	}

	if len(record) != len(rateCSVHeader) {
		fail("", fmt.Sprintf("row has %d columns, want %d", len(record), len(rateCSVHeader)))
		return nil, errs
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	rate := &BenchmarkRate{
		LaneOrigin:    strings.ToUpper(record[0]),
		LaneDest:      strings.ToUpper(record[1]),
		ServiceCode:   record[2],
		Unit:          strings.ToLower(record[3]),
		Currency:      strings.ToUpper(record[5]),
		EffectiveFrom: record[6],
		EffectiveTo:   record[7],
		Source:        record[8],
	}

	if rate.LaneOrigin == "" {
		fail("lane_origin", "must not be empty")
	}
	if rate.LaneDest == "" {
		fail("lane_dest", "must not be empty")
	}
	if rate.LaneOrigin != "" && rate.LaneOrigin == rate.LaneDest {
		fail("lane_dest", "origin and destination must differ")
	}
	if rate.ServiceCode == "" {
		fail("service_code", "must not be empty")
	}
	if rate.Unit == "" {
		fail("unit", "must not be empty")
	}

	parsed, err := decimal.NewFromString(record[4])
	switch {
	case err != nil:
		fail("rate", fmt.Sprintf("not a number: %q", record[4]))
	case !parsed.IsPositive():
		fail("rate", fmt.Sprintf("must be > 0, got %s", parsed))
	case parsed.Exponent() < -4:
		fail("rate", fmt.Sprintf("more than 4 decimal places: %s", parsed))
	default:
		rate.Rate = parsed
	}

	if len(rate.Currency) != 3 {
		fail("currency", fmt.Sprintf("must be a 3-letter ISO code, got %q", record[5]))
	}

	from, err := time.Parse("2006-01-02", rate.EffectiveFrom)
	if err != nil {
		fail("effective_from", fmt.Sprintf("not a YYYY-MM-DD date: %q", rate.EffectiveFrom))
	}
	if rate.EffectiveTo != "" {
		to, err := time.Parse("2006-01-02", rate.EffectiveTo)
		if err != nil {
			fail("effective_to", fmt.Sprintf("not a YYYY-MM-DD date: %q", rate.EffectiveTo))
		} else if !from.IsZero() && to.Before(from) {
			fail("effective_to", "must not be before effective_from")
		}
	}
	if rate.Source == "" {
		fail("source", "must not be empty")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rate, nil
}
