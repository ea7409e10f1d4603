package persistence

import (
	"context"
	"time"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/pkg/composables"
)

const (
	countriesQuery = `
		SELECT country_code
		FROM countries
		WHERE active
		ORDER BY country_code
	`

	exceptionsQuery = `
		SELECT exception_id, acct_num, country_code, from_service, to_service
		FROM service_exceptions
	`

	// The matrix snapshot joins the vendor-level dimensional limits and flags
	// onto each rate row so eligibility runs against one relation.
	matrixQuery = `
		SELECT m.matrix_id, m.vendor_id, v.vendor_name, m.acct_num,
		       m.country_code, m.service_id, m.office,
		       m.mail_format, m.mail_type,
		       m.min_kg, m.max_kg,
		       v.length_max, v.width_max, v.height_max,
		       v.length_girth_add_max, v.lwh_add_max, v.lwh_multiply_max,
		       v.allow_pobox, v.allow_suite,
		       v.dim_factor, m.kicks_in,
		       m.start_date, m.end_date
		FROM vendor_matrix m
		JOIN vendors v ON v.vendor_id = m.vendor_id
		WHERE m.office = $1
		  AND m.start_date <= $2
		  AND m.end_date >= $2
	`

	// Detail rates are converted to the billing currency at read time; the
	// description and unit columns concatenate into the cost kind.
	detailsQuery = `
		SELECT d.matrix_id,
		       d.description || '__' || d.unit AS kind,
		       d.rate, d.currency_unit,
		       COALESCE(c.exchange_rate, 1) AS exchange_rate
		FROM matrix_details d
		LEFT JOIN currency_rates c ON c.currency_unit = d.currency_unit
		WHERE d.matrix_id = ANY($1)
	`

	sellZonesQuery = `
		SELECT service_id, country_code, zone
		FROM sell_zones
	`

	passthroughQuery = `
		SELECT service_id, zone, min_wt, max_wt, percentage
		FROM passthrough_windows
	`

	surchargesQuery = `
		SELECT custno, country_code, service_id, product, surcharge_pc, surcharge_lb
		FROM rate_surcharges
		WHERE custno IN ($1, '0')
	`
)

// referenceSchema lists the columns each reference table must expose. Checked
// once per process before the first snapshot is taken.
var referenceSchema = map[string][]string{
	"countries":           {"country_code", "active"},
	"service_exceptions":  {"exception_id", "acct_num", "country_code", "from_service", "to_service"},
	"vendor_matrix":       {"matrix_id", "vendor_id", "acct_num", "country_code", "service_id", "office", "mail_format", "mail_type", "min_kg", "max_kg", "kicks_in", "start_date", "end_date"},
	"matrix_details":      {"matrix_id", "description", "unit", "rate", "currency_unit"},
	"vendor_prefers":      {"acct_num", "country_code", "service_id", "vendor_id"},
	"vendor_nonprefers":   {"acct_num", "country_code", "service_id", "vendor_id"},
	"sell_zones":          {"service_id", "country_code", "zone"},
	"passthrough_windows": {"service_id", "zone", "min_wt", "max_wt", "percentage"},
	"rate_surcharges":     {"custno", "country_code", "service_id", "product", "surcharge_pc", "surcharge_lb"},
}

type ReferenceRepository struct{}

func NewReferenceRepository() *ReferenceRepository {
	return &ReferenceRepository{}
}

// ValidateSchema fails fast with the full set of missing columns per table
// rather than surfacing scan errors mid-request.
func (r *ReferenceRepository) ValidateSchema(ctx context.Context) error {
	for table, columns := range referenceSchema {
		if err := validateColumns(ctx, table, columns); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReferenceRepository) Countries(ctx context.Context) ([]string, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, countriesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		countries = append(countries, code)
	}
	return countries, rows.Err()
}

func (r *ReferenceRepository) ServiceExceptions(ctx context.Context) ([]domain.ServiceException, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, exceptionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exceptions []domain.ServiceException
	for rows.Next() {
		var e domain.ServiceException
		if err := rows.Scan(&e.ExceptionID, &e.AcctNum, &e.CountryCode, &e.FromService, &e.ToService); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

func (r *ReferenceRepository) MatrixRows(ctx context.Context, office string, asOf time.Time) ([]domain.VendorMatrixRow, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, matrixQuery, office, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matrix []domain.VendorMatrixRow
	for rows.Next() {
		var m domain.VendorMatrixRow
		if err := rows.Scan(
			&m.MatrixID, &m.VendorID, &m.Vendor, &m.AcctNum,
			&m.CountryCode, &m.ServiceID, &m.Office,
			&m.MailFormat, &m.MailType,
			&m.MinKg, &m.MaxKg,
			&m.LengthMax, &m.WidthMax, &m.HeightMax,
			&m.LengthGirthAddMax, &m.LWHAddMax, &m.LWHMultiplyMax,
			&m.AllowPOBox, &m.AllowSuite,
			&m.DimFactor, &m.KicksIn,
			&m.StartDate, &m.EndDate,
		); err != nil {
			return nil, err
		}
		matrix = append(matrix, m)
	}
	return matrix, rows.Err()
}

func (r *ReferenceRepository) MatrixDetails(ctx context.Context, matrixIDs []int64) ([]domain.MatrixDetailLine, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, detailsQuery, matrixIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.MatrixDetailLine
	for rows.Next() {
		var d domain.MatrixDetailLine
		var kind string
		if err := rows.Scan(&d.MatrixID, &kind, &d.Rate, &d.CurrencyUnit, &d.ExchangeRate); err != nil {
			return nil, err
		}
		d.Kind = domain.CostKind(kind)
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *ReferenceRepository) PreferenceRules(ctx context.Context) (prefers, nonPrefers []domain.PreferenceRule, err error) {
	prefers, err = r.queryRules(ctx, "vendor_prefers")
	if err != nil {
		return nil, nil, err
	}
	nonPrefers, err = r.queryRules(ctx, "vendor_nonprefers")
	if err != nil {
		return nil, nil, err
	}
	return prefers, nonPrefers, nil
}

func (r *ReferenceRepository) queryRules(ctx context.Context, table string) ([]domain.PreferenceRule, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, "SELECT acct_num, country_code, service_id, vendor_id FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.PreferenceRule
	for rows.Next() {
		var rule domain.PreferenceRule
		if err := rows.Scan(&rule.AcctNum, &rule.CountryCode, &rule.ServiceID, &rule.VendorID); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *ReferenceRepository) SellZones(ctx context.Context) ([]domain.SellZone, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sellZonesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.SellZone
	for rows.Next() {
		var z domain.SellZone
		if err := rows.Scan(&z.Service, &z.CountryCode, &z.Zone); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *ReferenceRepository) PassthroughWindows(ctx context.Context) ([]domain.PassthroughWindow, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, passthroughQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []domain.PassthroughWindow
	for rows.Next() {
		var w domain.PassthroughWindow
		if err := rows.Scan(&w.Service, &w.Zone, &w.MinWt, &w.MaxWt, &w.Percentage); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *ReferenceRepository) Surcharges(ctx context.Context, custno string) ([]domain.Surcharge, error) {
	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, surchargesQuery, custno)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surcharges []domain.Surcharge
	for rows.Next() {
		var s domain.Surcharge
		if err := rows.Scan(&s.CustNo, &s.CountryCode, &s.Service, &s.Product, &s.SurchargePc, &s.SurchargeLb); err != nil {
			return nil, err
		}
		surcharges = append(surcharges, s)
	}
	return surcharges, rows.Err()
}
