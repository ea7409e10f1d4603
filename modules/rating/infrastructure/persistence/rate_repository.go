package persistence

import (
	"context"
	"time"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/pkg/composables"
)

const (
	// The two tariff families live in separate historical tables with
	// compatible shapes. A tier is active when no newer tier supersedes it
	// for the same key.
	ppxRatesQuery = `
		SELECT custno, country_code, product, service_id,
		       mail_format, mail_type,
		       pc_wt_min, pc_wt_max, pc_rate, wt_rate
		FROM parate01 r
		WHERE custno = $1
		  AND effective_date <= $2
		  AND NOT EXISTS (
			SELECT 1 FROM parate01 newer
			WHERE newer.custno = r.custno
			  AND newer.country_code = r.country_code
			  AND newer.product = r.product
			  AND newer.service_id = r.service_id
			  AND newer.pc_wt_max = r.pc_wt_max
			  AND newer.effective_date <= $2
			  AND newer.effective_date > r.effective_date
		  )
		ORDER BY service_id, country_code, pc_wt_max
	`

	xpoRatesQuery = `
		SELECT custno, country_code, product, service_id,
		       mail_format, mail_type,
		       pc_wt_min, pc_wt_max, pc_rate, wt_rate
		FROM tblrates r
		WHERE custno = $1
		  AND effective_date <= $2
		  AND NOT EXISTS (
			SELECT 1 FROM tblrates newer
			WHERE newer.custno = r.custno
			  AND newer.country_code = r.country_code
			  AND newer.product = r.product
			  AND newer.service_id = r.service_id
			  AND newer.pc_wt_max = r.pc_wt_max
			  AND newer.effective_date <= $2
			  AND newer.effective_date > r.effective_date
		  )
		ORDER BY service_id, country_code, pc_wt_max
	`
)

var rateSchema = map[string][]string{
	"parate01": {"custno", "country_code", "product", "service_id", "mail_format", "mail_type", "pc_wt_min", "pc_wt_max", "pc_rate", "wt_rate", "effective_date"},
	"tblrates": {"custno", "country_code", "product", "service_id", "mail_format", "mail_type", "pc_wt_min", "pc_wt_max", "pc_rate", "wt_rate", "effective_date"},
}

type RateRepository struct{}

func NewRateRepository() *RateRepository {
	return &RateRepository{}
}

func (r *RateRepository) ValidateSchema(ctx context.Context) error {
	for table, columns := range rateSchema {
		if err := validateColumns(ctx, table, columns); err != nil {
			return err
		}
	}
	return nil
}

func (r *RateRepository) ActiveRates(ctx context.Context, family domain.TariffFamily, custno string, asOf time.Time) ([]domain.ActiveRate, error) {
	query := xpoRatesQuery
	if family == domain.FamilyPPX {
		query = ppxRatesQuery
	}

	q, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, custno, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []domain.ActiveRate
	for rows.Next() {
		rate := domain.ActiveRate{Family: family}
		if err := rows.Scan(
			&rate.CustNo, &rate.CountryCode, &rate.Product, &rate.Service,
			&rate.MailFormat, &rate.MailType,
			&rate.PcWtMin, &rate.PcWtMax, &rate.PcRate, &rate.WtRate,
		); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
