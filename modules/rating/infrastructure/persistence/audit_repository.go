package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/pkg/composables"
	"github.com/xpresspost/rateshop/pkg/eventbus"
)

const insertRevisionQuery = `
	INSERT INTO rate_revisions (
		revision_id, quote_num, custno, country_code, product, service_id,
		mail_format, mail_type, pc_wt_min, pc_wt_max,
		pc_rate, wt_rate, prior_pc_rate, prior_wt_rate,
		tariff_family, synthetic, effective_from
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

type AuditRepository struct{}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// AppendRevisedRates writes the full revised rate set as one revision batch.
// Runs in a single transaction so a partial batch never lands.
func (r *AuditRepository) AppendRevisedRates(ctx context.Context, quoteNum, custno string, rates []domain.ActiveRate) error {
	return composables.InTx(ctx, func(ctx context.Context) error {
		tx, err := composables.UseTx(ctx)
		if err != nil {
			return err
		}
		for _, rate := range rates {
			if _, err := tx.Exec(ctx, insertRevisionQuery,
				uuid.New(), quoteNum, custno,
				rate.CountryCode, rate.Product, rate.Service,
				rate.MailFormat, rate.MailType,
				rate.PcWtMin, rate.PcWtMax,
				rate.PcRate, rate.WtRate,
				rate.PriorPcRate, rate.PriorWtRate,
				string(rate.Family), rate.Synthetic, rate.EffectiveFrom,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// RegisterAuditSubscriber wires the audit write onto the revision event. The
// write is best effort: a failure is logged and the originating request's
// response is never invalidated.
func RegisterAuditSubscriber(ctx context.Context, bus eventbus.EventBus, repo *AuditRepository, log *logrus.Logger) {
	bus.Subscribe(func(event *domain.RatesRevisedEvent) {
		if err := repo.AppendRevisedRates(ctx, event.QuoteNum, event.CustNo, event.Rates); err != nil {
			log.WithError(err).
				WithField("quoteNum", event.QuoteNum).
				WithField("custno", event.CustNo).
				Error("failed to persist revised rates")
		}
	})
}
