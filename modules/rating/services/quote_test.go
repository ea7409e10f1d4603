package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/pkg/eventbus"
)

type fakeRefs struct {
	calls atomic.Int32

	countries  []string
	exceptions []domain.ServiceException
	matrix     []domain.VendorMatrixRow
	details    []domain.MatrixDetailLine
	prefers    []domain.PreferenceRule
	nonPrefers []domain.PreferenceRule
	surcharges []domain.Surcharge
	zones      []domain.SellZone
	windows    []domain.PassthroughWindow
}

func (f *fakeRefs) Countries(context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.countries, nil
}

func (f *fakeRefs) ServiceExceptions(context.Context) ([]domain.ServiceException, error) {
	f.calls.Add(1)
	return f.exceptions, nil
}

func (f *fakeRefs) MatrixRows(context.Context, string, time.Time) ([]domain.VendorMatrixRow, error) {
	f.calls.Add(1)
	return f.matrix, nil
}

func (f *fakeRefs) MatrixDetails(context.Context, []int64) ([]domain.MatrixDetailLine, error) {
	f.calls.Add(1)
	return f.details, nil
}

func (f *fakeRefs) PreferenceRules(context.Context) ([]domain.PreferenceRule, []domain.PreferenceRule, error) {
	f.calls.Add(1)
	return f.prefers, f.nonPrefers, nil
}

func (f *fakeRefs) SellZones(context.Context) ([]domain.SellZone, error) {
	f.calls.Add(1)
	return f.zones, nil
}

func (f *fakeRefs) PassthroughWindows(context.Context) ([]domain.PassthroughWindow, error) {
	f.calls.Add(1)
	return f.windows, nil
}

func (f *fakeRefs) Surcharges(context.Context, string) ([]domain.Surcharge, error) {
	f.calls.Add(1)
	return f.surcharges, nil
}

type fakeRates struct {
	calls atomic.Int32

	ppx    []domain.ActiveRate
	xpo    []domain.ActiveRate
	ppxErr error
	xpoErr error
}

func (f *fakeRates) ActiveRates(_ context.Context, family domain.TariffFamily, _ string, _ time.Time) ([]domain.ActiveRate, error) {
	f.calls.Add(1)
	if family == domain.FamilyPPX {
		return f.ppx, f.ppxErr
	}
	return f.xpo, f.xpoErr
}

func newTestService(refs *fakeRefs, rates *fakeRates, renderer CardRenderer, bus eventbus.EventBus) *QuoteService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	if bus == nil {
		bus = eventbus.NewEventPublisher(log)
	}
	svc := NewQuoteService(refs, rates, renderer, bus, domain.DefaultPipelineConfig(), DefaultCardMaps(), 2, log)
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestQuoteServiceNewQuote(t *testing.T) {
	t.Run("EndToEnd", func(t *testing.T) {
		m := baseMatrixRow()
		m.ServiceID = 71
		m.MailType = "PR"
		m.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		m.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

		refs := &fakeRefs{
			countries: []string{"GB"},
			matrix:    []domain.VendorMatrixRow{m},
			details: []domain.MatrixDetailLine{
				{MatrixID: 100, Kind: domain.PostagePiece, Rate: 1, ExchangeRate: 1},
			},
		}
		svc := newTestService(refs, &fakeRates{}, &stubRenderer{}, nil)

		resp, err := svc.NewQuote(context.Background(), NewQuoteRequest{
			Params:   QuoteParams{CustName: "Acme", QuoteNum: "Q-1"},
			Services: []int{71},
			Office:   "XPO",
			Margin:   0.5,
		})
		require.NoError(t, err)
		require.Len(t, resp.RateCards, 1)

		card := resp.RateCards[0]
		require.True(t, card.Success)
		require.Equal(t, "ePacket", card.Type)
		require.Equal(t, "b64:ePacket", card.Content)
		require.Equal(t, []ServiceRef{{Service: 71}}, card.Services)
	})

	t.Run("UnknownServiceRejected", func(t *testing.T) {
		refs := &fakeRefs{}
		svc := newTestService(refs, &fakeRates{}, &stubRenderer{}, nil)

		_, err := svc.NewQuote(context.Background(), NewQuoteRequest{Services: []int{999}})
		require.ErrorIs(t, err, ErrUnknownService)
		require.Zero(t, refs.calls.Load())
	})

	t.Run("NoCoverageYieldsNoCards", func(t *testing.T) {
		refs := &fakeRefs{countries: []string{"GB"}}
		svc := newTestService(refs, &fakeRates{}, &stubRenderer{}, nil)

		resp, err := svc.NewQuote(context.Background(), NewQuoteRequest{
			Services: []int{71},
			Office:   "XPO",
		})
		require.NoError(t, err)
		require.Empty(t, resp.RateCards)
	})
}

func TestQuoteServiceIncrease(t *testing.T) {
	ppxRates := []domain.ActiveRate{
		{CustNo: "1234", CountryCode: "GB", Product: "PMI", Service: 51,
			PcWtMax: 2, PcRate: 5, WtRate: 2, Family: domain.FamilyPPX},
	}
	xpoRates := []domain.ActiveRate{
		{CustNo: "1234", CountryCode: "GB", Product: "PMI", Service: 51,
			PcWtMax: 2, PcRate: 4, WtRate: 1, Family: domain.FamilyXPO},
	}

	t.Run("EmptyRequestShortCircuits", func(t *testing.T) {
		refs := &fakeRefs{}
		rates := &fakeRates{}
		svc := newTestService(refs, rates, &stubRenderer{}, nil)

		resp, err := svc.Increase(context.Background(), IncreaseRunRequest{
			Params: QuoteParams{CustNo: "1234"},
		})
		require.NoError(t, err)
		require.Empty(t, resp.RateCards)
		require.Empty(t, resp.PcLbRates)
		require.Zero(t, refs.calls.Load())
		require.Zero(t, rates.calls.Load())
	})

	t.Run("BothBranchesApplied", func(t *testing.T) {
		svc := newTestService(&fakeRefs{}, &fakeRates{ppx: ppxRates, xpo: xpoRates}, &stubRenderer{}, nil)

		resp, err := svc.Increase(context.Background(), IncreaseRunRequest{
			Params: QuoteParams{CustName: "Acme", CustNo: "1234", QuoteNum: "Q-2"},
			Increases: []domain.IncreaseRequest{
				{Service: 51, Percentage: 0.05, QuoteID: "a0B1"},
			},
		})
		require.NoError(t, err)

		require.Len(t, resp.RateCards, 1)
		require.Equal(t, "PMI", resp.RateCards[0].Type)
		require.Equal(t, []ServiceRef{{Service: 51, QuoteID: "a0B1"}}, resp.RateCards[0].Services)

		require.Len(t, resp.PcLbRates, 1)
		require.Equal(t, 51, resp.PcLbRates[0].Service)
		require.Equal(t, "a0B1", resp.PcLbRates[0].QuoteID)
		require.Equal(t, 4.20, resp.PcLbRates[0].Rates[0].PerPc)
	})

	t.Run("BranchFailurePropagates", func(t *testing.T) {
		boom := errors.New("engine unavailable")
		svc := newTestService(&fakeRefs{}, &fakeRates{ppx: ppxRates, xpoErr: boom}, &stubRenderer{}, nil)

		_, err := svc.Increase(context.Background(), IncreaseRunRequest{
			Increases: []domain.IncreaseRequest{{Service: 51, Percentage: 0.05}},
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("SavePublishesRevisedRates", func(t *testing.T) {
		log := logrus.New()
		log.SetLevel(logrus.PanicLevel)
		bus := eventbus.NewEventPublisher(log)

		var got *domain.RatesRevisedEvent
		bus.Subscribe(func(e *domain.RatesRevisedEvent) { got = e })

		svc := newTestService(&fakeRefs{}, &fakeRates{ppx: ppxRates, xpo: xpoRates}, &stubRenderer{}, bus)
		_, err := svc.Increase(context.Background(), IncreaseRunRequest{
			Params:    QuoteParams{CustNo: "1234", QuoteNum: "Q-2"},
			Increases: []domain.IncreaseRequest{{Service: 51, Percentage: 0.05}},
			Save:      true,
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, "Q-2", got.QuoteNum)
		require.Equal(t, "1234", got.CustNo)
		require.Len(t, got.Rates, 2)
		require.Equal(t, 5.25, got.Rates[0].PcRate)
		require.Equal(t, 5.0, got.Rates[0].PriorPcRate)
	})

	t.Run("NoSaveSkipsPublish", func(t *testing.T) {
		log := logrus.New()
		log.SetLevel(logrus.PanicLevel)
		bus := eventbus.NewEventPublisher(log)

		published := false
		bus.Subscribe(func(*domain.RatesRevisedEvent) { published = true })

		svc := newTestService(&fakeRefs{}, &fakeRates{ppx: ppxRates, xpo: xpoRates}, &stubRenderer{}, bus)
		_, err := svc.Increase(context.Background(), IncreaseRunRequest{
			Increases: []domain.IncreaseRequest{{Service: 51, Percentage: 0.05}},
		})
		require.NoError(t, err)
		require.False(t, published)
	})
}

func TestRoutesToTiers(t *testing.T) {
	route := func(service int, country string, weight, pcRate float64) domain.PricedRoute {
		return domain.PricedRoute{
			Shipment: domain.ShipmentRecord{
				CustNo:          "0",
				OriginalCountry: country,
				OriginalService: service,
				Weight:          weight,
				MailFormat:      "PACK",
				MailType:        "PR",
			},
			PcRate: pcRate,
		}
	}

	tiers := RoutesToTiers([]domain.PricedRoute{
		route(51, "GB", 1, 2.00),
		route(51, "GB", 0.5, 1.50),
		route(51, "FR", 0.5, 1.75),
	})
	require.Len(t, tiers, 3)

	// First tier of each (service, country) group opens near zero; later
	// tiers open at the previous break.
	require.Equal(t, "FR", tiers[0].CountryCode)
	require.Equal(t, 0.0001, tiers[0].PcWtMin)
	require.Equal(t, 0.5, tiers[0].PcWtMax)

	require.Equal(t, "GB", tiers[1].CountryCode)
	require.Equal(t, 0.0001, tiers[1].PcWtMin)
	require.Equal(t, 0.5, tiers[2].PcWtMin)
	require.Equal(t, 1.0, tiers[2].PcWtMax)
	require.Equal(t, 2.00, tiers[2].PcRate)
}
