package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/pkg/eventbus"
	"github.com/xpresspost/rateshop/pkg/serrors"
)

var ErrUnknownService = serrors.NewError("RATING_UNKNOWN_SERVICE", "requested service has no weight set assigned", "")

// ReferenceRepository fetches immutable, request-scoped snapshots of the
// reference tables from the tabular query engine.
type ReferenceRepository interface {
	Countries(ctx context.Context) ([]string, error)
	ServiceExceptions(ctx context.Context) ([]domain.ServiceException, error)
	MatrixRows(ctx context.Context, office string, asOf time.Time) ([]domain.VendorMatrixRow, error)
	MatrixDetails(ctx context.Context, matrixIDs []int64) ([]domain.MatrixDetailLine, error)
	PreferenceRules(ctx context.Context) (prefers, nonPrefers []domain.PreferenceRule, err error)
	SellZones(ctx context.Context) ([]domain.SellZone, error)
	PassthroughWindows(ctx context.Context) ([]domain.PassthroughWindow, error)
	Surcharges(ctx context.Context, custno string) ([]domain.Surcharge, error)
}

// ActiveRateRepository fetches a customer's currently effective rate tiers
// for one tariff family.
type ActiveRateRepository interface {
	ActiveRates(ctx context.Context, family domain.TariffFamily, custno string, asOf time.Time) ([]domain.ActiveRate, error)
}

type NewQuoteRequest struct {
	Params   QuoteParams
	Services []int
	Office   string
	Margin   float64
	Pickup   float64
}

type NewQuoteResponse struct {
	RateCards []RenderResult `json:"rateCards,omitempty"`
}

type IncreaseRunRequest struct {
	Params    QuoteParams
	Increases []domain.IncreaseRequest
	Save      bool
}

type IncreaseRunResponse struct {
	RateCards []RenderResult     `json:"rateCards,omitempty"`
	PcLbRates []ServicePcLbRates `json:"pcLbRates,omitempty"`
}

type QuoteService struct {
	refs     ReferenceRepository
	rates    ActiveRateRepository
	renderer CardRenderer
	bus      eventbus.EventBus
	cfg      domain.PipelineConfig
	maps     CardMaps
	// engineSem bounds concurrent blocking calls into the query engine.
	engineSem *semaphore.Weighted
	log       *logrus.Logger
	now       func() time.Time
}

func NewQuoteService(
	refs ReferenceRepository,
	rates ActiveRateRepository,
	renderer CardRenderer,
	bus eventbus.EventBus,
	cfg domain.PipelineConfig,
	maps CardMaps,
	maxEngineCalls int64,
	log *logrus.Logger,
) *QuoteService {
	return &QuoteService{
		refs:      refs,
		rates:     rates,
		renderer:  renderer,
		bus:       bus,
		cfg:       cfg,
		maps:      maps,
		engineSem: semaphore.NewWeighted(maxEngineCalls),
		log:       log,
		now:       time.Now,
	}
}

// withEngineSlot dispatches one blocking query-engine call through the
// bounded worker gate, respecting cancellation while waiting.
func (s *QuoteService) withEngineSlot(ctx context.Context, fn func(context.Context) error) error {
	if err := s.engineSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.engineSem.Release(1)
	return fn(ctx)
}

// NewQuote prices a fresh country x weight x service grid and renders one
// rate card per template group.
func (s *QuoteService) NewQuote(ctx context.Context, req NewQuoteRequest) (NewQuoteResponse, error) {
	sets, err := s.weightSets(req.Services)
	if err != nil {
		return NewQuoteResponse{}, err
	}
	today := s.now()

	var (
		countries  []string
		exceptions []domain.ServiceException
		matrix     []domain.VendorMatrixRow
		prefers    []domain.PreferenceRule
		nonPrefers []domain.PreferenceRule
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			countries, err = s.refs.Countries(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			exceptions, err = s.refs.ServiceExceptions(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			matrix, err = s.refs.MatrixRows(ctx, req.Office, today)
			return err
		})
	})
	g.Go(func() error {
		return s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			prefers, nonPrefers, err = s.refs.PreferenceRules(ctx)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return NewQuoteResponse{}, err
	}

	grid := BuildMultiWeightGrid(countries, sets, nil, GridOptions{
		Office:     req.Office,
		CustNo:     domain.AcctAny,
		MailFormat: "PACK",
		MailType:   "PR",
	})
	grid = ResolveExceptions(grid, exceptions)
	candidates := MatchMatrixRows(grid, matrix, today)
	candidates = FilterPreferences(candidates, nonPrefers, prefers)

	var details []domain.MatrixDetailLine
	if len(candidates) > 0 {
		err = s.withEngineSlot(ctx, func(ctx context.Context) error {
			var err error
			details, err = s.refs.MatrixDetails(ctx, matrixIDs(candidates))
			return err
		})
		if err != nil {
			return NewQuoteResponse{}, err
		}
	}
	candidates = PivotDetails(candidates, details)
	routes := AssembleCosts(candidates, CostOptions{Margin: req.Margin, Pickup: req.Pickup})
	routes = SelectLowestCost(routes, len(prefers) > 0)

	tiers := RoutesToTiers(routes)
	groups := BuildCardGroups(tiers, s.maps, nil, nil, req.Params)
	return NewQuoteResponse{RateCards: RenderCards(ctx, s.renderer, groups, nil)}, nil
}

// Increase re-prices a customer's active rates. The two tariff families are
// fetched and transformed concurrently; a failure in either branch fails the
// whole request. An empty increase list short-circuits before any engine
// call.
func (s *QuoteService) Increase(ctx context.Context, req IncreaseRunRequest) (IncreaseRunResponse, error) {
	if len(req.Increases) == 0 {
		return IncreaseRunResponse{}, nil
	}
	reqs := ExpandMirrors(req.Increases, s.cfg.MirrorServices)
	custno := req.Params.CustNo
	effective := s.now()

	var ppxRates, xpoRates []domain.ActiveRate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var (
			rates      []domain.ActiveRate
			surcharges []domain.Surcharge
			zones      []domain.SellZone
			windows    []domain.PassthroughWindow
		)
		err := s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			rates, err = s.rates.ActiveRates(ctx, domain.FamilyPPX, custno, effective)
			return err
		})
		if err != nil {
			return err
		}
		err = s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			surcharges, err = s.refs.Surcharges(ctx, custno)
			return err
		})
		if err != nil {
			return err
		}
		if hasPassthrough(reqs) {
			err = s.withEngineSlot(gctx, func(ctx context.Context) error {
				var err error
				zones, err = s.refs.SellZones(ctx)
				return err
			})
			if err != nil {
				return err
			}
			err = s.withEngineSlot(gctx, func(ctx context.Context) error {
				var err error
				windows, err = s.refs.PassthroughWindows(ctx)
				return err
			})
			if err != nil {
				return err
			}
		}

		rates = BackOutSurcharges(rates, surcharges, s.cfg)
		rates = TrimOverweightTiers(rates, s.cfg)
		rates = InjectSyntheticRow(rates, reqs, s.cfg, custno)
		ppxRates = ApplyIncreases(rates, reqs, zones, windows, effective)
		return nil
	})
	g.Go(func() error {
		var rates []domain.ActiveRate
		err := s.withEngineSlot(gctx, func(ctx context.Context) error {
			var err error
			rates, err = s.rates.ActiveRates(ctx, domain.FamilyXPO, custno, effective)
			return err
		})
		if err != nil {
			return err
		}
		xpoRates = ApplyIncreases(rates, reqs, nil, nil, effective)
		return nil
	})
	if err := g.Wait(); err != nil {
		return IncreaseRunResponse{}, err
	}

	quoteIDs := make(map[int]string, len(reqs))
	for _, r := range reqs {
		if r.QuoteID != "" {
			quoteIDs[r.Service] = r.QuoteID
		}
	}

	groups := BuildCardGroups(ppxRates, s.maps, nil, nil, req.Params)
	resp := IncreaseRunResponse{
		RateCards: RenderCards(ctx, s.renderer, groups, quoteIDs),
		PcLbRates: GroupPcLbByService(xpoRates, quoteIDs),
	}

	// Persistence runs strictly after compute and is best effort: the audit
	// subscriber reports its own failures without touching the response.
	if req.Save {
		revised := append(append([]domain.ActiveRate{}, ppxRates...), xpoRates...)
		s.bus.Publish(&domain.RatesRevisedEvent{
			QuoteNum: req.Params.QuoteNum,
			CustNo:   custno,
			Rates:    revised,
		})
	}
	return resp, nil
}

func (s *QuoteService) weightSets(services []int) ([]WeightServiceSet, error) {
	bySet := make(map[string][]int)
	var order []string
	for _, svc := range services {
		setName, ok := s.cfg.ServiceWeightSet[svc]
		if !ok {
			return nil, ErrUnknownService
		}
		if _, seen := bySet[setName]; !seen {
			order = append(order, setName)
		}
		bySet[setName] = append(bySet[setName], svc)
	}
	sets := make([]WeightServiceSet, 0, len(order))
	for _, name := range order {
		sets = append(sets, WeightServiceSet{Weights: s.cfg.WeightSets[name], Services: bySet[name]})
	}
	return sets, nil
}

func hasPassthrough(reqs []domain.IncreaseRequest) bool {
	for _, r := range reqs {
		if r.Passthrough {
			return true
		}
	}
	return false
}

func matrixIDs(candidates []domain.RouteCandidate) []int64 {
	seen := make(map[int64]bool, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c.MatrixID] {
			seen[c.MatrixID] = true
			ids = append(ids, c.MatrixID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RoutesToTiers converts selected grid routes into rate tiers: within each
// (service, country) group the tier's lower bound is the previous weight
// break, with a near-zero floor for the first tier.
func RoutesToTiers(routes []domain.PricedRoute) []domain.ActiveRate {
	sorted := append([]domain.PricedRoute{}, routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Shipment, sorted[j].Shipment
		if a.OriginalService != b.OriginalService {
			return a.OriginalService < b.OriginalService
		}
		if a.OriginalCountry != b.OriginalCountry {
			return a.OriginalCountry < b.OriginalCountry
		}
		return a.Weight < b.Weight
	})

	out := make([]domain.ActiveRate, 0, len(sorted))
	prevMin := 0.0001
	for i, r := range sorted {
		s := r.Shipment
		if i > 0 {
			prev := sorted[i-1].Shipment
			if prev.OriginalService == s.OriginalService && prev.OriginalCountry == s.OriginalCountry {
				prevMin = prev.Weight
			} else {
				prevMin = 0.0001
			}
		}
		out = append(out, domain.ActiveRate{
			CustNo:      s.CustNo,
			CountryCode: s.OriginalCountry,
			Product:     s.Product,
			Service:     s.OriginalService,
			MailFormat:  s.MailFormat,
			MailType:    s.MailType,
			PcWtMin:     prevMin,
			PcWtMax:     s.Weight,
			PcRate:      r.PcRate,
			WtRate:      r.WtRate,
			Family:      domain.FamilyXPO,
		})
	}
	return out
}
