package services

import (
	"time"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// ExpandMirrors clones each requested increase onto the mirror services of
// its parent. A mirror service that already carries an explicit request is
// left alone: the explicit parameters win.
func ExpandMirrors(reqs []domain.IncreaseRequest, mirrors map[int][]int) []domain.IncreaseRequest {
	explicit := make(map[int]bool, len(reqs))
	for _, r := range reqs {
		explicit[r.Service] = true
	}

	out := make([]domain.IncreaseRequest, 0, len(reqs))
	out = append(out, reqs...)
	seen := make(map[int]bool)
	for _, r := range reqs {
		for _, mirror := range mirrors[r.Service] {
			if explicit[mirror] || seen[mirror] {
				continue
			}
			clone := r
			clone.Service = mirror
			clone.Mirrored = true
			out = append(out, clone)
			seen[mirror] = true
		}
	}
	return out
}

// BackOutSurcharges subtracts the previously applied customer-or-default
// surcharge from each rate, so the new increase is computed against a
// surcharge-free base, and undoes the flat markup baked into historical
// Canada-bound rates for the affected products unless the account is
// contractually exempt.
func BackOutSurcharges(rates []domain.ActiveRate, surcharges []domain.Surcharge, cfg domain.PipelineConfig) []domain.ActiveRate {
	out := make([]domain.ActiveRate, len(rates))
	for i, rate := range rates {
		if s, ok := bestSurcharge(rate, surcharges); ok {
			rate.PcRate -= s.SurchargePc
			rate.WtRate -= s.SurchargeLb
		}
		if rate.CountryCode == "CA" &&
			cfg.CanadaMarkupProducts[rate.Product] &&
			!cfg.CanadaMarkupExempt[rate.CustNo] {
			rate.PcRate /= 1 + cfg.CanadaMarkup
			rate.WtRate /= 1 + cfg.CanadaMarkup
		}
		out[i] = rate
	}
	return out
}

// bestSurcharge finds the surcharge covering a rate. A customer-specific
// schedule beats the default, then an exact country beats the wildcard.
func bestSurcharge(rate domain.ActiveRate, surcharges []domain.Surcharge) (domain.Surcharge, bool) {
	var best domain.Surcharge
	bestScore := -1
	for _, s := range surcharges {
		if s.Service != rate.Service || s.Product != rate.Product {
			continue
		}
		if s.CustNo != rate.CustNo && s.CustNo != domain.AcctAny {
			continue
		}
		if s.CountryCode != rate.CountryCode && s.CountryCode != domain.CountryAny {
			continue
		}
		score := 0
		if s.CustNo == rate.CustNo {
			score += 2
		}
		if s.CountryCode == rate.CountryCode {
			score++
		}
		if score > bestScore {
			best = s
			bestScore = score
		}
	}
	return best, bestScore >= 0
}

// TrimOverweightTiers drops tiers above the overweight limit for the legacy
// PPND services and relabels the tier straddling the limit down to it. This
// is historical data cleanup, not a business rule.
func TrimOverweightTiers(rates []domain.ActiveRate, cfg domain.PipelineConfig) []domain.ActiveRate {
	out := make([]domain.ActiveRate, 0, len(rates))
	for _, rate := range rates {
		if !cfg.PPNDServices[rate.Service] || rate.PcWtMax <= cfg.OverweightLimitLb {
			out = append(out, rate)
			continue
		}
		if rate.PcWtMin < cfg.OverweightLimitLb {
			rate.PcWtMax = cfg.OverweightLimitLb
			out = append(out, rate)
		}
	}
	return out
}

// InjectSyntheticRow replaces the historical rows of the one synthesized
// legacy product with a single rate row built from fixed cost constants and
// the request's margin and pickup. A no-op when that product's service was
// not requested.
func InjectSyntheticRow(rates []domain.ActiveRate, reqs []domain.IncreaseRequest, cfg domain.PipelineConfig, custno string) []domain.ActiveRate {
	var req *domain.IncreaseRequest
	for i := range reqs {
		if reqs[i].Service == cfg.Synthetic.Service {
			req = &reqs[i]
			break
		}
	}
	if req == nil {
		return rates
	}

	out := make([]domain.ActiveRate, 0, len(rates)+1)
	for _, rate := range rates {
		if rate.Product == cfg.Synthetic.Product {
			continue
		}
		out = append(out, rate)
	}
	out = append(out, domain.ActiveRate{
		CustNo:      custno,
		CountryCode: cfg.Synthetic.CountryCode,
		Product:     cfg.Synthetic.Product,
		Service:     cfg.Synthetic.Service,
		MailFormat:  "PACK",
		MailType:    "PR",
		PcWtMin:     0,
		PcWtMax:     cfg.Synthetic.WtMaxLb,
		PcRate:      GrossUp(cfg.Synthetic.PcCost, req.Margin),
		WtRate:      GrossUp(cfg.Synthetic.LbCost+req.Pickup, req.Margin),
		Family:      domain.FamilyPPX,
		Synthetic:   true,
	})
	return out
}

// ApplyIncreases bumps each rate covered by a request, rounding to cents,
// preserving the prior value in the shadow columns and stamping the
// effective-start date. For passthrough services the flat percentage is
// overridden by the zone/weight-window schedule where one covers the tier.
func ApplyIncreases(rates []domain.ActiveRate, reqs []domain.IncreaseRequest,
	zones []domain.SellZone, windows []domain.PassthroughWindow, effective time.Time) []domain.ActiveRate {

	byService := make(map[int]domain.IncreaseRequest, len(reqs))
	for _, r := range reqs {
		byService[r.Service] = r
	}

	out := make([]domain.ActiveRate, len(rates))
	for i, rate := range rates {
		req, ok := byService[rate.Service]
		if !ok {
			out[i] = rate
			continue
		}
		pct := req.Percentage
		if req.Passthrough {
			pct = passthroughPct(rate, zones, windows, pct)
		}
		rate.PriorPcRate = rate.PcRate
		rate.PriorWtRate = rate.WtRate
		rate.PcRate = RoundCents(rate.PcRate * (1 + pct))
		rate.WtRate = RoundCents(rate.WtRate * (1 + pct))
		rate.EffectiveFrom = effective
		out[i] = rate
	}
	return out
}

// passthroughPct resolves the sell zone for the rate's service/country and
// looks up the window covering the tier. Tiers outside every window keep the
// flat requested percentage.
func passthroughPct(rate domain.ActiveRate, zones []domain.SellZone, windows []domain.PassthroughWindow, flat float64) float64 {
	zone := ""
	for _, z := range zones {
		if z.Service == rate.Service && z.CountryCode == rate.CountryCode {
			zone = z.Zone
			break
		}
	}
	if zone == "" {
		return flat
	}
	for _, w := range windows {
		if w.Service == rate.Service && w.Covers(zone, rate.PcWtMax) {
			return w.Percentage
		}
	}
	return flat
}
