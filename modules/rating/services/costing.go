package services

import (
	"github.com/shopspring/decimal"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// CostOptions carries the request-level pricing knobs.
type CostOptions struct {
	Margin float64
	// Pickup is a per-pound pickup fee rate.
	Pickup float64
	// ForcePackLabor selects the tiered legacy labor formula instead of the
	// vendor handling components. Used for specific low-cost pack products.
	ForcePackLabor bool
}

// PivotDetails joins candidates to their matrix detail lines and pivots the
// lines into a cost vector per candidate. A candidate whose matrix has no
// detail lines at all is dropped, matching the inner-join semantics of the
// reference data.
func PivotDetails(candidates []domain.RouteCandidate, details []domain.MatrixDetailLine) []domain.RouteCandidate {
	byMatrix := make(map[int64][]domain.MatrixDetailLine, len(details))
	for _, d := range details {
		byMatrix[d.MatrixID] = append(byMatrix[d.MatrixID], d)
	}

	out := make([]domain.RouteCandidate, 0, len(candidates))
	for _, c := range candidates {
		lines, ok := byMatrix[c.MatrixID]
		if !ok {
			continue
		}
		var costs domain.CostVector
		for _, l := range lines {
			costs.Accumulate(l)
		}
		c.Costs = costs
		out = append(out, c)
	}
	return out
}

// AssembleCosts applies the pricing formula to each candidate, producing the
// actual-weight price and the dimensional variant used for ranking.
func AssembleCosts(candidates []domain.RouteCandidate, opts CostOptions) []domain.PricedRoute {
	out := make([]domain.PricedRoute, 0, len(candidates))
	for _, c := range candidates {
		s := c.Shipment
		pieces := float64(s.Pieces)

		allowance := c.KicksIn * domain.LbPerKg * pieces
		excess := c.BilledWeight - allowance
		if excess < 0 {
			excess = 0
		}

		postage := (c.Costs.PostagePiece*pieces +
			(c.Costs.PostageLb+c.Costs.PostageKilo/domain.LbPerKg)*excess) *
			(1 + c.Costs.FuelSurchargePct)

		var labor, laborDim float64
		if opts.ForcePackLabor {
			labor = packLabor(c.BilledWeight, s.Weight)
			laborDim = packLabor(c.BilledWeight, c.BilledWeight)
		} else {
			labor = c.Costs.HandlingPiece*pieces + c.Costs.HandlingLb*s.Weight
			laborDim = c.Costs.HandlingPiece*pieces + c.Costs.HandlingLb*c.BilledWeight
		}

		linehaulRate := c.Costs.LinehaulLb + c.Costs.LinehaulKilo/domain.LbPerKg
		linehaul := linehaulRate*s.Weight + s.InductionLbRate*s.Weight
		linehaulDim := linehaulRate*c.BilledWeight + s.InductionLbRate*c.BilledWeight

		pickup := opts.Pickup * s.Weight

		out = append(out, domain.PricedRoute{
			Shipment:      s,
			MatrixID:      c.MatrixID,
			VendorID:      c.VendorID,
			Vendor:        c.Vendor,
			MatrixAcctNum: c.MatrixAcctNum,
			BilledWeight:  c.BilledWeight,
			TotalPostage:  postage,
			TotalLabor:    labor,
			TotalLinehaul: linehaul,
			PcRate:        GrossUp(postage+labor+linehaul+pickup, opts.Margin),
			PcRateDim:     GrossUp(postage+laborDim+linehaulDim+pickup, opts.Margin),
			IsLoaded:      c.Loaded(),
			IsPreferred:   c.IsPreferred,
		})
	}
	return out
}

// packLabor is the tiered legacy labor formula: a light-piece linear rate
// below ten pounds billed, a flat charge at or above it.
func packLabor(billed, weight float64) float64 {
	if billed < 10 {
		return 0.34 + 0.17*weight
	}
	return 2
}

// GrossUp divides a raw cost by (1 - margin) and rounds to cents. Rounding
// is half away from zero. A zero margin returns the raw cost unrounded.
func GrossUp(raw, margin float64) float64 {
	if margin <= 0 {
		return raw
	}
	price := decimal.NewFromFloat(raw).
		Div(decimal.NewFromFloat(1 - margin)).
		Round(2)
	f, _ := price.Float64()
	return f
}

// RoundCents rounds a monetary amount to cents, half away from zero.
func RoundCents(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}
