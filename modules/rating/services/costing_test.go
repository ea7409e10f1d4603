package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

func TestPivotDetails(t *testing.T) {
	candidates := []domain.RouteCandidate{
		{MatrixID: 1},
		{MatrixID: 2},
	}
	details := []domain.MatrixDetailLine{
		{MatrixID: 1, Kind: domain.PostagePiece, Rate: 1.5, ExchangeRate: 2},
		{MatrixID: 1, Kind: domain.PostagePiece, Rate: 0.5, ExchangeRate: 1},
		{MatrixID: 1, Kind: domain.FuelSurchargePct, Rate: 0.12, ExchangeRate: 1.3},
	}
	out := PivotDetails(candidates, details)

	// Matrix 2 has no detail lines and is dropped.
	require.Len(t, out, 1)
	require.Equal(t, int64(1), out[0].MatrixID)

	// Duplicate kinds sum after currency conversion.
	require.InDelta(t, 3.5, out[0].Costs.PostagePiece, 1e-9)

	// The fuel surcharge is a percentage; its exchange factor is ignored.
	require.InDelta(t, 0.12, out[0].Costs.FuelSurchargePct, 1e-9)
}

func TestAssembleCosts(t *testing.T) {
	shipment := domain.ShipmentRecord{
		PieceID:         1,
		Pieces:          2,
		Weight:          10,
		InductionLbRate: 0.05,
	}
	candidate := domain.RouteCandidate{
		Shipment:      shipment,
		MatrixID:      1,
		MatrixAcctNum: domain.AcctAny,
		KicksIn:       1,
		BilledWeight:  12,
		Costs: domain.CostVector{
			PostagePiece:     1,
			PostageLb:        0.5,
			PostageKilo:      domain.LbPerKg, // 1.00 per pound
			HandlingPiece:    0.25,
			HandlingLb:       0.10,
			LinehaulLb:       0.30,
			FuelSurchargePct: 0.10,
		},
	}

	t.Run("FullFormula", func(t *testing.T) {
		out := AssembleCosts([]domain.RouteCandidate{candidate}, CostOptions{Pickup: 0.02})
		require.Len(t, out, 1)
		r := out[0]

		// Allowance is per-piece kilograms converted to pounds.
		excess := 12 - 1*domain.LbPerKg*2
		postage := (1*2 + (0.5+1.0)*excess) * 1.10
		require.InDelta(t, postage, r.TotalPostage, 1e-9)
		require.InDelta(t, 0.25*2+0.10*10, r.TotalLabor, 1e-9)
		require.InDelta(t, 0.30*10+0.05*10, r.TotalLinehaul, 1e-9)

		// The dimensional variant substitutes billed weight into the labor and
		// linehaul terms only.
		require.InDelta(t, postage+1.5+3.5+0.02*10, r.PcRate, 1e-9)
		require.InDelta(t, postage+(0.25*2+0.10*12)+(0.30*12+0.05*12)+0.02*10, r.PcRateDim, 1e-9)
		require.False(t, r.IsLoaded)
	})

	t.Run("AllowanceNeverGoesNegative", func(t *testing.T) {
		c := candidate
		c.KicksIn = 100
		out := AssembleCosts([]domain.RouteCandidate{c}, CostOptions{})
		require.InDelta(t, 1*2*1.10, out[0].TotalPostage, 1e-9)
	})

	t.Run("PackLabor", func(t *testing.T) {
		c := candidate
		c.BilledWeight = 8
		out := AssembleCosts([]domain.RouteCandidate{c}, CostOptions{ForcePackLabor: true})
		require.InDelta(t, 0.34+0.17*10, out[0].TotalLabor, 1e-9)

		c.BilledWeight = 12
		out = AssembleCosts([]domain.RouteCandidate{c}, CostOptions{ForcePackLabor: true})
		require.InDelta(t, 2.0, out[0].TotalLabor, 1e-9)
	})

	t.Run("LoadedFlag", func(t *testing.T) {
		c := candidate
		c.MatrixAcctNum = "1234"
		out := AssembleCosts([]domain.RouteCandidate{c}, CostOptions{})
		require.True(t, out[0].IsLoaded)
	})
}

func TestGrossUp(t *testing.T) {
	require.InDelta(t, 11.12, GrossUp(10.005, 0.1), 1e-9)
	require.InDelta(t, 20.0, GrossUp(10, 0.5), 1e-9)

	// Zero margin passes the raw cost through unrounded.
	require.Equal(t, 10.005, GrossUp(10.005, 0))
}

func TestRoundCents(t *testing.T) {
	// Half rounds away from zero, not to even.
	require.Equal(t, 2.68, RoundCents(2.675))
	require.Equal(t, -2.68, RoundCents(-2.675))
	require.Equal(t, 1.23, RoundCents(1.234))
}
