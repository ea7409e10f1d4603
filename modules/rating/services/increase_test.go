package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

func TestExpandMirrors(t *testing.T) {
	mirrors := map[int][]int{45: {105, 106, 117}}

	t.Run("ClonesOntoMirrors", func(t *testing.T) {
		out := ExpandMirrors([]domain.IncreaseRequest{
			{Service: 45, Percentage: 0.05, Margin: 0.1},
		}, mirrors)
		require.Len(t, out, 4)
		require.False(t, out[0].Mirrored)
		for _, r := range out[1:] {
			require.True(t, r.Mirrored)
			require.Equal(t, 0.05, r.Percentage)
			require.Equal(t, 0.1, r.Margin)
		}
	})

	t.Run("ExplicitRequestWins", func(t *testing.T) {
		out := ExpandMirrors([]domain.IncreaseRequest{
			{Service: 45, Percentage: 0.05},
			{Service: 106, Percentage: 0.08},
		}, mirrors)
		require.Len(t, out, 4) // 45, 106 explicit, 105 and 117 mirrored

		byService := make(map[int]domain.IncreaseRequest)
		for _, r := range out {
			_, dup := byService[r.Service]
			require.False(t, dup, "service %d duplicated", r.Service)
			byService[r.Service] = r
		}
		require.Equal(t, 0.08, byService[106].Percentage)
		require.False(t, byService[106].Mirrored)
		require.Equal(t, 0.05, byService[105].Percentage)
		require.True(t, byService[105].Mirrored)
	})

	t.Run("NoMirrorsIsIdentity", func(t *testing.T) {
		reqs := []domain.IncreaseRequest{{Service: 33, Percentage: 0.03}}
		require.Equal(t, reqs, ExpandMirrors(reqs, mirrors))
	})
}

func TestBackOutSurcharges(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()

	t.Run("CustomerScheduleBeatsDefault", func(t *testing.T) {
		rates := []domain.ActiveRate{
			{CustNo: "1234", CountryCode: "GB", Service: 51, Product: "PMI", PcRate: 5, WtRate: 2},
		}
		surcharges := []domain.Surcharge{
			{CustNo: domain.AcctAny, CountryCode: "GB", Service: 51, Product: "PMI", SurchargePc: 0.50, SurchargeLb: 0.10},
			{CustNo: "1234", CountryCode: domain.CountryAny, Service: 51, Product: "PMI", SurchargePc: 0.25, SurchargeLb: 0.05},
		}
		out := BackOutSurcharges(rates, surcharges, cfg)
		require.InDelta(t, 4.75, out[0].PcRate, 1e-9)
		require.InDelta(t, 1.95, out[0].WtRate, 1e-9)
	})

	t.Run("CanadaMarkupUndone", func(t *testing.T) {
		rates := []domain.ActiveRate{
			{CustNo: "1234", CountryCode: "CA", Service: 105, Product: "PPND", PcRate: 1.10, WtRate: 2.20},
			{CustNo: "1234", CountryCode: "CA", Service: 105, Product: "PMI", PcRate: 1.10, WtRate: 2.20},
		}
		out := BackOutSurcharges(rates, nil, cfg)
		require.InDelta(t, 1.0, out[0].PcRate, 1e-9)
		require.InDelta(t, 2.0, out[0].WtRate, 1e-9)

		// Products outside the markup set are untouched.
		require.InDelta(t, 1.10, out[1].PcRate, 1e-9)
	})

	t.Run("ExemptAccountKeepsMarkup", func(t *testing.T) {
		exempt := cfg
		exempt.CanadaMarkupExempt = map[string]bool{"1234": true}
		rates := []domain.ActiveRate{
			{CustNo: "1234", CountryCode: "CA", Service: 105, Product: "PPND", PcRate: 1.10},
		}
		out := BackOutSurcharges(rates, nil, exempt)
		require.InDelta(t, 1.10, out[0].PcRate, 1e-9)
	})
}

func TestTrimOverweightTiers(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	rates := []domain.ActiveRate{
		{Service: 71, PcWtMin: 0, PcWtMax: 4},      // kept
		{Service: 71, PcWtMin: 4, PcWtMax: 5},      // straddles, relabeled
		{Service: 71, PcWtMin: 5, PcWtMax: 10},     // dropped
		{Service: 51, PcWtMin: 5, PcWtMax: 10},     // other service untouched
	}
	out := TrimOverweightTiers(rates, cfg)
	require.Len(t, out, 3)
	require.Equal(t, 4.4, out[1].PcWtMax)
	require.Equal(t, 10.0, out[2].PcWtMax)
}

func TestInjectSyntheticRow(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	rates := []domain.ActiveRate{
		{CustNo: "1234", Product: "EPKT", Service: 71, PcRate: 0.77},
		{CustNo: "1234", Product: "PMI", Service: 51, PcRate: 5},
	}

	t.Run("ReplacesHistoricalRows", func(t *testing.T) {
		reqs := []domain.IncreaseRequest{{Service: 71, Margin: 0.5, Pickup: 0.15}}
		out := InjectSyntheticRow(rates, reqs, cfg, "1234")
		require.Len(t, out, 2)
		require.Equal(t, "PMI", out[0].Product)

		row := out[1]
		require.True(t, row.Synthetic)
		require.Equal(t, domain.CountryAny, row.CountryCode)
		require.Equal(t, domain.FamilyPPX, row.Family)
		require.InDelta(t, 1.78, row.PcRate, 1e-9)            // 0.89 / 0.5
		require.InDelta(t, 5.00, row.WtRate, 1e-9)            // (2.35 + 0.15) / 0.5
		require.Equal(t, cfg.Synthetic.WtMaxLb, row.PcWtMax)
	})

	t.Run("NoOpWithoutRequest", func(t *testing.T) {
		out := InjectSyntheticRow(rates, []domain.IncreaseRequest{{Service: 51}}, cfg, "1234")
		require.Equal(t, rates, out)
	})
}

func TestApplyIncreases(t *testing.T) {
	effective := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("FlatPercentageWithShadows", func(t *testing.T) {
		rates := []domain.ActiveRate{
			{Service: 51, PcRate: 5.333, WtRate: 2.111},
			{Service: 52, PcRate: 4},
		}
		reqs := []domain.IncreaseRequest{{Service: 51, Percentage: 0.05}}
		out := ApplyIncreases(rates, reqs, nil, nil, effective)

		require.Equal(t, 5.60, out[0].PcRate) // 5.5997 rounded
		require.Equal(t, 2.22, out[0].WtRate) // 2.21655 rounded
		require.Equal(t, 5.333, out[0].PriorPcRate)
		require.Equal(t, 2.111, out[0].PriorWtRate)
		require.Equal(t, effective, out[0].EffectiveFrom)

		// Services without a request are untouched.
		require.Equal(t, 4.0, out[1].PcRate)
		require.True(t, out[1].EffectiveFrom.IsZero())
	})

	t.Run("PassthroughWindowOverridesFlat", func(t *testing.T) {
		rates := []domain.ActiveRate{
			{Service: 51, CountryCode: "GB", PcWtMax: 2, PcRate: 10},
			{Service: 51, CountryCode: "GB", PcWtMax: 50, PcRate: 10},
			{Service: 51, CountryCode: "FR", PcWtMax: 2, PcRate: 10},
		}
		reqs := []domain.IncreaseRequest{{Service: 51, Percentage: 0.05, Passthrough: true}}
		zones := []domain.SellZone{{Service: 51, CountryCode: "GB", Zone: "Z1"}}
		windows := []domain.PassthroughWindow{
			{Service: 51, Zone: "Z1", MinWt: 0, MaxWt: 5, Percentage: 0.12},
		}
		out := ApplyIncreases(rates, reqs, zones, windows, effective)

		require.Equal(t, 11.20, out[0].PcRate) // window percentage
		require.Equal(t, 10.50, out[1].PcRate) // outside every window: flat
		require.Equal(t, 10.50, out[2].PcRate) // no zone: flat
	})
}
