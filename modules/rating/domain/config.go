package domain

// PipelineConfig carries the static business maps the pipelines consult.
// Built once per process via DefaultPipelineConfig and treated as immutable;
// nothing in the pipeline writes to it.
type PipelineConfig struct {
	// MirrorServices maps a parent service to the dependent services whose
	// increases must follow it.
	MirrorServices map[int][]int

	// WeightSets are the named weight-break ladders grids are built from.
	WeightSets map[string][]float64
	// ServiceWeightSet assigns each quotable service its weight set.
	ServiceWeightSet map[int]string

	// PPNDServices get overweight tiers trimmed to OverweightLimitLb during
	// increase processing (historical data cleanup, not a business rule).
	PPNDServices     map[int]bool
	OverweightLimitLb float64

	// Canada-bound rates for these products carry a historical flat markup
	// that must be undone before an increase, unless the account is exempt.
	CanadaMarkupProducts map[string]bool
	CanadaMarkupExempt   map[string]bool
	CanadaMarkup         float64

	// Synthetic is the one legacy product whose increase row is synthesized
	// from fixed constants instead of the historical table.
	Synthetic SyntheticRate
}

// SyntheticRate holds the fixed cost constants for the synthesized row; the
// request's margin and pickup are applied on top.
type SyntheticRate struct {
	Service     int
	Product     string
	CountryCode string
	PcCost      float64
	LbCost      float64
	WtMaxLb     float64
}

func DefaultPipelineConfig() PipelineConfig {
	oz := make([]float64, 0, 71)
	for i := 1; i <= 70; i++ {
		oz = append(oz, float64(i)/16)
	}
	oz = append(oz, 4.4)

	lb := []float64{0.5}
	for i := 1; i <= 66; i++ {
		lb = append(lb, float64(i))
	}

	gcLb := make([]float64, 0, 150)
	for i := 1; i <= 150; i++ {
		gcLb = append(gcLb, float64(i))
	}

	return PipelineConfig{
		MirrorServices: map[int][]int{
			45: {105, 106, 117},
		},
		WeightSets: map[string][]float64{
			"oz":          oz,
			"lb":          lb,
			"gc_lb":       gcLb,
			"packetmaxwt": {4.4},
		},
		ServiceWeightSet: map[int]string{
			102: "oz",
			105: "lb",
			106: "lb",
			107: "oz",
			108: "oz",
			33:  "gc_lb",
			71:  "packetmaxwt",
			19:  "packetmaxwt",
		},
		PPNDServices:      map[int]bool{71: true, 19: true},
		OverweightLimitLb: 4.4,
		CanadaMarkupProducts: map[string]bool{
			"PPND": true,
			"PPST": true,
		},
		CanadaMarkupExempt: map[string]bool{},
		CanadaMarkup:       0.10,
		Synthetic: SyntheticRate{
			Service:     71,
			Product:     "EPKT",
			CountryCode: CountryAny,
			PcCost:      0.89,
			LbCost:      2.35,
			WtMaxLb:     4.4,
		},
	}
}
