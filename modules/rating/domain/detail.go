package domain

// CostKind identifies one itemized rate component on a matrix detail line.
// The wire values match the reference data's description__unit encoding.
type CostKind string

const (
	PostagePiece     CostKind = "POSTAGE__PIECE"
	PostageKilo      CostKind = "POSTAGE__KILO"
	PostageLb        CostKind = "POSTAGE__LB"
	HandlingPiece    CostKind = "HANDLING__PIECE"
	HandlingLb       CostKind = "HANDLING__LB"
	LinehaulLb       CostKind = "AWBLINEHAUL__LB"
	LinehaulKilo     CostKind = "AWBLINEHAUL__KILO"
	FuelSurchargePct CostKind = "FUELSURCHARGE__PERCENT"
)

// MatrixDetailLine is one itemized rate component row for a matrix.
type MatrixDetailLine struct {
	MatrixID     int64
	Kind         CostKind
	Rate         float64
	CurrencyUnit string
	ExchangeRate float64
}

// AdjustedRate converts the line's rate into the billing currency. The fuel
// surcharge is a percentage, not a currency amount, so its exchange factor is
// forced to 1.
func (l MatrixDetailLine) AdjustedRate() float64 {
	if l.Kind == FuelSurchargePct {
		return l.Rate
	}
	return l.Rate * l.ExchangeRate
}

// CostVector is the pivot of a matrix's detail lines by cost kind. Kinds
// missing from the detail table stay zero.
type CostVector struct {
	PostagePiece     float64
	PostageKilo      float64
	PostageLb        float64
	HandlingPiece    float64
	HandlingLb       float64
	LinehaulLb       float64
	LinehaulKilo     float64
	FuelSurchargePct float64
}

// Accumulate folds one detail line into the vector. Duplicate kinds sum, the
// same way the source pivot aggregated them.
func (v *CostVector) Accumulate(l MatrixDetailLine) {
	rate := l.AdjustedRate()
	switch l.Kind {
	case PostagePiece:
		v.PostagePiece += rate
	case PostageKilo:
		v.PostageKilo += rate
	case PostageLb:
		v.PostageLb += rate
	case HandlingPiece:
		v.HandlingPiece += rate
	case HandlingLb:
		v.HandlingLb += rate
	case LinehaulLb:
		v.LinehaulLb += rate
	case LinehaulKilo:
		v.LinehaulKilo += rate
	case FuelSurchargePct:
		v.FuelSurchargePct += rate
	}
}
