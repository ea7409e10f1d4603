package domain

import "time"

// VendorMatrixRow is a vendor's rate-eligibility rule bundle for one
// weight/format/account/country combination, already augmented with the
// vendor-level dimensional limits and flags.
type VendorMatrixRow struct {
	MatrixID int64
	VendorID int64
	Vendor   string
	// AcctNum is AcctAny for generic rates, a concrete account for loaded
	// (contracted) rates.
	AcctNum     string
	CountryCode string
	ServiceID   int
	Office      string
	MailFormat  string
	MailType    string

	// Weight window in kilograms; the per-piece test value must be strictly
	// greater than MinKg and at most MaxKg.
	MinKg float64
	MaxKg float64

	LengthMax         float64
	WidthMax          float64
	HeightMax         float64
	LengthGirthAddMax float64
	LWHAddMax         float64
	LWHMultiplyMax    float64

	AllowPOBox bool
	AllowSuite bool

	// DimFactor is the reciprocal of the vendor's dimensional divisor, zero
	// when the vendor does not bill dimensional weight.
	DimFactor float64
	// KicksIn is the free weight allowance per piece, in kilograms.
	KicksIn float64

	StartDate time.Time
	EndDate   time.Time
}

// ActiveOn reports whether the matrix row's validity window covers the date.
func (m VendorMatrixRow) ActiveOn(date time.Time) bool {
	return !date.Before(m.StartDate) && !date.After(m.EndDate)
}
