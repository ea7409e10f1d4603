package domain

import "time"

// TariffFamily distinguishes the two reference-data branches a request fans
// out over. They share no mutable state and are fetched concurrently.
type TariffFamily string

const (
	FamilyPPX TariffFamily = "ppx"
	FamilyXPO TariffFamily = "xpo"
)

// ActiveRate is one currently effective tier of a customer's rate card, the
// unit the increase pipeline operates on.
type ActiveRate struct {
	CustNo      string
	CountryCode string
	Product     string
	Service     int
	MailFormat  string
	MailType    string

	// Tier weight window in pounds.
	PcWtMin float64
	PcWtMax float64

	PcRate float64
	WtRate float64

	// Shadow of the pre-increase values, stamped by the applicator.
	PriorPcRate float64
	PriorWtRate float64

	EffectiveFrom time.Time
	Family        TariffFamily
	Synthetic     bool
}

// Surcharge is a previously applied customer-or-default per-piece/per-pound
// surcharge that must be backed out before a new increase is computed.
// CustNo may be AcctAny for the default schedule.
type Surcharge struct {
	CustNo      string
	CountryCode string
	Service     int
	Product     string
	SurchargePc float64
	SurchargeLb float64
}

// SellZone maps a (service, country) pair to the sell zone used by
// passthrough increase schedules.
type SellZone struct {
	Service     int
	CountryCode string
	Zone        string
}

// PassthroughWindow is a zone and weight-window specific increase percentage
// that overrides the flat requested percentage for passthrough services.
type PassthroughWindow struct {
	Service    int
	Zone       string
	MinWt      float64
	MaxWt      float64
	Percentage float64
}

// Covers reports whether the window applies to a tier's max weight.
func (w PassthroughWindow) Covers(zone string, wtMax float64) bool {
	return w.Zone == zone && wtMax > w.MinWt && wtMax <= w.MaxWt
}

// IncreaseRequest is one requested percentage increase for a service.
type IncreaseRequest struct {
	Service    int
	Percentage float64
	Margin     float64
	Pickup     float64
	QuoteID    string
	Passthrough bool
	// Mirrored marks requests cloned from a parent service by mirror
	// expansion; explicit requests always win over mirrored ones.
	Mirrored bool
}
