package domain

// RouteCandidate is one shipment joined to one eligible matrix row. The cost
// assembler fills Costs; the preference filter fills IsPreferred.
type RouteCandidate struct {
	Shipment ShipmentRecord

	MatrixID      int64
	VendorID      int64
	Vendor        string
	MatrixAcctNum string
	KicksIn       float64
	// BilledWeight is max(actual, dimensional) for this vendor.
	BilledWeight float64

	IsPreferred bool
	Costs       CostVector
}

// Loaded reports whether the matched matrix row was contracted to the
// shipment's specific account rather than the account wildcard.
func (c RouteCandidate) Loaded() bool {
	return c.MatrixAcctNum != AcctAny
}

// PricedRoute is a fully costed candidate. After selection exactly zero or
// one PricedRoute survives per piece; zero is the "no coverage" terminal
// state, not an error.
type PricedRoute struct {
	Shipment ShipmentRecord

	MatrixID      int64
	VendorID      int64
	Vendor        string
	MatrixAcctNum string
	BilledWeight  float64

	TotalPostage  float64
	TotalLabor    float64
	TotalLinehaul float64

	// PcRate is the per-piece price at actual weight; PcRateDim substitutes
	// billed weight into the labor and linehaul terms and is the ranking key.
	PcRate    float64
	PcRateDim float64
	WtRate    float64

	IsLoaded    bool
	IsPreferred bool
	CostRank    int
}
