package domain

// ShipmentRecord is one rateable piece: either a synthetic grid cell
// (country x weight break x service) or a normalized externally-sourced
// parcel. Immutable once built; downstream stages read it and never write.
type ShipmentRecord struct {
	PieceID         int64
	CustNo          string
	OriginalCountry string
	// CountryCode is the working country; zone resolution may rewrite it
	// while OriginalCountry is preserved for reporting.
	CountryCode     string
	OriginalService int
	// RoutingService is filled by the exception resolver; zero until then.
	RoutingService int
	Product        string
	Office         string
	MailFormat     string
	MailType       string
	Pieces         int
	Weight         float64
	DimL           float64
	DimW           float64
	DimH           float64
	IsApt          bool
	IsBox          bool

	// InductionLbRate is the per-pound entry-induction linehaul addend,
	// resolved upstream from zone data. Zero when the route is not inducted.
	InductionLbRate float64
	// InductionPoint is "XX" when the piece is not inducted.
	InductionPoint string
}
