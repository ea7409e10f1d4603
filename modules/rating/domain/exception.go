package domain

// ServiceException redirects a shipment's nominal service to a routing
// service for an account/country scope. A nil ToService means "no
// redirection" and exists to suppress broader rules.
type ServiceException struct {
	ExceptionID int64
	AcctNum     string
	// CountryCode may be CountryAny.
	CountryCode string
	FromService int
	ToService   *int
}

// PreferenceRule marks a vendor as preferred, or hard-excluded when it lives
// in the non-preference table, for an account/country/service scope.
type PreferenceRule struct {
	AcctNum     string
	CountryCode string
	ServiceID   int
	VendorID    int64
}

// Matches reports whether the rule's scope covers the candidate key. Account
// and country accept their wildcard sentinels; service and vendor are exact.
func (r PreferenceRule) Matches(country, acctNum string, serviceID int, vendorID int64) bool {
	if r.CountryCode != country && r.CountryCode != CountryAny {
		return false
	}
	if r.AcctNum != acctNum && r.AcctNum != AcctAny {
		return false
	}
	return r.ServiceID == serviceID && r.VendorID == vendorID
}
