package services

import (
	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// ResolveExceptions redirects each shipment's nominal service to its routing
// service using account/country scoped override rules. Resolution is single
// hop: a chosen ToService is never re-resolved against the exception set.
func ResolveExceptions(shipments []domain.ShipmentRecord, exceptions []domain.ServiceException) []domain.ShipmentRecord {
	out := make([]domain.ShipmentRecord, len(shipments))
	for i, s := range shipments {
		s.RoutingService = s.OriginalService
		if best, ok := bestException(s, exceptions); ok && best.ToService != nil {
			s.RoutingService = *best.ToService
		}
		out[i] = s
	}
	return out
}

// bestException picks the winning rule for a shipment. An exact country
// match beats the country wildcard; among equals the highest ExceptionID
// (most recently defined) wins.
func bestException(s domain.ShipmentRecord, exceptions []domain.ServiceException) (domain.ServiceException, bool) {
	var best domain.ServiceException
	found := false
	for _, e := range exceptions {
		if e.AcctNum != s.CustNo {
			continue
		}
		if e.FromService != s.OriginalService {
			continue
		}
		if e.CountryCode != s.CountryCode && e.CountryCode != domain.CountryAny {
			continue
		}
		if !found || exceptionBeats(e, best, s.CountryCode) {
			best = e
			found = true
		}
	}
	return best, found
}

func exceptionBeats(a, b domain.ServiceException, country string) bool {
	aExact := a.CountryCode == country
	bExact := b.CountryCode == country
	if aExact != bExact {
		return aExact
	}
	return a.ExceptionID > b.ExceptionID
}
