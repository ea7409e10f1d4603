package services

import (
	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// FilterPreferences removes candidates hard-excluded by a non-preference
// rule, then flags the survivors a preference rule covers. The exclusion is
// an anti-join and final; the preference flag is advisory and only consulted
// as a ranking tie-break.
func FilterPreferences(candidates []domain.RouteCandidate, nonPrefers, prefers []domain.PreferenceRule) []domain.RouteCandidate {
	out := make([]domain.RouteCandidate, 0, len(candidates))
	for _, c := range candidates {
		if matchesAnyRule(c, nonPrefers) {
			continue
		}
		c.IsPreferred = matchesAnyRule(c, prefers)
		out = append(out, c)
	}
	return out
}

func matchesAnyRule(c domain.RouteCandidate, rules []domain.PreferenceRule) bool {
	for _, r := range rules {
		if r.Matches(c.Shipment.OriginalCountry, c.Shipment.CustNo, c.Shipment.RoutingService, c.VendorID) {
			return true
		}
	}
	return false
}
