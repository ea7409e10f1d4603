package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

func TestFilterPreferences(t *testing.T) {
	candidate := func(vendorID int64) domain.RouteCandidate {
		return domain.RouteCandidate{
			Shipment: domain.ShipmentRecord{
				PieceID:         1,
				CustNo:          "1234",
				OriginalCountry: "GB",
				CountryCode:     "GB",
				RoutingService:  51,
			},
			VendorID: vendorID,
		}
	}

	t.Run("NonPreferenceExcludes", func(t *testing.T) {
		nonPrefers := []domain.PreferenceRule{
			{AcctNum: "1234", CountryCode: "GB", ServiceID: 51, VendorID: 7},
		}
		out := FilterPreferences([]domain.RouteCandidate{candidate(7), candidate(8)}, nonPrefers, nil)
		require.Len(t, out, 1)
		require.Equal(t, int64(8), out[0].VendorID)
	})

	t.Run("PreferenceOnlyFlags", func(t *testing.T) {
		prefers := []domain.PreferenceRule{
			{AcctNum: domain.AcctAny, CountryCode: domain.CountryAny, ServiceID: 51, VendorID: 7},
		}
		out := FilterPreferences([]domain.RouteCandidate{candidate(7), candidate(8)}, nil, prefers)
		require.Len(t, out, 2)
		require.True(t, out[0].IsPreferred)
		require.False(t, out[1].IsPreferred)
	})

	t.Run("ExclusionBeatsPreference", func(t *testing.T) {
		rule := []domain.PreferenceRule{
			{AcctNum: "1234", CountryCode: "GB", ServiceID: 51, VendorID: 7},
		}
		out := FilterPreferences([]domain.RouteCandidate{candidate(7)}, rule, rule)
		require.Empty(t, out)
	})

	t.Run("ScopeIsKeyedOnOriginalCountry", func(t *testing.T) {
		c := candidate(7)
		c.Shipment.CountryCode = "FR" // rerouted destination differs
		nonPrefers := []domain.PreferenceRule{
			{AcctNum: "1234", CountryCode: "GB", ServiceID: 51, VendorID: 7},
		}
		out := FilterPreferences([]domain.RouteCandidate{c}, nonPrefers, nil)
		require.Empty(t, out)
	})
}
