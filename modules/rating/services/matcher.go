package services

import (
	"time"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// weightEpsilon guards the kilogram window comparison against floating point
// boundary misses when a break weight lands exactly on a bound.
const weightEpsilon = 0.0001

// BilledWeight is the weight the vendor bills: actual weight, or the
// dimensional weight when the package volume implies more.
func BilledWeight(s domain.ShipmentRecord, m domain.VendorMatrixRow) float64 {
	dim := s.DimL * s.DimW * s.DimH * m.DimFactor
	if s.Weight < dim {
		return dim
	}
	return s.Weight
}

// MatchMatrixRows joins shipments to every eligible vendor matrix row valid
// on the given date. All predicates are conjunctive; a shipment with no
// satisfying row produces no candidate and surfaces later as "no coverage".
func MatchMatrixRows(shipments []domain.ShipmentRecord, matrix []domain.VendorMatrixRow, today time.Time) []domain.RouteCandidate {
	var candidates []domain.RouteCandidate
	for _, s := range shipments {
		for _, m := range matrix {
			if !m.ActiveOn(today) {
				continue
			}
			billed := BilledWeight(s, m)
			if !rowEligible(s, m, billed) {
				continue
			}
			candidates = append(candidates, domain.RouteCandidate{
				Shipment:      s,
				MatrixID:      m.MatrixID,
				VendorID:      m.VendorID,
				Vendor:        m.Vendor,
				MatrixAcctNum: m.AcctNum,
				KicksIn:       m.KicksIn,
				BilledWeight:  billed,
			})
		}
	}
	return candidates
}

func rowEligible(s domain.ShipmentRecord, m domain.VendorMatrixRow, billed float64) bool {
	if m.Office != s.Office || m.CountryCode != s.CountryCode {
		return false
	}
	if m.AcctNum != s.CustNo && m.AcctNum != domain.AcctAny {
		return false
	}
	if m.ServiceID != s.RoutingService {
		return false
	}
	if m.MailFormat != s.MailFormat && m.MailFormat != domain.FormatAny {
		return false
	}
	if m.MailType != s.MailType &&
		!(m.MailType == domain.MailTypeParcelLegacy && s.MailType == domain.MailTypeParcel) {
		return false
	}

	// Per-piece kilogram test value against the (MinKg, MaxKg] window.
	kg := billed/domain.LbPerKg/float64(s.Pieces) - weightEpsilon
	if !(kg > m.MinKg && kg <= m.MaxKg) {
		return false
	}

	if s.DimL > m.LengthMax || s.DimW > m.WidthMax || s.DimH > m.HeightMax {
		return false
	}
	if s.DimL+2*(s.DimW+s.DimH) > m.LengthGirthAddMax {
		return false
	}
	if s.DimL+s.DimW+s.DimH > m.LWHAddMax {
		return false
	}
	if s.DimL*s.DimW*s.DimH > m.LWHMultiplyMax {
		return false
	}

	if !m.AllowPOBox && s.IsBox {
		return false
	}
	if !m.AllowSuite && s.IsApt {
		return false
	}
	return true
}
