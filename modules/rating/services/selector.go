package services

import (
	"sort"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// SelectLowestCost keeps exactly one route per piece: loaded rates outrank
// generic ones, then preferred vendors (only when preference data exists for
// the request), then the lowest dimensional price. Residual ties break on
// the lowest MatrixID so the selection is deterministic regardless of input
// order.
func SelectLowestCost(routes []domain.PricedRoute, preferenceData bool) []domain.PricedRoute {
	byPiece := make(map[int64][]domain.PricedRoute)
	order := make([]int64, 0)
	for _, r := range routes {
		if _, seen := byPiece[r.Shipment.PieceID]; !seen {
			order = append(order, r.Shipment.PieceID)
		}
		byPiece[r.Shipment.PieceID] = append(byPiece[r.Shipment.PieceID], r)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]domain.PricedRoute, 0, len(order))
	for _, pieceID := range order {
		group := byPiece[pieceID]
		sort.Slice(group, func(i, j int) bool {
			return routeBeats(group[i], group[j], preferenceData)
		})
		winner := group[0]
		winner.CostRank = 1
		out = append(out, winner)
	}
	return out
}

func routeBeats(a, b domain.PricedRoute, preferenceData bool) bool {
	if a.IsLoaded != b.IsLoaded {
		return a.IsLoaded
	}
	if preferenceData && a.IsPreferred != b.IsPreferred {
		return a.IsPreferred
	}
	if a.PcRateDim != b.PcRateDim {
		return a.PcRateDim < b.PcRateDim
	}
	return a.MatrixID < b.MatrixID
}
