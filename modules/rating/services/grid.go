package services

import (
	"sort"
	"strings"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// GridOptions fixes the request-level attributes shared by every cell of a
// shipment grid.
type GridOptions struct {
	Office     string
	CustNo     string
	MailFormat string
	MailType   string
}

// WeightServiceSet pairs a weight-break ladder with the services rated over
// it. A grid request may carry several sets (ounce ladders for light
// products, pound ladders for heavy ones).
type WeightServiceSet struct {
	Weights  []float64
	Services []int
}

// BuildServiceGrid expands countries x weight breaks for a single service
// into canonical shipment records. Piece ids are assigned in
// (country, weight) order and are unique within the batch.
func BuildServiceGrid(countries []string, weights []float64, service int, opts GridOptions) []domain.ShipmentRecord {
	return BuildMultiWeightGrid(countries, []WeightServiceSet{{Weights: weights, Services: []int{service}}}, nil, opts)
}

// BuildMultiWeightGrid expands countries x weight breaks x services, one
// weight ladder per set, into canonical shipment records. The optional
// products map attaches a product code per service.
func BuildMultiWeightGrid(countries []string, sets []WeightServiceSet, products map[int]string, opts GridOptions) []domain.ShipmentRecord {
	var grid []domain.ShipmentRecord
	for _, set := range sets {
		for _, service := range set.Services {
			for _, country := range countries {
				for _, weight := range set.Weights {
					grid = append(grid, domain.ShipmentRecord{
						CustNo:          opts.CustNo,
						OriginalCountry: country,
						CountryCode:     country,
						OriginalService: service,
						Product:         products[service],
						Office:          opts.Office,
						MailFormat:      opts.MailFormat,
						MailType:        opts.MailType,
						Pieces:          1,
						Weight:          weight,
						InductionPoint:  "XX",
					})
				}
			}
		}
	}

	sort.SliceStable(grid, func(i, j int) bool {
		if grid[i].CountryCode != grid[j].CountryCode {
			return grid[i].CountryCode < grid[j].CountryCode
		}
		if grid[i].OriginalService != grid[j].OriginalService {
			return grid[i].OriginalService < grid[j].OriginalService
		}
		return grid[i].Weight < grid[j].Weight
	})
	for i := range grid {
		grid[i].PieceID = int64(i + 1)
	}
	return grid
}

// ParcelRecord is an externally sourced piece before normalization. The
// combined format field encodes "<type> <format>", e.g. "PB FLAT".
type ParcelRecord struct {
	PieceID        int64
	CustNo         string
	CountryCode    string
	Service        int
	Office         string
	CombinedFormat string
	Pieces         int
	Weight         float64
	DimL           float64
	DimW           float64
	DimH           float64
	IsApt          bool
	IsBox          bool
}

// NormalizeParcels converts externally sourced parcel rows into the same
// schema grid cells use, splitting the combined mail format field.
func NormalizeParcels(parcels []ParcelRecord) []domain.ShipmentRecord {
	out := make([]domain.ShipmentRecord, 0, len(parcels))
	for _, p := range parcels {
		mailType, mailFormat := splitCombinedFormat(p.CombinedFormat)
		pieces := p.Pieces
		if pieces == 0 {
			pieces = 1
		}
		out = append(out, domain.ShipmentRecord{
			PieceID:         p.PieceID,
			CustNo:          p.CustNo,
			OriginalCountry: p.CountryCode,
			CountryCode:     p.CountryCode,
			OriginalService: p.Service,
			Office:          p.Office,
			MailFormat:      mailFormat,
			MailType:        mailType,
			Pieces:          pieces,
			Weight:          p.Weight,
			DimL:            p.DimL,
			DimW:            p.DimW,
			DimH:            p.DimH,
			IsApt:           p.IsApt,
			IsBox:           p.IsBox,
			InductionPoint:  "XX",
		})
	}
	return out
}

func splitCombinedFormat(combined string) (mailType, mailFormat string) {
	combined = strings.TrimSpace(combined)
	if len(combined) < 2 {
		return combined, ""
	}
	mailType = combined[:2]
	if len(combined) > 3 {
		mailFormat = combined[3:]
	}
	return mailType, mailFormat
}
