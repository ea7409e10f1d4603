package services

import (
	"sort"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

// PcLbRate is one rate tier in the CRM-facing piece/pound payload. Field
// names follow the consumer's custom-field naming.
type PcLbRate struct {
	Country    string  `json:"Country__c"`
	MailFormat string  `json:"Mail_Format__c"`
	MailType   string  `json:"Mail_Type__c"`
	MaxOz      float64 `json:"Max_Oz__c"`
	MinOz      float64 `json:"Min_Oz__c"`
	MinPieces  int     `json:"Min_Pieces__c"`
	PerLb      float64 `json:"Per_Lb__c"`
	PerPc      float64 `json:"Per_Pc__c"`
}

// ServicePcLbRates groups a service's revised tiers for the response
// payload.
type ServicePcLbRates struct {
	Service int        `json:"service"`
	QuoteID string     `json:"quoteId,omitempty"`
	Rates   []PcLbRate `json:"rates"`
}

// FormatPcLb converts active rate tiers into the piece/pound payload, with
// tier bounds expressed in ounces.
func FormatPcLb(rates []domain.ActiveRate) []PcLbRate {
	out := make([]PcLbRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, PcLbRate{
			Country:    r.CountryCode,
			MailFormat: r.MailFormat,
			MailType:   r.MailType,
			MaxOz:      r.PcWtMax * 16,
			MinOz:      r.PcWtMin * 16,
			MinPieces:  0,
			PerLb:      r.WtRate,
			PerPc:      r.PcRate,
		})
	}
	return out
}

// GroupPcLbByService splits rate rows by service, ordered by service id.
func GroupPcLbByService(rates []domain.ActiveRate, quoteIDs map[int]string) []ServicePcLbRates {
	byService := make(map[int][]domain.ActiveRate)
	for _, r := range rates {
		byService[r.Service] = append(byService[r.Service], r)
	}
	services := make([]int, 0, len(byService))
	for svc := range byService {
		services = append(services, svc)
	}
	sort.Ints(services)

	out := make([]ServicePcLbRates, 0, len(services))
	for _, svc := range services {
		out = append(out, ServicePcLbRates{
			Service: svc,
			QuoteID: quoteIDs[svc],
			Rates:   FormatPcLb(byService[svc]),
		})
	}
	return out
}
