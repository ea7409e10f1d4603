package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/xpresspost/rateshop/modules/rating/domain"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QuoteParams identify the quote a batch of rate cards belongs to.
type QuoteParams struct {
	CustName  string
	CustNo    string
	QuoteNum  string
	QuoteDate string
}

// CardGroup is the unit handed to the renderer: one template type with the
// rate rows of every service mapped to it, plus the reference data the card
// needs. ZoneMap and Surcharges may be empty; the renderer must still
// produce a well-formed card.
type CardGroup struct {
	TemplateType string
	Services     []int
	Rates        []domain.ActiveRate
	ZoneMap      []domain.SellZone
	Surcharges   []domain.Surcharge
	Params       QuoteParams
}

// ServiceRef ties a rendered service back to the quote line that requested
// it.
type ServiceRef struct {
	Service int    `json:"service"`
	QuoteID string `json:"quoteId,omitempty"`
}

// RenderResult is the per-group contract: exactly one result per group, with
// either content or an error message. One group's failure never suppresses
// the others.
type RenderResult struct {
	Type         string       `json:"type"`
	Filename     string       `json:"filename"`
	MimeType     string       `json:"mimetype"`
	Services     []ServiceRef `json:"services"`
	Success      bool         `json:"success"`
	Content      string       `json:"content,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// CardRenderer turns one group into encoded workbook content.
type CardRenderer interface {
	RenderCard(ctx context.Context, group CardGroup) (string, error)
}

// CardMaps is the immutable template wiring: which template type each
// service renders on. Services absent from the map produce no card.
type CardMaps struct {
	ServiceTemplate map[int]string
	ServiceNames    map[int]string
}

func DefaultCardMaps() CardMaps {
	serviceTemplate := map[int]string{
		71:  "ePacket",
		19:  "IPA",
		33:  "Courier",
		51:  "PMI",
		52:  "EMI",
		113: "PMIST",
		114: "EMIST",
	}
	for _, svc := range []int{102, 105, 106, 107, 108, 109, 110, 111, 112} {
		serviceTemplate[svc] = "Parcel"
	}
	return CardMaps{
		ServiceTemplate: serviceTemplate,
		ServiceNames: map[int]string{
			19:  "IPA",
			33:  "Courier",
			51:  "PMI",
			52:  "EMI",
			71:  "ePacket",
			102: "Parcel Post",
			105: "Parcel Standard",
			106: "Parcel Expedited",
			107: "Parcel Select Light",
			108: "Parcel Priority Light",
			117: "Parcel Economy",
		},
	}
}

// BuildCardGroups partitions rate rows by template type, attaching each
// group's zone map and surcharges. Ordering follows first appearance of a
// template in the rate rows so output is stable for a given input.
func BuildCardGroups(rates []domain.ActiveRate, maps CardMaps,
	zones []domain.SellZone, surcharges []domain.Surcharge, params QuoteParams) []CardGroup {

	byTemplate := make(map[string]*CardGroup)
	var order []string
	for _, rate := range rates {
		template, ok := maps.ServiceTemplate[rate.Service]
		if !ok {
			continue
		}
		group, exists := byTemplate[template]
		if !exists {
			group = &CardGroup{TemplateType: template, Params: params}
			byTemplate[template] = group
			order = append(order, template)
		}
		if !containsInt(group.Services, rate.Service) {
			group.Services = append(group.Services, rate.Service)
		}
		group.Rates = append(group.Rates, rate)
	}

	out := make([]CardGroup, 0, len(order))
	for _, template := range order {
		group := byTemplate[template]
		for _, svc := range group.Services {
			for _, z := range zones {
				if z.Service == svc {
					group.ZoneMap = append(group.ZoneMap, z)
				}
			}
			for _, s := range surcharges {
				if s.Service == svc {
					group.Surcharges = append(group.Surcharges, s)
				}
			}
		}
		out = append(out, *group)
	}
	return out
}

// RenderCards produces one result per group, isolating failures: a group
// whose render fails is reported as unsuccessful with its error message and
// the batch continues.
func RenderCards(ctx context.Context, renderer CardRenderer, groups []CardGroup, quoteIDs map[int]string) []RenderResult {
	results := make([]RenderResult, 0, len(groups))
	for _, group := range groups {
		result := RenderResult{
			Type:     group.TemplateType,
			Filename: cardFilename(group),
			MimeType: xlsxMimeType,
		}
		for _, svc := range group.Services {
			result.Services = append(result.Services, ServiceRef{Service: svc, QuoteID: quoteIDs[svc]})
		}
		content, err := renderer.RenderCard(ctx, group)
		if err != nil {
			result.ErrorMessage = err.Error()
		} else {
			result.Success = true
			result.Content = content
		}
		results = append(results, result)
	}
	return results
}

func cardFilename(group CardGroup) string {
	safeName := strings.NewReplacer("/", "", ":", "").Replace(group.Params.CustName)
	return fmt.Sprintf("%s %s (%s).xlsx", group.TemplateType, safeName, group.Params.QuoteNum)
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
