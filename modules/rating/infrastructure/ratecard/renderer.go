package ratecard

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/modules/rating/services"
)

// ExcelRenderer builds customer-facing rate card workbooks. One workbook per
// card group, returned base64 encoded for the JSON response.
type ExcelRenderer struct {
	maps services.CardMaps
}

func NewExcelRenderer(maps services.CardMaps) *ExcelRenderer {
	return &ExcelRenderer{maps: maps}
}

func (r *ExcelRenderer) RenderCard(ctx context.Context, group services.CardGroup) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, group.TemplateType); err != nil {
		return "", err
	}
	sheet = group.TemplateType

	if err := r.writeHeader(f, sheet, group); err != nil {
		return "", err
	}

	row := 5
	for _, svc := range group.Services {
		var err error
		row, err = r.writeServiceBlock(f, sheet, group, svc, row)
		if err != nil {
			return "", err
		}
	}
	if len(group.ZoneMap) > 0 {
		var err error
		row, err = r.writeZoneMap(f, sheet, group.ZoneMap, row+1)
		if err != nil {
			return "", err
		}
	}
	if len(group.Surcharges) > 0 {
		if _, err := r.writeSurcharges(f, sheet, group.Surcharges, row+1); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (r *ExcelRenderer) writeHeader(f *excelize.File, sheet string, group services.CardGroup) error {
	header := [][]any{
		{"Customer", group.Params.CustName, "", "Account", group.Params.CustNo},
		{"Quote", group.Params.QuoteNum, "", "Date", group.Params.QuoteDate},
	}
	for i, cells := range header {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", "A2", style)
}

func (r *ExcelRenderer) writeServiceBlock(f *excelize.File, sheet string, group services.CardGroup, svc, row int) (int, error) {
	name := r.maps.ServiceNames[svc]
	if name == "" {
		name = fmt.Sprintf("Service %d", svc)
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{name}); err != nil {
		return row, err
	}
	row++

	columns := []any{"Country", "Format", "Type", "Min Lb", "Max Lb", "Per Pc", "Per Lb"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &columns); err != nil {
		return row, err
	}
	row++

	for _, rate := range group.Rates {
		if rate.Service != svc {
			continue
		}
		cells := []any{
			rate.CountryCode, rate.MailFormat, rate.MailType,
			rate.PcWtMin, rate.PcWtMax, rate.PcRate, rate.WtRate,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return row, err
		}
		row++
	}
	return row + 1, nil
}

func (r *ExcelRenderer) writeZoneMap(f *excelize.File, sheet string, zones []domain.SellZone, row int) (int, error) {
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{"Zone Map"}); err != nil {
		return row, err
	}
	row++
	for _, z := range zones {
		cells := []any{z.CountryCode, z.Zone}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}

func (r *ExcelRenderer) writeSurcharges(f *excelize.File, sheet string, surcharges []domain.Surcharge, row int) (int, error) {
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{"Surcharges"}); err != nil {
		return row, err
	}
	row++
	for _, s := range surcharges {
		cells := []any{s.CountryCode, s.Product, s.SurchargePc, s.SurchargeLb}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return row, err
		}
		row++
	}
	return row, nil
}
