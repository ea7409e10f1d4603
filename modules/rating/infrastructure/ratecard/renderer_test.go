package ratecard

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/modules/rating/services"
)

func TestExcelRendererRenderCard(t *testing.T) {
	renderer := NewExcelRenderer(services.DefaultCardMaps())
	group := services.CardGroup{
		TemplateType: "ePacket",
		Services:     []int{71},
		Rates: []domain.ActiveRate{
			{CountryCode: "GB", MailFormat: "PACK", MailType: "PR",
				PcWtMin: 0, PcWtMax: 4.4, PcRate: 1.78, WtRate: 5.00, Service: 71},
		},
		ZoneMap: []domain.SellZone{{Service: 71, CountryCode: "GB", Zone: "Z1"}},
		Params:  services.QuoteParams{CustName: "Acme", CustNo: "1234", QuoteNum: "Q-1", QuoteDate: "2026-04-01"},
	}

	content, err := renderer.RenderCard(context.Background(), group)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(content)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"ePacket"}, f.GetSheetList())

	name, err := f.GetCellValue("ePacket", "B1")
	require.NoError(t, err)
	require.Equal(t, "Acme", name)

	svc, err := f.GetCellValue("ePacket", "A5")
	require.NoError(t, err)
	require.Equal(t, "ePacket", svc)

	country, err := f.GetCellValue("ePacket", "A7")
	require.NoError(t, err)
	require.Equal(t, "GB", country)
}

func TestExcelRendererHonorsCancellation(t *testing.T) {
	renderer := NewExcelRenderer(services.DefaultCardMaps())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.RenderCard(ctx, services.CardGroup{TemplateType: "PMI"})
	require.ErrorIs(t, err, context.Canceled)
}
