package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/modules/rating/infrastructure/persistence"
	"github.com/xpresspost/rateshop/modules/rating/infrastructure/ratecard"
	"github.com/xpresspost/rateshop/modules/rating/services"
	"github.com/xpresspost/rateshop/pkg/composables"
	"github.com/xpresspost/rateshop/pkg/configuration"
	"github.com/xpresspost/rateshop/pkg/eventbus"
)

// NewRatingCommands creates the operational commands that run pipeline work
// directly against the database, outside the HTTP server.
func NewRatingCommands() []*cobra.Command {
	return []*cobra.Command{
		newValidateSchemaCmd(),
		newQuoteCmd(),
		newIncreaseCmd(),
	}
}

func newValidateSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate_schema",
		Short: "Check that every reference and rate table has the expected columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := persistence.NewReferenceRepository().ValidateSchema(ctx); err != nil {
				return err
			}
			if err := persistence.NewRateRepository().ValidateSchema(ctx); err != nil {
				return err
			}
			fmt.Println("all tables match the expected schema")
			return nil
		},
	}
}

func newQuoteCmd() *cobra.Command {
	var (
		custno   string
		custName string
		quoteNum string
		office   string
		svcIDs   []int
		margin   float64
		pickup   float64
		output   string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a fresh rate grid and write the rendered cards as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			resp, err := quoteService(pool).NewQuote(ctx, services.NewQuoteRequest{
				Params: services.QuoteParams{
					CustName:  custName,
					CustNo:    custno,
					QuoteNum:  quoteNum,
					QuoteDate: time.Now().Format("2006-01-02"),
				},
				Services: svcIDs,
				Office:   office,
				Margin:   margin,
				Pickup:   pickup,
			})
			if err != nil {
				return err
			}
			return writeJSON(output, resp)
		},
	}
	cmd.Flags().StringVar(&custno, "custno", "0", "customer account number")
	cmd.Flags().StringVar(&custName, "cust-name", "", "customer display name")
	cmd.Flags().StringVar(&quoteNum, "quote-num", "", "quote number")
	cmd.Flags().StringVar(&office, "office", configuration.Use().DefaultOffice, "originating office")
	cmd.Flags().IntSliceVar(&svcIDs, "services", nil, "service ids to quote")
	cmd.Flags().Float64Var(&margin, "margin", 0, "gross-up margin, e.g. 0.35")
	cmd.Flags().Float64Var(&pickup, "pickup", 0, "per-pound pickup fee")
	cmd.Flags().StringVar(&output, "output", "", "output file; stdout when empty")
	return cmd
}

func newIncreaseCmd() *cobra.Command {
	var (
		input  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "increase",
		Short: "Run a rate increase request from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			var req increaseFileRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return err
			}
			increases := make([]domain.IncreaseRequest, 0, len(req.Increases))
			for _, inc := range req.Increases {
				increases = append(increases, domain.IncreaseRequest{
					Service:     inc.Service,
					Percentage:  inc.Percentage,
					Margin:      inc.Margin,
					Pickup:      inc.Pickup,
					QuoteID:     inc.QuoteID,
					Passthrough: inc.Passthrough,
				})
			}

			ctx, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			resp, err := quoteService(pool).Increase(ctx, services.IncreaseRunRequest{
				Params: services.QuoteParams{
					CustName: req.CustName,
					CustNo:   req.CustNo,
					QuoteNum: req.QuoteNum,
				},
				Increases: increases,
				Save:      req.Save,
			})
			if err != nil {
				return err
			}
			return writeJSON(output, resp)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "request JSON file")
	cmd.Flags().StringVar(&output, "output", "", "output file; stdout when empty")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type increaseFileRequest struct {
	CustName  string `json:"custName"`
	CustNo    string `json:"custno"`
	QuoteNum  string `json:"quoteNum"`
	Increases []struct {
		Service     int     `json:"service"`
		Percentage  float64 `json:"percentage"`
		Margin      float64 `json:"margin"`
		Pickup      float64 `json:"pickup"`
		QuoteID     string  `json:"quoteId"`
		Passthrough bool    `json:"passthrough"`
	} `json:"increases"`
	Save bool `json:"save"`
}

func connect(ctx context.Context) (context.Context, *pgxpool.Pool, error) {
	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, err
	}
	return composables.WithPool(ctx, pool), pool, nil
}

func quoteService(pool *pgxpool.Pool) *services.QuoteService {
	conf := configuration.Use()
	log := conf.Logger()
	maps := services.DefaultCardMaps()
	bus := eventbus.NewEventPublisher(log)
	persistence.RegisterAuditSubscriber(
		composables.WithPool(context.Background(), pool),
		bus,
		persistence.NewAuditRepository(),
		log,
	)
	return services.NewQuoteService(
		persistence.NewReferenceRepository(),
		persistence.NewRateRepository(),
		ratecard.NewExcelRenderer(maps),
		bus,
		domain.DefaultPipelineConfig(),
		maps,
		conf.Engine.MaxConcurrentQueries,
		log,
	)
}

func writeJSON(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(path, out, 0o644)
}
