package server

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/modules/rating/infrastructure/persistence"
	"github.com/xpresspost/rateshop/modules/rating/infrastructure/ratecard"
	"github.com/xpresspost/rateshop/modules/rating/presentation/controllers"
	"github.com/xpresspost/rateshop/modules/rating/services"
	"github.com/xpresspost/rateshop/pkg/composables"
	"github.com/xpresspost/rateshop/pkg/configuration"
	"github.com/xpresspost/rateshop/pkg/constants"
	"github.com/xpresspost/rateshop/pkg/eventbus"
	"github.com/xpresspost/rateshop/pkg/middleware"
	"github.com/xpresspost/rateshop/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
}

// Default assembles the production server: repositories over the shared pool,
// the quote service with its bounded engine gate, the audit subscriber and
// the HTTP surface.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	cfg := options.Configuration
	log := options.Logger

	bus := eventbus.NewEventPublisher(log)
	maps := services.DefaultCardMaps()

	quoteService := services.NewQuoteService(
		persistence.NewReferenceRepository(),
		persistence.NewRateRepository(),
		ratecard.NewExcelRenderer(maps),
		bus,
		domain.DefaultPipelineConfig(),
		maps,
		cfg.Engine.MaxConcurrentQueries,
		log,
	)

	persistence.RegisterAuditSubscriber(
		composables.WithPool(context.Background(), options.Pool),
		bus,
		persistence.NewAuditRepository(),
		log,
	)

	return &server.HTTPServer{
		Controllers: []server.Controller{
			controllers.NewQuoteController(quoteService, "/rating", log),
		},
		Middlewares: []mux.MiddlewareFunc{
			middleware.WithLogger(log),
			middleware.Provide(constants.PoolKey, options.Pool),
		},
	}, nil
}
