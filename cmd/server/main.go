package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/spacetraveling/blog/cmd/server/factory"
	"github.com/spacetraveling/blog/internal/app"
	"github.com/spacetraveling/blog/internal/infra/tracing"
	transport "github.com/spacetraveling/blog/internal/transport/http"
	"github.com/spacetraveling/blog/pkg/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Infrastructure
			factory.NewMongoClient,
			factory.NewRedisClient,
			factory.NewPageStore,
			factory.NewPreviewStore,
			fx.Annotate(
				factory.NewMainKafkaProducer,
				fx.ResultTags(`name:"main_producer"`),
			),
			fx.Annotate(
				factory.NewDLQProducer,
				fx.ResultTags(`name:"dlq_producer"`),
			),
			fx.Annotate(
				factory.NewKafkaConsumer,
				fx.ParamTags(``, `name:"dlq_producer"`, ``),
			),
			fx.Annotate(
				factory.NewEventProducer,
				fx.ParamTags(`name:"main_producer"`),
			),

			// CMS
			factory.NewCMSClient,

			// Services
			factory.NewSiteService,
			factory.NewRevalidationService,
			factory.NewPreviewService,

			// HTTP Server
			factory.NewHandlers,
			transport.NewHTTPServer,
		),
		fx.Invoke(
			SetupTracer,
			WaitForReady, // Block until dependencies are ready
			RegisterHooks,
			StartServer,
		),
	).Run()
}

// --- Invokers ---

func RegisterHooks(lc fx.Lifecycle, site *app.SiteService, revalidation *app.RevalidationService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go site.Start(ctx)
			revalidation.Start(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}

func SetupTracer(lc fx.Lifecycle, cfg *config.Config) error {
	ctx := context.Background()
	shutdown, err := tracing.InitTracer(ctx, "spacetraveling-blog")
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Info("Shutting down tracer provider")
			return shutdown(ctx)
		},
	})
	slog.Info("Tracer initialized", "site", cfg.SiteName)
	return nil
}

// WaitForReady blocks until all dependencies are ready.
func WaitForReady(
	cfg *config.Config,
	mongoClient *mongo.Client,
	redisClient *redis.Client,
) error {
	ctx := context.Background()
	waiter := app.NewReadinessWaiter(
		mongoClient,
		redisClient,
		cfg.KafkaBrokers,
		cfg.KafkaTopic,
	)
	return waiter.WaitForDependencies(ctx)
}

func StartServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				slog.Info("Starting HTTP server", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
