package factory

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spacetraveling/blog/internal/app"
	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/preview"
	"github.com/spacetraveling/blog/internal/infra/queue"
	"github.com/spacetraveling/blog/internal/infra/repository"
	transport "github.com/spacetraveling/blog/internal/transport/http"
	"github.com/spacetraveling/blog/pkg/config"
)

// NewPageStore creates the MongoDB snapshot store.
func NewPageStore(client *mongo.Client, cfg *config.Config) (domain.PageStore, error) {
	if cfg.MongoDBName == "" {
		return nil, errors.New("mongo database name not configured")
	}
	if cfg.MongoColl == "" {
		return nil, errors.New("mongo collection name not configured")
	}
	return repository.NewMongoRepository(client, cfg.MongoDBName, cfg.MongoColl)
}

// NewPreviewStore creates the Redis preview session store.
func NewPreviewStore(client *redis.Client) (domain.PreviewStore, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	return preview.NewRedisStore(client), nil
}

// NewEventProducer wraps the Kafka producer as an EventProducer.
func NewEventProducer(p *queue.KafkaProducer) (domain.EventProducer, error) {
	if p == nil {
		return nil, errors.New("kafka producer is nil")
	}
	return p, nil
}

// NewSiteService creates the page generator with validation.
func NewSiteService(cms domain.CMSClient, store domain.PageStore, cfg *config.Config) (*app.SiteService, error) {
	if cms == nil {
		return nil, errors.New("cms client is nil")
	}
	if store == nil {
		return nil, errors.New("page store is nil")
	}
	if cfg.HomePageSize < 1 || cfg.HomePageSize > 100 {
		return nil, fmt.Errorf("invalid home page size: %d (must be 1-100)", cfg.HomePageSize)
	}
	if cfg.GenerationWorkers <= 0 || cfg.GenerationWorkers > 100 {
		return nil, fmt.Errorf("invalid generation worker count: %d (must be 1-100)", cfg.GenerationWorkers)
	}

	return app.NewSiteService(cms, store, app.SiteConfig{
		HomePageSize:       cfg.HomePageSize,
		RevalidateInterval: cfg.RevalidateInterval,
		Workers:            cfg.GenerationWorkers,
		CommentsRepo:       cfg.Comments.Repo,
		CommentsIssueTerm:  cfg.Comments.IssueTerm,
		CommentsTheme:      cfg.Comments.Theme,
	}), nil
}

// NewRevalidationService creates the webhook driven revalidation service.
func NewRevalidationService(
	producer domain.EventProducer,
	consumer *queue.KafkaConsumer,
	site *app.SiteService,
) (*app.RevalidationService, error) {
	if producer == nil {
		return nil, errors.New("event producer is nil")
	}
	if consumer == nil {
		return nil, errors.New("kafka consumer is nil")
	}
	return app.NewRevalidationService(producer, consumer, site), nil
}

// NewPreviewService creates the preview session service.
func NewPreviewService(store domain.PreviewStore, cms domain.CMSClient, cfg *config.Config) (*app.PreviewService, error) {
	if cfg.PreviewTTL <= 0 {
		return nil, fmt.Errorf("invalid preview ttl: %s", cfg.PreviewTTL)
	}
	return app.NewPreviewService(store, cms, cfg.PreviewTTL), nil
}

// NewHandlers wires the HTTP handlers to the application services.
func NewHandlers(
	site *app.SiteService,
	revalidation *app.RevalidationService,
	previews *app.PreviewService,
	cfg *config.Config,
) *transport.Handlers {
	return transport.NewHandlers(site, revalidation, previews, cfg.WebhookSecret)
}
