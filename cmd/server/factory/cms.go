package factory

import (
	"errors"
	"log/slog"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/prismic"
	"github.com/spacetraveling/blog/pkg/config"
)

// NewCMSClient creates the Prismic API client.
func NewCMSClient(cfg *config.Config) (domain.CMSClient, error) {
	if cfg.PrismicEndpoint == "" {
		return nil, errors.New("prismic endpoint not configured")
	}
	if cfg.CMSTimeout <= 0 {
		return nil, errors.New("cms timeout must be positive")
	}

	client, err := prismic.NewClient(cfg.PrismicEndpoint, cfg.PrismicAccessToken, cfg.CMSTimeout)
	if err != nil {
		return nil, err
	}
	slog.Info("Registered CMS client", "endpoint", cfg.PrismicEndpoint, "authenticated", cfg.PrismicAccessToken != "")
	return client, nil
}
