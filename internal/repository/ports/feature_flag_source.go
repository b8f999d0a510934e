package ports

import (
	"context"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
)

type FeatureFlagSource interface {
	FetchFlags(ctx context.Context) ([]domain.FeatureFlag, error)
}
