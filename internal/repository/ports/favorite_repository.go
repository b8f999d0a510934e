package ports

import (
	"context"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
)

// RemoteFavorites is the authenticated favorites API. Every call carries the
// caller's access token.
type RemoteFavorites interface {
	List(ctx context.Context, token string) ([]domain.Favorite, error)
	Add(ctx context.Context, token string, tourID domain.TourID) error
	Remove(ctx context.Context, token string, tourID domain.TourID) error
	// Sync merges tourIDs into the remote set. Ids already present remotely
	// are not duplicated.
	Sync(ctx context.Context, token string, tourIDs []domain.TourID) error
}
