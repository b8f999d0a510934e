package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/njprem/umrah_marketplace_client/internal/apitest"
	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/api"
	"github.com/njprem/umrah_marketplace_client/internal/repository/memory"
)

func newAPISynchronizer(t *testing.T) (*FavoriteSynchronizer, *apitest.Server, *memory.Storage) {
	t.Helper()
	server := apitest.NewServer(t)
	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	storage := memory.NewStorage()
	return NewFavoriteSynchronizer(NewLocalFavorites(storage, ""), client, nil), server, storage
}

func TestScenarioAnonymousAdd(t *testing.T) {
	favs, server, storage := newAPISynchronizer(t)

	if err := favs.Add(context.Background(), 42); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !favs.IsFavorite(42) {
		t.Fatalf("expected 42 to be a favorite")
	}
	value, _, _ := storage.GetItem(LocalFavoritesKey)
	if value != "[42]" {
		t.Fatalf("expected stored [42], got %q", value)
	}
	if server.TotalCalls() != 0 {
		t.Fatalf("expected no API calls while anonymous, got %d", server.TotalCalls())
	}
}

func TestScenarioLoginMigratesWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	favs, server, storage := newAPISynchronizer(t)
	if err := storage.SetItem(LocalFavoritesKey, "[42,7]"); err != nil {
		t.Fatalf("SetItem returned error: %v", err)
	}
	if err := favs.Reload(ctx); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	userID := uuid.New()
	server.Seed(userID, 7)

	if err := favs.HandleIdentity(ctx, server.Identity(userID)); err != nil {
		t.Fatalf("HandleIdentity returned error: %v", err)
	}

	remote := server.Favorites(userID)
	if len(remote) != 2 {
		t.Fatalf("expected remote {7, 42}, got %v", remote)
	}
	if !favs.IsFavorite(7) || !favs.IsFavorite(42) || favs.Count() != 2 {
		t.Fatalf("expected mirror {7, 42}, got %v", favs.List())
	}
	if _, ok, _ := storage.GetItem(LocalFavoritesKey); ok {
		t.Fatalf("expected local storage entry to be removed")
	}
	if syncs := server.SyncRequests(); len(syncs) != 1 || len(syncs[0]) != 2 {
		t.Fatalf("expected one bulk sync carrying both ids, got %v", syncs)
	}
}

func TestScenarioRemoveFailureKeepsFavorite(t *testing.T) {
	ctx := context.Background()
	favs, server, _ := newAPISynchronizer(t)
	userID := uuid.New()
	server.Seed(userID, 9)
	if err := favs.HandleIdentity(ctx, server.Identity(userID)); err != nil {
		t.Fatalf("HandleIdentity returned error: %v", err)
	}

	server.Fail(apitest.RouteRemove, http.StatusBadGateway)
	err := favs.Remove(ctx, 9)
	if !errors.Is(err, api.ErrRemoteFailure) {
		t.Fatalf("expected ErrRemoteFailure, got %v", err)
	}
	if !favs.IsFavorite(9) {
		t.Fatalf("expected 9 to remain a favorite after a failed remove")
	}
}

func TestScenarioToggleAddsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	favs, server, _ := newAPISynchronizer(t)
	userID := uuid.New()
	if err := favs.HandleIdentity(ctx, server.Identity(userID)); err != nil {
		t.Fatalf("HandleIdentity returned error: %v", err)
	}

	on, err := favs.Toggle(ctx, 3)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !on || !favs.IsFavorite(3) {
		t.Fatalf("expected 3 to become a favorite")
	}
	if remote := server.Favorites(userID); len(remote) != 1 || remote[0] != domain.TourID(3) {
		t.Fatalf("expected remote [3], got %v", remote)
	}
}

func TestScenarioMigrationRetryAfterSyncFailure(t *testing.T) {
	ctx := context.Background()
	favs, server, storage := newAPISynchronizer(t)
	local := NewLocalFavorites(storage, "")
	local.Save(domain.NewFavoriteSet(1, 2, 3))
	if err := favs.Reload(ctx); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	userID := uuid.New()

	server.Fail(apitest.RouteSync, http.StatusServiceUnavailable)
	if err := favs.HandleIdentity(ctx, server.Identity(userID)); !errors.Is(err, api.ErrRemoteFailure) {
		t.Fatalf("expected migration error, got %v", err)
	}
	if got := local.Load().IDs(); len(got) != 3 {
		t.Fatalf("expected local {1,2,3} to be kept, got %v", got)
	}

	server.Recover(apitest.RouteSync)
	if err := favs.HandleIdentity(ctx, nil); err != nil {
		t.Fatalf("sign-out returned error: %v", err)
	}
	if err := favs.HandleIdentity(ctx, server.Identity(userID)); err != nil {
		t.Fatalf("retry returned error: %v", err)
	}

	remote := server.Favorites(userID)
	if len(remote) != 3 {
		t.Fatalf("expected remote {1,2,3} without duplicates, got %v", remote)
	}
	if local.Load().Len() != 0 {
		t.Fatalf("expected local cache to be empty after migration")
	}
}

func TestScenarioMalformedListIsRemoteFailure(t *testing.T) {
	ctx := context.Background()
	favs, server, _ := newAPISynchronizer(t)
	server.RespondRaw(apitest.RouteList, `{"items":[{"tour_id":"abc"}]}`)

	err := favs.HandleIdentity(ctx, server.Identity(uuid.New()))
	if !errors.Is(err, api.ErrMalformedResponse) || !errors.Is(err, api.ErrRemoteFailure) {
		t.Fatalf("expected malformed remote failure, got %v", err)
	}
}
