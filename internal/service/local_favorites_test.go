package service

import (
	"testing"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/memory"
)

func TestLocalFavoritesLoadMissingIsEmpty(t *testing.T) {
	local := NewLocalFavorites(memory.NewStorage(), "")
	if got := local.Load(); got.Len() != 0 {
		t.Fatalf("expected empty set, got %v", got.IDs())
	}
}

func TestLocalFavoritesLoadCorruptIsEmpty(t *testing.T) {
	for _, raw := range []string{"not json", "{\"a\":1}", "[1, \"two\"]", "", "null"} {
		storage := memory.NewStorage()
		if err := storage.SetItem(LocalFavoritesKey, raw); err != nil {
			t.Fatalf("SetItem returned error: %v", err)
		}
		got := NewLocalFavorites(storage, "").Load()
		if got.Len() != 0 {
			t.Fatalf("payload %q: expected empty set, got %v", raw, got.IDs())
		}
	}
}

func TestLocalFavoritesLoadDedupesAndDropsInvalid(t *testing.T) {
	storage := memory.NewStorage()
	if err := storage.SetItem(LocalFavoritesKey, "[4, 0, 4, -2, 9]"); err != nil {
		t.Fatalf("SetItem returned error: %v", err)
	}
	got := NewLocalFavorites(storage, "").Load().IDs()
	if len(got) != 2 || got[0] != 4 || got[1] != 9 {
		t.Fatalf("expected [4 9], got %v", got)
	}
}

func TestLocalFavoritesLoadStorageErrorIsEmpty(t *testing.T) {
	storage := memory.NewStorage()
	_ = storage.SetItem(LocalFavoritesKey, "[1]")
	storage.Disable()

	if got := NewLocalFavorites(storage, "").Load(); got.Len() != 0 {
		t.Fatalf("expected empty set when storage is disabled, got %v", got.IDs())
	}
}

func TestLocalFavoritesSaveAndClear(t *testing.T) {
	storage := memory.NewStorage()
	local := NewLocalFavorites(storage, "custom.favorites")

	local.Save(domain.NewFavoriteSet(42, 7))
	value, ok, _ := storage.GetItem("custom.favorites")
	if !ok || value != "[42,7]" {
		t.Fatalf("expected [42,7] under the custom key, got %q ok=%v", value, ok)
	}

	local.Clear()
	if _, ok, _ := storage.GetItem("custom.favorites"); ok {
		t.Fatalf("expected entry to be removed")
	}
}

func TestLocalFavoritesSaveEmptySetWritesEmptyArray(t *testing.T) {
	storage := memory.NewStorage()
	NewLocalFavorites(storage, "").Save(domain.NewFavoriteSet())
	value, _, _ := storage.GetItem(LocalFavoritesKey)
	if value != "[]" {
		t.Fatalf("expected [], got %q", value)
	}
}

func TestLocalFavoritesSwallowsStorageFailures(t *testing.T) {
	storage := memory.NewStorage(memory.WithQuota(1))
	local := NewLocalFavorites(storage, "")

	local.Save(domain.NewFavoriteSet(1, 2, 3))
	storage.Disable()
	local.Clear()
	local.Save(domain.NewFavoriteSet(4))
}
