package service

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

const LocalFavoritesKey = "umrah_marketplace.favorites"

// LocalFavorites is the anonymous-only favorites list kept in durable
// key/value storage. Storage problems never reach the caller: anonymous
// favorites are best-effort.
type LocalFavorites struct {
	storage ports.Storage
	key     string
}

func NewLocalFavorites(storage ports.Storage, key string) *LocalFavorites {
	if strings.TrimSpace(key) == "" {
		key = LocalFavoritesKey
	}
	return &LocalFavorites{storage: storage, key: key}
}

// Load returns the stored set, or an empty set when the entry is missing,
// unreadable or corrupt.
func (l *LocalFavorites) Load() domain.FavoriteSet {
	raw, ok, err := l.storage.GetItem(l.key)
	if err != nil {
		log.Printf("favorites: local load failed: %v", err)
		return domain.NewFavoriteSet()
	}
	if !ok {
		return domain.NewFavoriteSet()
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Printf("favorites: discarding corrupt local entry %q: %v", l.key, err)
		return domain.NewFavoriteSet()
	}

	set := domain.NewFavoriteSet()
	for _, id := range ids {
		if tourID := domain.TourID(id); tourID.Valid() {
			set.Add(tourID)
		}
	}
	return set
}

// Save overwrites the stored entry with set.
func (l *LocalFavorites) Save(set domain.FavoriteSet) {
	ids := set.IDs()
	buf, err := json.Marshal(ids)
	if err != nil {
		log.Printf("favorites: encode local entry: %v", err)
		return
	}
	if err := l.storage.SetItem(l.key, string(buf)); err != nil {
		log.Printf("favorites: local save of %d items not persisted: %v", len(ids), err)
	}
}

func (l *LocalFavorites) Clear() {
	if err := l.storage.RemoveItem(l.key); err != nil {
		log.Printf("favorites: local clear failed: %v", err)
	}
}
