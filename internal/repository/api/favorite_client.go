package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

const favoritesPath = "/api/favorites"

type favoriteEntry struct {
	TourID    *int64     `json:"tour_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type favoriteListEnvelope struct {
	Items     *[]favoriteEntry `json:"items"`
	Favorites *[]favoriteEntry `json:"favorites"`
}

type addFavoriteRequest struct {
	TourID domain.TourID `json:"tour_id"`
}

type syncFavoritesRequest struct {
	TourIDs []domain.TourID `json:"tour_ids"`
}

func (c *Client) List(ctx context.Context, token string) ([]domain.Favorite, error) {
	res, err := c.do(ctx, http.MethodGet, favoritesPath, token, nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, res.apiError()
	}
	return decodeFavoriteList(res.body)
}

// Add saves tourID. A 409 answer means the tour is already saved and counts as success.
func (c *Client) Add(ctx context.Context, token string, tourID domain.TourID) error {
	res, err := c.do(ctx, http.MethodPost, favoritesPath, token, addFavoriteRequest{TourID: tourID})
	if err != nil {
		return err
	}
	if res.ok() || res.status == http.StatusConflict {
		return nil
	}
	return res.apiError()
}

// Remove deletes tourID. A 404 answer means it was not saved and counts as success.
func (c *Client) Remove(ctx context.Context, token string, tourID domain.TourID) error {
	path := favoritesPath + "/" + strconv.FormatInt(int64(tourID), 10)
	res, err := c.do(ctx, http.MethodDelete, path, token, nil)
	if err != nil {
		return err
	}
	if res.ok() || res.status == http.StatusNotFound {
		return nil
	}
	return res.apiError()
}

func (c *Client) Sync(ctx context.Context, token string, tourIDs []domain.TourID) error {
	if len(tourIDs) == 0 {
		return nil
	}
	res, err := c.do(ctx, http.MethodPost, favoritesPath+"/sync", token, syncFavoritesRequest{TourIDs: tourIDs})
	if err != nil {
		return err
	}
	if !res.ok() {
		return res.apiError()
	}
	return nil
}

// decodeFavoriteList accepts a bare array or an {"items": [...]} envelope.
func decodeFavoriteList(body []byte) ([]domain.Favorite, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, malformed("empty favorites body")
	}

	var entries []favoriteEntry
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, malformed("favorites list: %v", err)
		}
	case '{':
		var envelope favoriteListEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, malformed("favorites envelope: %v", err)
		}
		switch {
		case envelope.Items != nil:
			entries = *envelope.Items
		case envelope.Favorites != nil:
			entries = *envelope.Favorites
		default:
			return nil, malformed("favorites envelope has no items")
		}
	default:
		return nil, malformed("unexpected favorites payload")
	}

	out := make([]domain.Favorite, 0, len(entries))
	for i, entry := range entries {
		if entry.TourID == nil {
			return nil, malformed("favorite %d: missing tour_id", i)
		}
		id := domain.TourID(*entry.TourID)
		if !id.Valid() {
			return nil, malformed("favorite %d: invalid tour_id %d", i, id)
		}
		out = append(out, domain.Favorite{TourID: id, CreatedAt: entry.CreatedAt})
	}
	return out, nil
}

var _ ports.RemoteFavorites = (*Client)(nil)
