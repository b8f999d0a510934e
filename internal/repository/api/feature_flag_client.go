package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

type featureFlagsResponse struct {
	Flags *[]struct {
		Key     string `json:"key"`
		Enabled *bool  `json:"enabled"`
	} `json:"flags"`
}

func (c *Client) FetchFlags(ctx context.Context) ([]domain.FeatureFlag, error) {
	res, err := c.do(ctx, http.MethodGet, "/api/feature-flags", "", nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, res.apiError()
	}

	var payload featureFlagsResponse
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, malformed("feature flags: %v", err)
	}
	if payload.Flags == nil {
		return nil, malformed("feature flags: missing flags")
	}

	flags := make([]domain.FeatureFlag, 0, len(*payload.Flags))
	for i, raw := range *payload.Flags {
		key := strings.TrimSpace(raw.Key)
		if key == "" {
			return nil, malformed("feature flag %d: missing key", i)
		}
		if raw.Enabled == nil {
			return nil, malformed("feature flag %q: missing enabled", key)
		}
		flags = append(flags, domain.FeatureFlag{Key: key, Enabled: *raw.Enabled})
	}
	return flags, nil
}

var _ ports.FeatureFlagSource = (*Client)(nil)
