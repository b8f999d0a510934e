package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ghodss/yaml"

	"github.com/njprem/umrah_marketplace_client/internal/cache"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

const flagsSnapshotKey = "flags"

type FlagCache = cache.Cache[string, map[string]bool]

// FeatureFlagService answers feature flag lookups from an injected cache,
// filled from the remote flag source. Overrides always win.
type FeatureFlagService struct {
	source    ports.FeatureFlagSource
	cache     *FlagCache
	overrides map[string]bool
}

func NewFeatureFlagService(source ports.FeatureFlagSource, flagCache *FlagCache, overrides map[string]bool) *FeatureFlagService {
	copied := make(map[string]bool, len(overrides))
	for k, v := range overrides {
		copied[k] = v
	}
	return &FeatureFlagService{
		source:    source,
		cache:     flagCache,
		overrides: copied,
	}
}

// LoadFlagOverrides reads a YAML file of the form:
//
//	flags:
//	  ai_chat: true
func LoadFlagOverrides(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Flags map[string]bool `json:"flags"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feature flags %s: %w", path, err)
	}
	if doc.Flags == nil {
		doc.Flags = map[string]bool{}
	}
	return doc.Flags, nil
}

// Enabled reports whether key is on. Unknown flags and unreachable sources
// read as off.
func (s *FeatureFlagService) Enabled(ctx context.Context, key string) bool {
	if v, ok := s.overrides[key]; ok {
		return v
	}
	return s.snapshot(ctx)[key]
}

// All returns the merged view of remote flags and overrides.
func (s *FeatureFlagService) All(ctx context.Context) map[string]bool {
	out := make(map[string]bool)
	for k, v := range s.snapshot(ctx) {
		out[k] = v
	}
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Refresh fetches the remote flags and replaces the cached snapshot. On error
// the previous snapshot is kept.
func (s *FeatureFlagService) Refresh(ctx context.Context) error {
	flags, err := s.source.FetchFlags(ctx)
	if err != nil {
		return fmt.Errorf("fetch feature flags: %w", err)
	}
	snapshot := make(map[string]bool, len(flags))
	for _, f := range flags {
		snapshot[f.Key] = f.Enabled
	}
	s.cache.Set(flagsSnapshotKey, snapshot)
	return nil
}

func (s *FeatureFlagService) Invalidate() {
	s.cache.Invalidate(flagsSnapshotKey)
}

func (s *FeatureFlagService) snapshot(ctx context.Context) map[string]bool {
	if snapshot, ok := s.cache.Get(flagsSnapshotKey); ok {
		return snapshot
	}
	if err := s.Refresh(ctx); err != nil {
		log.Printf("flags: %v", err)
		return nil
	}
	snapshot, _ := s.cache.Get(flagsSnapshotKey)
	return snapshot
}
