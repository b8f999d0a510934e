package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/njprem/umrah_marketplace_client/internal/cache"
	"github.com/njprem/umrah_marketplace_client/internal/config"
	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/repository/api"
	"github.com/njprem/umrah_marketplace_client/internal/repository/memory"
	minioRepo "github.com/njprem/umrah_marketplace_client/internal/repository/minio"
	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
	"github.com/njprem/umrah_marketplace_client/internal/repository/sqlite"
	"github.com/njprem/umrah_marketplace_client/internal/service"
	"github.com/njprem/umrah_marketplace_client/internal/util"
)

// app holds everything one CLI invocation needs.
type app struct {
	cfg       config.Config
	auth      *service.AuthState
	favorites *service.FavoriteSynchronizer
	flags     *service.FeatureFlagService
	watcher   *service.SessionFileWatcher
	closers   []io.Closer
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	storage, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []api.Option{api.WithRequestLogging()}
	if cfg.APITimeout > 0 {
		opts = append(opts, api.WithTimeout(cfg.APITimeout))
	}
	client, err := api.NewClient(cfg.APIBaseURL, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	parser := util.NewTokenParser(cfg.AuthJWTSecret)
	a.auth = service.NewAuthState(nil)
	switch {
	case cfg.SessionTokenFile != "":
		a.watcher = service.NewSessionFileWatcher(cfg.SessionTokenFile, parser, a.auth)
		a.watcher.Apply()
	case strings.TrimSpace(cfg.SessionToken) != "":
		identity, err := parser.Identity(strings.TrimSpace(cfg.SessionToken))
		if err != nil {
			log.Printf("favsync: ignoring SESSION_TOKEN: %v", err)
		} else {
			a.auth.SignIn(identity)
		}
	}

	local := service.NewLocalFavorites(storage, cfg.FavoritesStorageKey)
	a.favorites = service.NewFavoriteSynchronizer(local, client, a.auth)

	overrides := map[string]bool{}
	if cfg.FeatureFlagsFile != "" {
		overrides, err = service.LoadFlagOverrides(cfg.FeatureFlagsFile)
		if err != nil {
			log.Printf("favsync: ignoring feature flag overrides: %v", err)
		}
	}
	a.flags = service.NewFeatureFlagService(client, cache.New[string, map[string]bool](cfg.FeatureFlagsTTL), overrides)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (ports.Storage, error) {
	switch a.cfg.StorageDriver {
	case config.StorageMemory:
		return memory.NewStorage(), nil
	case config.StorageMinIO:
		client, err := minioRepo.NewClient(a.cfg.MinIOEndpoint, a.cfg.MinIOAccessKey, a.cfg.MinIOSecretKey, a.cfg.MinIOUseSSL)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		exists, err := client.BucketExists(ctx, a.cfg.MinIOBucket)
		if err != nil {
			return nil, fmt.Errorf("minio bucket %s: %w", a.cfg.MinIOBucket, err)
		}
		if !exists {
			return nil, fmt.Errorf("minio bucket %s does not exist", a.cfg.MinIOBucket)
		}
		return minioRepo.NewStorage(minioRepo.NewObjectStore(client), a.cfg.MinIOBucket, "local"), nil
	case config.StorageSQLite, "":
		db, err := sqlite.New(a.cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", a.cfg.StoragePath, err)
		}
		a.closers = append(a.closers, db)
		return sqlite.NewStorage(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
	}
}

// session applies the current sign-in state, migrating local favorites on the
// first signed-in run.
func (a *app) session(ctx context.Context) error {
	return a.favorites.HandleIdentity(ctx, a.auth.Current())
}

func (a *app) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("favsync: close: %v", err)
		}
	}
	a.closers = nil
	return nil
}

func printFavorites(w io.Writer, source domain.FavoriteSource, ids []domain.TourID) {
	fmt.Fprintf(w, "%d favorites (%s)\n", len(ids), source)
	for _, id := range ids {
		fmt.Fprintf(w, "  %d\n", id)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
