package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/njprem/umrah_marketplace_client/internal/apitest"
	"github.com/njprem/umrah_marketplace_client/internal/config"
	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/service"
)

func run(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(cfg)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAddAnonymous(t *testing.T) {
	server := apitest.NewServer(t)
	cfg := config.Config{APIBaseURL: server.URL, StorageDriver: config.StorageMemory}

	out, err := run(t, cfg, "add", "42")
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if !strings.Contains(out, "tour 42: favorite (1 total)") {
		t.Fatalf("unexpected output %q", out)
	}
	if server.TotalCalls() != 0 {
		t.Fatalf("expected no API calls while anonymous, got %d", server.TotalCalls())
	}
}

func TestAddSignedIn(t *testing.T) {
	server := apitest.NewServer(t)
	userID := uuid.New()
	server.Seed(userID, 7)
	cfg := config.Config{
		APIBaseURL:    server.URL,
		StorageDriver: config.StorageMemory,
		SessionToken:  server.Token(userID),
	}

	if _, err := run(t, cfg, "add", "5"); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	remote := server.Favorites(userID)
	if len(remote) != 2 || remote[1] != domain.TourID(5) {
		t.Fatalf("expected remote [7 5], got %v", remote)
	}

	out, err := run(t, cfg, "list")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if !strings.Contains(out, "2 favorites (remote)") {
		t.Fatalf("unexpected list output %q", out)
	}
}

func TestSyncRequiresSession(t *testing.T) {
	server := apitest.NewServer(t)
	cfg := config.Config{APIBaseURL: server.URL, StorageDriver: config.StorageMemory}

	if _, err := run(t, cfg, "sync"); err == nil {
		t.Fatalf("expected error without a session")
	}
}

func TestSQLiteStoragePersistsAcrossRuns(t *testing.T) {
	server := apitest.NewServer(t)
	cfg := config.Config{
		APIBaseURL:    server.URL,
		StorageDriver: config.StorageSQLite,
		StoragePath:   t.TempDir() + "/favorites.db",
	}

	if _, err := run(t, cfg, "add", "3"); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	out, err := run(t, cfg, "list")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if !strings.Contains(out, "1 favorites (local)") || !strings.Contains(out, "  3\n") {
		t.Fatalf("expected persisted favorite, got %q", out)
	}
}

func TestFlags(t *testing.T) {
	server := apitest.NewServer(t)
	server.SetFlags(domain.FeatureFlag{Key: "ai_chat", Enabled: true})
	cfg := config.Config{APIBaseURL: server.URL, StorageDriver: config.StorageMemory}

	out, err := run(t, cfg, "flags")
	if err != nil {
		t.Fatalf("flags returned error: %v", err)
	}
	if !strings.Contains(out, "ai_chat=true") {
		t.Fatalf("unexpected flags output %q", out)
	}
}

func TestUnknownStorageDriver(t *testing.T) {
	cfg := config.Config{APIBaseURL: "http://localhost", StorageDriver: "floppy"}
	if _, err := run(t, cfg, "list"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestParseTourID(t *testing.T) {
	if id, err := parseTourID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, raw := range []string{"0", "-1", "abc", ""} {
		if _, err := parseTourID(raw); !errors.Is(err, service.ErrInvalidTourID) {
			t.Fatalf("expected ErrInvalidTourID for %q, got %v", raw, err)
		}
	}
}
