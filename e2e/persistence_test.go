package e2e

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/pathsource/adapters/idgen"
	"github.com/artpar/pathsource/app"
	"github.com/artpar/pathsource/config"
	"github.com/artpar/pathsource/core/datasource"
)

// TestE2E_SqlitePersistence verifies that resources created through a
// sqlite-backed source survive a service restart on the same database.
func TestE2E_SqlitePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: dbPath},
		Sources: []config.SourceConfig{
			{Name: "events", Kind: "sqlite", Collection: "events", IDGenerator: true},
		},
		Routes: []config.RouteConfig{
			{Path: "/events/[eventId]", Source: "events", Key: "eventId"},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
	ctx := context.Background()

	var key string

	// Phase 1: create a resource, shut down.
	{
		svc, err := app.New(ctx, cfg, zerolog.Nop(),
			app.WithIDGenerator(idgen.NewSequential("evt-")))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		ds, ok := svc.Source("events")
		if !ok {
			t.Fatal("events source not exposed")
		}
		key, err = ds.Create(ctx, map[string]any{"name": "launch"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	// Phase 2: a fresh service over the same database resolves it.
	{
		svc, err := app.New(ctx, cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("restart New failed: %v", err)
		}
		defer svc.Close()

		v, err := svc.Resolve(ctx, "/events/"+key)
		if err != nil {
			t.Fatalf("Resolve after restart failed: %v", err)
		}
		got, ok := v.(map[string]any)
		if !ok || got["name"] != "launch" {
			t.Errorf("Resolve = %v, want the persisted event", v)
		}

		// Removal persists the same way.
		ds, _ := svc.Source("events")
		removed, err := ds.Remove(ctx, key)
		if err != nil || !removed {
			t.Fatalf("Remove = (%v, %v), want (true, nil)", removed, err)
		}
		if _, err := svc.Resolve(ctx, "/events/"+key); !datasource.IsNotFound(err) {
			t.Errorf("Resolve after Remove error = %v, want ErrNotFound", err)
		}
	}
}
