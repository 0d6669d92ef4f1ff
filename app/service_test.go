package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/pathsource/adapters/idgen"
	"github.com/artpar/pathsource/app"
	"github.com/artpar/pathsource/config"
	"github.com/artpar/pathsource/core/datasource"
	"github.com/artpar/pathsource/core/registry"
)

func newService(t *testing.T, cfg *config.Config) *app.Service {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
	s, err := app.New(context.Background(), cfg, zerolog.Nop(),
		app.WithIDGenerator(idgen.NewSequential("id-")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestService_MemorySources(t *testing.T) {
	cfg := &config.Config{
		BasePath: "/api",
		Sources: []config.SourceConfig{
			{
				Name: "users",
				Kind: "memory",
				Seed: map[string]map[string]any{
					"1": {"name": "alice"},
					"2": {"name": "bob"},
				},
			},
		},
		Routes: []config.RouteConfig{
			{Path: "/users/[id]", Source: "users", Key: "id"},
		},
	}
	s := newService(t, cfg)
	ctx := context.Background()

	v, err := s.Resolve(ctx, "/api/users/1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, ok := v.(map[string]any)
	if !ok || got["name"] != "alice" {
		t.Errorf("Resolve = %v, want user 1", v)
	}

	if _, err := s.Resolve(ctx, "/api/users/9"); !datasource.IsNotFound(err) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
	if _, err := s.Resolve(ctx, "/users/1"); !errors.Is(err, registry.ErrNoRoute) {
		t.Errorf("Resolve outside base error = %v, want ErrNoRoute", err)
	}
}

func TestService_SqliteSource(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "svc.db")},
		Sources: []config.SourceConfig{
			{
				Name:        "events",
				Kind:        "sqlite",
				Collection:  "events",
				IDGenerator: true,
				Seed: map[string]map[string]any{
					"launch": {"seats": float64(100)},
				},
			},
		},
		Routes: []config.RouteConfig{
			{Path: "/events/[eventId]", Source: "events", Key: "eventId"},
		},
	}
	s := newService(t, cfg)
	ctx := context.Background()

	v, err := s.Resolve(ctx, "/events/launch")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, ok := v.(map[string]any)
	if !ok || got["seats"] != float64(100) {
		t.Errorf("Resolve = %v, want the seeded event", v)
	}

	// Sources are reachable for direct CRUD.
	ds, ok := s.Source("events")
	if !ok {
		t.Fatal("events source not exposed")
	}
	key, err := ds.Create(ctx, map[string]any{"seats": float64(5)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if key != "id-1" {
		t.Errorf("Create key = %q, want id-1 from the injected generator", key)
	}
	if _, err := s.Resolve(ctx, "/events/"+key); err != nil {
		t.Errorf("created event should resolve, got %v", err)
	}
}

func TestService_CatchAllRoute(t *testing.T) {
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{
				Name: "docs",
				Kind: "memory",
				Seed: map[string]map[string]any{
					"guides/intro": {"title": "Intro"},
				},
			},
		},
		Routes: []config.RouteConfig{
			{Path: "/docs/[...slug]", Source: "docs", Key: "slug"},
		},
	}
	s := newService(t, cfg)

	v, err := s.Resolve(context.Background(), "/docs/guides/intro")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, ok := v.(map[string]any)
	if !ok || got["title"] != "Intro" {
		t.Errorf("Resolve = %v, want the intro doc", v)
	}
}

func TestService_RoutesOrderedBySpecificity(t *testing.T) {
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{
				Name: "users",
				Kind: "memory",
				Seed: map[string]map[string]any{
					"admin": {"role": "admin"},
					"7":     {"role": "member"},
				},
			},
		},
		Routes: []config.RouteConfig{
			{Path: "/users/[id]", Source: "users", Key: "id"},
			{Path: "/users/[...rest]", Source: "users", Key: "rest"},
		},
	}
	s := newService(t, cfg)

	want := []string{"/users/[id]", "/users/[...rest]"}
	if got := s.Routes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Routes = %v, want %v", got, want)
	}
}

func TestService_DuplicateRouteFailsConstruction(t *testing.T) {
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{Name: "users", Kind: "memory"},
		},
		Routes: []config.RouteConfig{
			{Path: "/users/[id]", Source: "users", Key: "id"},
			{Path: "/users/[name]", Source: "users", Key: "name"},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	_, err := app.New(context.Background(), cfg, zerolog.Nop())
	var dup *registry.DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("New error = %v, want DuplicateRouteError", err)
	}
}
