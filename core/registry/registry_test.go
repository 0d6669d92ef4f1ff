package registry_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/artpar/pathsource/adapters/clock"
	"github.com/artpar/pathsource/adapters/memory"
	"github.com/artpar/pathsource/core/datasource"
	"github.com/artpar/pathsource/core/registry"
	"github.com/artpar/pathsource/domain/path"
	"github.com/artpar/pathsource/ports"
)

func mustParse(t *testing.T, template string) *path.ServicePath {
	t.Helper()
	sp, err := path.Parse(template)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", template, err)
	}
	return sp
}

func staticResolver(v any) ports.Resolver {
	return ports.ResolverFunc(func(context.Context, any) (any, error) {
		return v, nil
	})
}

func keyEcho(m *path.Match) (any, error) { return m.Path(), nil }

func register(t *testing.T, r *registry.Registry, template string, source ports.Resolver) {
	t.Helper()
	if err := r.AddDataSource(mustParse(t, template), keyEcho, source); err != nil {
		t.Fatalf("AddDataSource(%q) failed: %v", template, err)
	}
}

func TestRegistry_DuplicateRoute(t *testing.T) {
	r := registry.New("")
	register(t, r, "/users/[id]", staticResolver("a"))

	// Parameter names do not make structurally identical paths distinct.
	err := r.AddDataSource(mustParse(t, "/users/[name]"), keyEcho, staticResolver("b"))
	var dup *registry.DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("AddDataSource error = %v, want DuplicateRouteError", err)
	}
	if dup.Template != "/users/[name]" || dup.Existing != "/users/[id]" {
		t.Errorf("duplicate = %+v, want new /users/[name] against existing /users/[id]", dup)
	}

	if err := r.AddDataSource(mustParse(t, "/users/[id]/posts"), keyEcho, staticResolver("c")); err != nil {
		t.Errorf("longer path should register cleanly, got %v", err)
	}
}

func TestRegistry_EqualSpecificityDistinctShapes(t *testing.T) {
	// A parameter segment and a parameter-led mixed segment tie in
	// specificity but match different request paths, so both register.
	r := registry.New("")
	register(t, r, "/a/[n]x", staticResolver("mixed"))
	register(t, r, "/a/[id]", staticResolver("param"))

	ctx := context.Background()
	tests := []struct {
		request string
		want    string
	}{
		{"/a/foox", "mixed"},
		{"/a/foo", "param"},
	}
	for _, tt := range tests {
		v, err := r.ResourceByPath(ctx, tt.request)
		if err != nil {
			t.Fatalf("ResourceByPath(%q) failed: %v", tt.request, err)
		}
		if v != tt.want {
			t.Errorf("ResourceByPath(%q) = %v, want %v", tt.request, v, tt.want)
		}
	}

	// The same mixed shape under another name is still a duplicate.
	err := r.AddDataSource(mustParse(t, "/a/[m]x"), keyEcho, staticResolver("b"))
	var dup *registry.DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("AddDataSource error = %v, want DuplicateRouteError", err)
	}
}

func TestRegistry_SpecificityOrder(t *testing.T) {
	r := registry.New("")

	// Register from least to most specific; the table re-sorts on insert.
	register(t, r, "/users/[[...rest]]", staticResolver("optional"))
	register(t, r, "/users/[...rest]", staticResolver("catchall"))
	register(t, r, "/users/[id]", staticResolver("param"))
	register(t, r, "/users/admin", staticResolver("literal"))

	want := []string{
		"/users/admin",
		"/users/[id]",
		"/users/[...rest]",
		"/users/[[...rest]]",
	}
	if got := r.ServicePaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("ServicePaths = %v, want %v", got, want)
	}

	ctx := context.Background()
	tests := []struct {
		request string
		want    string
	}{
		{"/users/admin", "literal"},
		{"/users/42", "param"},
		{"/users/42/extra", "param"}, // boundary match beats catch-all by order
		{"/users", "optional"},
	}
	for _, tt := range tests {
		v, err := r.ResourceByPath(ctx, tt.request)
		if err != nil {
			t.Fatalf("ResourceByPath(%q) failed: %v", tt.request, err)
		}
		if v != tt.want {
			t.Errorf("ResourceByPath(%q) = %v, want %v", tt.request, v, tt.want)
		}
	}
}

func TestRegistry_NoRoute(t *testing.T) {
	r := registry.New("")
	register(t, r, "/users/[id]", staticResolver("a"))

	_, err := r.ResourceByPath(context.Background(), "/posts/1")
	if !errors.Is(err, registry.ErrNoRoute) {
		t.Errorf("ResourceByPath error = %v, want ErrNoRoute", err)
	}
}

func TestRegistry_BasePath(t *testing.T) {
	r := registry.New("/api/v1/")
	register(t, r, "/users/[id]", staticResolver("a"))

	if got := r.BasePath(); got != "/api/v1" {
		t.Errorf("BasePath = %q, want /api/v1 (trailing slash trimmed)", got)
	}
	if got := r.ServicePaths(); !reflect.DeepEqual(got, []string{"/api/v1/users/[id]"}) {
		t.Errorf("ServicePaths = %v", got)
	}

	ctx := context.Background()
	if _, err := r.ResourceByPath(ctx, "/api/v1/users/7"); err != nil {
		t.Errorf("request under base should resolve, got %v", err)
	}
	if _, err := r.ResourceByPath(ctx, "/users/7"); !errors.Is(err, registry.ErrNoRoute) {
		t.Errorf("request outside base error = %v, want ErrNoRoute", err)
	}

	// The base prefix must end at a segment boundary.
	if _, err := r.ResourceByPath(ctx, "/api/v1extra/users/7"); !errors.Is(err, registry.ErrNoRoute) {
		t.Errorf("partial-segment base prefix error = %v, want ErrNoRoute", err)
	}
}

func TestRegistry_FindServicePath(t *testing.T) {
	r := registry.New("")
	register(t, r, "/test/[param]", staticResolver("a"))

	sp, m, ok := r.FindServicePath("/test/rest")
	if !ok {
		t.Fatal("expected a matching service path")
	}
	if sp.String() != "/test/[param]" {
		t.Errorf("path = %q, want /test/[param]", sp.String())
	}
	v, err := m.Param("param")
	if err != nil {
		t.Fatalf("Param failed: %v", err)
	}
	if v != "rest" {
		t.Errorf("param = %v, want rest", v)
	}

	if _, _, ok := r.FindServicePath("/other"); ok {
		t.Error("unexpected match for unregistered path")
	}
}

func TestRegistry_ResolvesThroughDataSource(t *testing.T) {
	store := memory.NewStore(memory.WithEntries(map[string]map[string]any{
		"42": {"name": "deep thought"},
	}))
	ds, err := store.DataSource()
	if err != nil {
		t.Fatalf("DataSource failed: %v", err)
	}

	r := registry.New("")
	err = r.AddDataSource(mustParse(t, "/machines/[id]"), registry.ParamKey("id"), datasource.ResolverFor(ds))
	if err != nil {
		t.Fatalf("AddDataSource failed: %v", err)
	}
	ctx := context.Background()

	v, err := r.ResourceByPath(ctx, "/machines/42")
	if err != nil {
		t.Fatalf("ResourceByPath failed: %v", err)
	}
	got, ok := v.(map[string]any)
	if !ok || got["name"] != "deep thought" {
		t.Errorf("ResourceByPath = %v, want machine 42", v)
	}

	// A matching route whose data source misses surfaces the source's
	// error, not ErrNoRoute.
	_, err = r.ResourceByPath(ctx, "/machines/43")
	if errors.Is(err, registry.ErrNoRoute) {
		t.Error("data-source miss must not be reported as a routing miss")
	}
	if !datasource.IsNotFound(err) {
		t.Errorf("ResourceByPath error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_ParamKeyJoinsCatchAll(t *testing.T) {
	r := registry.New("")
	var seen any
	capture := ports.ResolverFunc(func(_ context.Context, key any) (any, error) {
		seen = key
		return key, nil
	})
	if err := r.AddDataSource(mustParse(t, "/files/[...p]"), registry.ParamKey("p"), capture); err != nil {
		t.Fatalf("AddDataSource failed: %v", err)
	}

	if _, err := r.ResourceByPath(context.Background(), "/files/a/b/c"); err != nil {
		t.Fatalf("ResourceByPath failed: %v", err)
	}
	if seen != "a/b/c" {
		t.Errorf("derived key = %v, want a/b/c", seen)
	}
}

func TestRegistry_Metrics(t *testing.T) {
	rec := &recordingMetrics{}
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	r := registry.New("", registry.WithMetrics(rec), registry.WithClock(fake))
	register(t, r, "/users/[id]", staticResolver("a"))

	failing := ports.ResolverFunc(func(context.Context, any) (any, error) {
		return nil, errors.New("backend unavailable")
	})
	register(t, r, "/broken/[id]", failing)

	ctx := context.Background()
	if _, err := r.ResourceByPath(ctx, "/users/7"); err != nil {
		t.Fatalf("ResourceByPath failed: %v", err)
	}
	if _, err := r.ResourceByPath(ctx, "/nope"); !errors.Is(err, registry.ErrNoRoute) {
		t.Fatalf("ResourceByPath error = %v, want ErrNoRoute", err)
	}

	// A matched route whose source fails counts as an error, not a hit
	// and not a routing miss.
	if _, err := r.ResourceByPath(ctx, "/broken/7"); err == nil {
		t.Fatal("expected the failing source's error")
	} else if errors.Is(err, registry.ErrNoRoute) {
		t.Fatalf("ResourceByPath error = %v, must not be ErrNoRoute", err)
	}

	want := metricCounts{registered: 2, hits: 1, misses: 1, errors: 1}
	if got := rec.snapshot(); got != want {
		t.Errorf("metrics = %+v, want %+v", got, want)
	}
}

type metricCounts struct {
	registered int
	hits       int
	misses     int
	errors     int
}

type recordingMetrics struct {
	mu sync.Mutex
	metricCounts
}

func (m *recordingMetrics) RouteRegistered(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered++
}

func (m *recordingMetrics) ResolveHit(string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMetrics) ResolveMiss(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *recordingMetrics) ResolveError(string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

func (m *recordingMetrics) snapshot() metricCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metricCounts
}

func TestRegistry_ConcurrentResolution(t *testing.T) {
	r := registry.New("")
	register(t, r, "/users/[id]", staticResolver("worker"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v, err := r.ResourceByPath(context.Background(), fmt.Sprintf("/users/%d-%d", n, j))
				if err != nil || v != "worker" {
					t.Errorf("ResourceByPath = (%v, %v)", v, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
