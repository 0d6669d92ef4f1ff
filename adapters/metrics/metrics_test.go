package metrics_test

import (
	"testing"
	"time"

	"github.com/artpar/pathsource/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewWithRegistry(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.RoutesRegistered == nil {
		t.Error("RoutesRegistered is nil")
	}
	if m.ResolveTotal == nil {
		t.Error("ResolveTotal is nil")
	}
	if m.ResolveDuration == nil {
		t.Error("ResolveDuration is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
	if m.ConfigReloadErrors == nil {
		t.Error("ConfigReloadErrors is nil")
	}
}

func TestRouteRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RouteRegistered("/users/[id]")
	m.RouteRegistered("/files/[...path]")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "pathsource_routes_registered" {
			found = true
			val := f.GetMetric()[0].GetGauge().GetValue()
			if val != 2 {
				t.Errorf("expected gauge value 2, got %f", val)
			}
		}
	}
	if !found {
		t.Error("pathsource_routes_registered metric not found")
	}
}

func TestResolveOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ResolveHit("/users/[id]", 40*time.Microsecond)
	m.ResolveHit("/users/[id]", 60*time.Microsecond)
	m.ResolveHit("/files/[...path]", 100*time.Microsecond)
	m.ResolveMiss(20 * time.Microsecond)
	m.ResolveError("/users/[id]", 80*time.Microsecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundTotal := false
	foundDuration := false
	for _, f := range families {
		switch f.GetName() {
		case "pathsource_resolve_total":
			foundTotal = true
			// hit x2 templates + miss + error
			if len(f.GetMetric()) != 4 {
				t.Errorf("expected 4 metric series, got %d", len(f.GetMetric()))
			}
		case "pathsource_resolve_duration_seconds":
			foundDuration = true
			// one histogram per result label
			if len(f.GetMetric()) != 3 {
				t.Errorf("expected 3 histogram series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !foundTotal {
		t.Error("pathsource_resolve_total metric not found")
	}
	if !foundDuration {
		t.Error("pathsource_resolve_duration_seconds metric not found")
	}
}

func TestConfigReloads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ConfigReloads.Inc()
	m.ConfigReloads.Inc()
	m.ConfigReloadErrors.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundReloads := false
	foundErrors := false
	for _, f := range families {
		switch f.GetName() {
		case "pathsource_config_reloads_total":
			foundReloads = true
			val := f.GetMetric()[0].GetCounter().GetValue()
			if val != 2 {
				t.Errorf("expected 2 reloads, got %f", val)
			}
		case "pathsource_config_reload_errors_total":
			foundErrors = true
			val := f.GetMetric()[0].GetCounter().GetValue()
			if val != 1 {
				t.Errorf("expected 1 reload error, got %f", val)
			}
		}
	}
	if !foundReloads {
		t.Error("pathsource_config_reloads_total metric not found")
	}
	if !foundErrors {
		t.Error("pathsource_config_reload_errors_total metric not found")
	}
}
