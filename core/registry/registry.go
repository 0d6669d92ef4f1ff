// Package registry binds compiled service paths to data sources and
// resolves inbound request paths. It detects duplicate path claims at
// registration time and keeps routes ordered by specificity so
// resolution is a linear first-match scan.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/pathsource/domain/path"
	"github.com/artpar/pathsource/ports"
)

// ErrNoRoute is returned when no registered path matches a request
// path. It is the 404-equivalent condition for resolution.
var ErrNoRoute = errors.New("no route matches path")

// DuplicateRouteError reports an attempt to register a path that is
// structurally identical to an already registered one.
type DuplicateRouteError struct {
	Template string
	Existing string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route %q conflicts with already registered route %q", e.Template, e.Existing)
}

// entry is one registered route.
type entry struct {
	path   *path.ServicePath
	keyFn  ports.KeyFunc
	source ports.Resolver
}

// Registry maps compiled service paths to (data source, key function)
// pairs. Registration is expected during a single-threaded setup
// phase; the mutex still guards the table so resolution can run
// concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	base    string
	entries []entry
	metrics ports.Metrics
	clock   ports.Clock
	log     zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics injects a metrics recorder.
func WithMetrics(m ports.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger injects a structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithClock injects the clock used to time resolutions.
func WithClock(c ports.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// New creates a registry serving paths under the given base prefix.
// An empty base means routes are matched against the raw request path.
func New(basePath string, opts ...Option) *Registry {
	r := &Registry{
		base: strings.TrimSuffix(basePath, "/"),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BasePath returns the registry's base prefix.
func (r *Registry) BasePath() string { return r.base }

// AddDataSource registers a compiled path with its key function and
// data source. Registering a path structurally identical to an
// existing one fails with a DuplicateRouteError; the table stays
// ordered by decreasing specificity.
func (r *Registry) AddDataSource(sp *path.ServicePath, keyFn ports.KeyFunc, source ports.Resolver) error {
	if sp == nil {
		return errors.New("nil service path")
	}
	if keyFn == nil {
		return errors.New("nil key function")
	}
	if source == nil {
		return errors.New("nil data source")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	segs := sp.Segments()
	insertAt := len(r.entries)
	for i, e := range r.entries {
		other := e.path.Segments()
		if path.Equal(segs, other) {
			return &DuplicateRouteError{Template: sp.String(), Existing: e.path.String()}
		}
		c, err := path.Compare(segs, other)
		if err != nil {
			return fmt.Errorf("register %q: %w", sp.String(), err)
		}
		if c < 0 && insertAt == len(r.entries) {
			insertAt = i
		}
	}

	r.entries = append(r.entries, entry{})
	copy(r.entries[insertAt+1:], r.entries[insertAt:])
	r.entries[insertAt] = entry{path: sp, keyFn: keyFn, source: source}

	if r.metrics != nil {
		r.metrics.RouteRegistered(sp.String())
	}
	r.log.Debug().Str("path", sp.String()).Msg("route registered")
	return nil
}

// ServicePaths returns all registered templates ordered by decreasing
// specificity, with the base prefix prepended.
func (r *Registry) ServicePaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = r.base + e.path.String()
	}
	return out
}

// FindServicePath returns the most specific registered path whose
// matcher succeeds at offset 0 against the request path.
func (r *Registry) FindServicePath(requestPath string) (*path.ServicePath, *path.Match, bool) {
	rel, ok := r.rel(requestPath)
	if !ok {
		return nil, nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if m := e.path.Match(rel); m != nil {
			return e.path, m, true
		}
	}
	return nil, nil, false
}

// ResourceByPath resolves the request path to a route, derives the
// domain key from the extracted parameters and delegates to the data
// source. A miss fails with ErrNoRoute.
func (r *Registry) ResourceByPath(ctx context.Context, requestPath string) (any, error) {
	start := r.now()

	rel, ok := r.rel(requestPath)
	if !ok {
		return r.miss(requestPath, start)
	}

	r.mu.RLock()
	var hit *entry
	var match *path.Match
	for i := range r.entries {
		if m := r.entries[i].path.Match(rel); m != nil {
			hit = &r.entries[i]
			match = m
			break
		}
	}
	r.mu.RUnlock()

	if hit == nil {
		return r.miss(requestPath, start)
	}

	key, err := hit.keyFn(match)
	if err != nil {
		return nil, r.resolveErr(hit.path.String(), start, fmt.Errorf("derive key for %q: %w", requestPath, err))
	}

	value, err := hit.source.Retrieve(ctx, key)
	if err != nil {
		return nil, r.resolveErr(hit.path.String(), start, err)
	}

	if r.metrics != nil {
		r.metrics.ResolveHit(hit.path.String(), r.now().Sub(start))
	}
	r.log.Debug().
		Str("request", requestPath).
		Str("route", hit.path.String()).
		Msg("resource resolved")
	return value, nil
}

// resolveErr records a matched route whose key derivation or data
// source failed. Such lookups are neither hits nor routing misses.
func (r *Registry) resolveErr(template string, start time.Time, err error) error {
	if r.metrics != nil {
		r.metrics.ResolveError(template, r.now().Sub(start))
	}
	r.log.Debug().
		Str("route", template).
		Err(err).
		Msg("resolution failed after route match")
	return err
}

func (r *Registry) miss(requestPath string, start time.Time) (any, error) {
	if r.metrics != nil {
		r.metrics.ResolveMiss(r.now().Sub(start))
	}
	r.log.Debug().Str("request", requestPath).Msg("no route matched")
	return nil, fmt.Errorf("resolve %q: %w", requestPath, ErrNoRoute)
}

func (r *Registry) now() time.Time {
	if r.clock != nil {
		return r.clock.Now()
	}
	return time.Now()
}

// rel strips the base prefix from a request path. The prefix must end
// at a segment boundary.
func (r *Registry) rel(requestPath string) (string, bool) {
	if r.base == "" {
		return requestPath, true
	}
	if !strings.HasPrefix(requestPath, r.base) {
		return "", false
	}
	rest := requestPath[len(r.base):]
	if rest == "" {
		return "/", true
	}
	if !strings.HasPrefix(rest, "/") {
		return "", false
	}
	return rest, true
}

// ParamKey returns a key function that reads one named parameter from
// the match. Catch-all values are joined back with "/".
func ParamKey(name string) ports.KeyFunc {
	return func(m *path.Match) (any, error) {
		v, err := m.Param(name)
		if err != nil {
			return nil, err
		}
		if parts, ok := v.([]string); ok {
			return strings.Join(parts, "/"), nil
		}
		return v, nil
	}
}
