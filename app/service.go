// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/pathsource/adapters/clock"
	"github.com/artpar/pathsource/adapters/idgen"
	"github.com/artpar/pathsource/adapters/memory"
	"github.com/artpar/pathsource/adapters/sqlite"
	"github.com/artpar/pathsource/config"
	"github.com/artpar/pathsource/core/datasource"
	"github.com/artpar/pathsource/core/registry"
	"github.com/artpar/pathsource/domain/path"
	"github.com/artpar/pathsource/ports"
)

// Service wires data sources and a service registry from
// configuration. Resource values are JSON-style objects keyed by
// string identifiers.
type Service struct {
	registry *registry.Registry
	sources  map[string]*datasource.DataSource[string, map[string]any]
	db       *sqlite.DB
	logger   zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	metrics ports.Metrics
	ids     ports.IDGenerator
}

// WithMetrics injects a metrics recorder into the registry.
func WithMetrics(m ports.Metrics) ServiceOption {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithIDGenerator overrides the generator used by sources that enable
// create support. Defaults to UUIDs.
func WithIDGenerator(g ports.IDGenerator) ServiceOption {
	return func(o *serviceOptions) { o.ids = g }
}

// New builds the data sources and registry declared by cfg.
// Registration order follows the configuration, but resolution order
// is always by route specificity.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...ServiceOption) (*Service, error) {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = idgen.UUID{}
	}

	s := &Service{
		sources: make(map[string]*datasource.DataSource[string, map[string]any]),
		logger:  logger,
	}

	regOpts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithClock(clock.Real{}),
	}
	if o.metrics != nil {
		regOpts = append(regOpts, registry.WithMetrics(o.metrics))
	}
	s.registry = registry.New(cfg.BasePath, regOpts...)

	if err := s.buildSources(ctx, cfg, o.ids); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.registerRoutes(cfg); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Service) buildSources(ctx context.Context, cfg *config.Config, ids ports.IDGenerator) error {
	for _, src := range cfg.Sources {
		switch src.Kind {
		case "memory":
			var opts []memory.Option[map[string]any]
			if src.IDGenerator {
				opts = append(opts, memory.WithIDGenerator[map[string]any](ids))
			}
			if len(src.Seed) > 0 {
				opts = append(opts, memory.WithEntries(src.Seed))
			}
			ds, err := memory.NewStore(opts...).DataSource()
			if err != nil {
				return fmt.Errorf("source %q: %w", src.Name, err)
			}
			s.sources[src.Name] = ds
			s.logger.Info().
				Str("source", src.Name).
				Str("kind", src.Kind).
				Int("seed", len(src.Seed)).
				Msg("data source ready")

		case "sqlite":
			if s.db == nil {
				db, err := sqlite.Open(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				if err := db.Migrate(); err != nil {
					db.Close()
					return fmt.Errorf("migrate database: %w", err)
				}
				s.db = db
			}
			var opts []sqlite.ResourceOption
			if src.IDGenerator {
				opts = append(opts, sqlite.WithIDGenerator(ids))
			}
			store := sqlite.NewResourceStore(s.db, src.Collection, opts...)
			for key, value := range src.Seed {
				if err := store.Put(ctx, key, value); err != nil {
					return fmt.Errorf("seed source %q key %q: %w", src.Name, key, err)
				}
			}
			ds, err := store.DataSource()
			if err != nil {
				return fmt.Errorf("source %q: %w", src.Name, err)
			}
			s.sources[src.Name] = ds
			s.logger.Info().
				Str("source", src.Name).
				Str("kind", src.Kind).
				Str("collection", src.Collection).
				Msg("data source ready")

		default:
			return fmt.Errorf("source %q: unknown kind %q", src.Name, src.Kind)
		}
	}
	return nil
}

func (s *Service) registerRoutes(cfg *config.Config) error {
	for _, rt := range cfg.Routes {
		sp, err := path.Parse(rt.Path)
		if err != nil {
			return fmt.Errorf("route %q: %w", rt.Path, err)
		}
		ds, ok := s.sources[rt.Source]
		if !ok {
			return fmt.Errorf("route %q: unknown source %q", rt.Path, rt.Source)
		}
		err = s.registry.AddDataSource(sp, registry.ParamKey(rt.Key), datasource.ResolverFor(ds))
		if err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the built service registry.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Source returns a named data source for direct CRUD access.
func (s *Service) Source(name string) (*datasource.DataSource[string, map[string]any], bool) {
	ds, ok := s.sources[name]
	return ds, ok
}

// Resolve resolves a request path to a resource.
func (s *Service) Resolve(ctx context.Context, requestPath string) (any, error) {
	return s.registry.ResourceByPath(ctx, requestPath)
}

// Routes returns all registered route templates, most specific first.
func (s *Service) Routes() []string {
	return s.registry.ServicePaths()
}

// Close releases the backing database, if any.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
