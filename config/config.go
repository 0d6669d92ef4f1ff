// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/artpar/pathsource/domain/path"
)

// Config is the root configuration structure.
type Config struct {
	BasePath string         `yaml:"base_path"`
	Database DatabaseConfig `yaml:"database"`
	Sources  []SourceConfig `yaml:"sources"`
	Routes   []RouteConfig  `yaml:"routes"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig configures the SQLite database backing the sqlite
// source kind.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig declares one named data source.
type SourceConfig struct {
	Name string `yaml:"name"`

	// Kind selects the backing store: "memory" or "sqlite".
	Kind string `yaml:"kind"`

	// Collection scopes a sqlite source to a table partition.
	// Defaults to the source name.
	Collection string `yaml:"collection,omitempty"`

	// IDGenerator enables create support with generated UUID keys.
	IDGenerator bool `yaml:"id_generator,omitempty"`

	// Seed preloads entries keyed by resource key.
	Seed map[string]map[string]any `yaml:"seed,omitempty"`
}

// RouteConfig binds a path template to a data source.
type RouteConfig struct {
	// Path is the route template, e.g. "/users/[id]".
	Path string `yaml:"path"`

	// Source names the data source the route resolves against.
	Source string `yaml:"source"`

	// Key names the path parameter whose value becomes the domain key.
	Key string `yaml:"key"`
}

// LoggingConfig configures logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// Load reads configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Kind == "" {
			cfg.Sources[i].Kind = "memory"
		}
		if cfg.Sources[i].Collection == "" {
			cfg.Sources[i].Collection = cfg.Sources[i].Name
		}
	}
}

// Validate checks the configuration for structural errors: unknown
// source kinds, routes referencing undeclared sources, unparsable
// templates and key parameters the template does not declare.
func (c *Config) Validate() error {
	sources := make(map[string]SourceConfig, len(c.Sources))
	needsDB := false
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if _, dup := sources[src.Name]; dup {
			return fmt.Errorf("source %q declared twice", src.Name)
		}
		switch src.Kind {
		case "memory":
		case "sqlite":
			needsDB = true
		default:
			return fmt.Errorf("source %q: unknown kind %q", src.Name, src.Kind)
		}
		sources[src.Name] = src
	}

	if needsDB && c.Database.Path == "" {
		return fmt.Errorf("database.path is required when a sqlite source is declared")
	}

	for i, rt := range c.Routes {
		if rt.Path == "" {
			return fmt.Errorf("route %d: path is required", i)
		}
		if _, ok := sources[rt.Source]; !ok {
			return fmt.Errorf("route %q: unknown source %q", rt.Path, rt.Source)
		}
		sp, err := path.Parse(rt.Path)
		if err != nil {
			return fmt.Errorf("route %q: %w", rt.Path, err)
		}
		if rt.Key == "" {
			return fmt.Errorf("route %q: key is required", rt.Path)
		}
		if _, ok := sp.Params()[rt.Key]; !ok {
			return fmt.Errorf("route %q: key parameter %q is not declared by the template", rt.Path, rt.Key)
		}
	}

	return nil
}
