// Package config holds the process-wide settings of the viewer: file locations,
// URLs, page copy and the variable catalog. A Config is built once at startup
// and passed by pointer to every component; nothing mutates it afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"go.ngs.io/hydroviewer/internal/domain"
)

// Config is the immutable application configuration.
type Config struct {
	Port               string   `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogFormat          string   `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Title            string `env:"APP_TITLE" envDefault:"The Amazon HydroViewer" validate:"required"`
	DocumentationURL string `env:"DOCUMENTATION_URL" envDefault:"https://blackteacatsu.github.io/dokkuments/" validate:"omitempty,url"`

	RegionsSource    string `env:"REGIONS_SOURCE" envDefault:"./data/hybas_sa_lev05_amazon.geojson" validate:"required"`
	RegionIDField    string `env:"REGION_ID_FIELD" envDefault:"PFAF_ID" validate:"required"`
	RegionLabelField string `env:"REGION_LABEL_FIELD" envDefault:"PFAF_ID"`

	RoutingEnsemblePath string `env:"ROUTING_ENSEMBLE_PATH" envDefault:"./data/routing_ensemble.nc" validate:"required"`
	SurfaceEnsemblePath string `env:"SURFACE_ENSEMBLE_PATH" envDefault:"./data/surface_ensemble.nc" validate:"required"`

	CatalogPath string `env:"VARIABLE_CATALOG_PATH"`

	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m" validate:"gt=0"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m" validate:"gt=0"`

	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"60s" validate:"gt=0"`
	FetchMaxRetries int           `env:"FETCH_MAX_RETRIES" envDefault:"3" validate:"gte=0,lte=10"`

	Catalog *Catalog `env:"-" validate:"-"`
}

// Load reads an optional .env file, parses the environment into a Config,
// loads the variable catalog and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	catalog, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	cfg.Catalog = catalog

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the catalog.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Catalog == nil {
		return fmt.Errorf("invalid config: variable catalog not loaded")
	}
	return c.Catalog.Validate()
}

// DatasetPath returns the ensemble file backing variables of family f.
func (c *Config) DatasetPath(f domain.Family) string {
	if f == domain.FamilyRouting {
		return c.RoutingEnsemblePath
	}
	return c.SurfaceEnsemblePath
}

// LabelField returns the region property used for display labels.
func (c *Config) LabelField() string {
	if c.RegionLabelField == "" {
		return c.RegionIDField
	}
	return c.RegionLabelField
}

// fileExists is used by the catalog loader to decide between the embedded and
// an on-disk catalog.
func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
