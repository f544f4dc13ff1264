package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cullview/internal/cache"
	"cullview/internal/index"
	"cullview/internal/lod"
	"cullview/internal/view"
)

// Config holds every engine tunable. Loadable from YAML so viewer setups can
// be tweaked without rebuilding.
type Config struct {
	Index     IndexConfig   `yaml:"index"`
	View      ViewConfig    `yaml:"view"`
	Cluster   ClusterConfig `yaml:"cluster"`
	CacheSize int           `yaml:"cache_size"`
	// ReconcileBudget caps how many visible targets one tick processes.
	// Larger pans spill into chunked continuations on following ticks.
	ReconcileBudget int `yaml:"reconcile_budget"`
}

type IndexConfig struct {
	Capacity int `yaml:"capacity"`
	MaxDepth int `yaml:"max_depth"`
}

type ViewConfig struct {
	MinZoom float64 `yaml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom"`
	PadFrac float64 `yaml:"pad_frac"`
}

type ClusterConfig struct {
	Radius         float64 `yaml:"radius"`
	ActivationZoom float64 `yaml:"activation_zoom"`
	MinClusterSize int     `yaml:"min_cluster_size"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{Capacity: index.DefaultCapacity, MaxDepth: index.DefaultMaxDepth},
		View: ViewConfig{
			MinZoom: view.DefaultMinZoom,
			MaxZoom: view.DefaultMaxZoom,
			PadFrac: view.DefaultPadFrac,
		},
		Cluster: ClusterConfig{
			Radius:         lod.DefaultRadius,
			ActivationZoom: lod.DefaultActivationZoom,
			MinClusterSize: lod.DefaultMinClusterSize,
		},
		CacheSize:       cache.DefaultCapacity,
		ReconcileBudget: 2000,
	}
}

// LoadConfig reads and parses a YAML config file, merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Index.Capacity <= 0 {
		return fmt.Errorf("index.capacity must be > 0")
	}
	if c.Index.MaxDepth <= 0 {
		return fmt.Errorf("index.max_depth must be > 0")
	}
	if c.View.MinZoom <= 0 || c.View.MaxZoom <= 0 {
		return fmt.Errorf("view zoom bounds must be > 0")
	}
	if c.View.MinZoom >= c.View.MaxZoom {
		return fmt.Errorf("view.min_zoom must be below view.max_zoom")
	}
	if c.View.PadFrac < 0 || c.View.PadFrac > 1 {
		return fmt.Errorf("view.pad_frac must be within [0, 1]")
	}
	if c.Cluster.Radius <= 0 {
		return fmt.Errorf("cluster.radius must be > 0")
	}
	if c.Cluster.ActivationZoom <= 0 {
		return fmt.Errorf("cluster.activation_zoom must be > 0")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be > 0")
	}
	if c.ReconcileBudget <= 0 {
		return fmt.Errorf("reconcile_budget must be > 0")
	}
	return nil
}
