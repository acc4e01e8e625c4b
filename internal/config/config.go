package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes bounds the size of a configuration file.
const MaxConfigFileBytes = 1 << 20

// Parameter source kinds.
const (
	SourceBuiltin  = "builtin"
	SourceIni      = "ini"
	SourcePostgres = "postgres"
)

// ParametersConfig selects where geometry parameters are read from.
type ParametersConfig struct {
	Source   string `yaml:"source"`    // builtin, ini or postgres
	Path     string `yaml:"path"`      // INI file (source: ini)
	DSNEnv   string `yaml:"dsn_env"`   // env variable holding the lib/pq DSN (source: postgres)
	CacheDir string `yaml:"cache_dir"` // optional badger replica directory
	Tag      string `yaml:"tag"`       // primary tag, e.g. "ATLAS-R2-2016-01-00-01"
	Node     string `yaml:"node"`      // primary node, e.g. "ATLAS"
}

// FoldTableConfig is the radial grid of the fold angle tables (mm).
type FoldTableConfig struct {
	RMinInner   float64 `yaml:"r_min_inner"`
	RMaxInner   float64 `yaml:"r_max_inner"`
	RMinOuter   float64 `yaml:"r_min_outer"`
	RMaxOuter   float64 `yaml:"r_max_outer"`
	RStep       float64 `yaml:"r_step"`
	LengthScale float64 `yaml:"length_scale"` // 1 reproduces the slant polynomial
}

// GeometryConfig holds per-run geometry choices.
type GeometryConfig struct {
	Side        int             `yaml:"side"`         // +1 or -1 end-cap (0 = +1)
	SaggingMode *string         `yaml:"sagging_mode"` // overrides the parameter source when set
	PhiRotation *bool           `yaml:"phi_rotation"` // overrides the parameter source when set
	FoldTable   FoldTableConfig `yaml:"fold_table"`
}

// ScanConfig is the default grid of a scan.
type ScanConfig struct {
	PhiColumns int `yaml:"phi_columns"`
	RRows      int `yaml:"r_rows"`
	ZPlanes    int `yaml:"z_planes"`
	DelayMs    int `yaml:"delay_ms"` // pause between columns
}

// WebConfig configures the HTTP server.
type WebConfig struct {
	Addr         string  `yaml:"addr"`
	RatePerSec   float64 `yaml:"rate_per_sec"` // per remote address, 0 = unlimited
	Burst        int     `yaml:"burst"`
	Tracing      bool    `yaml:"tracing"`       // export OTLP traces
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // host:port, empty = exporter default
	MaxScanCells int     `yaml:"max_scan_cells"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Parameters ParametersConfig `yaml:"parameters"`
	Geometry   GeometryConfig   `yaml:"geometry"`
	Scan       ScanConfig       `yaml:"scan"`
	Web        WebConfig        `yaml:"web"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
}

// ValidateConfigPath accepts only .yaml files directly inside a "configs"
// directory, after cleaning the path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	clean := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file %s is %d bytes, limit is %d", path, info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a file: built-in
// parameters and default limits.
func Default() *Config {
	var cfg Config
	_ = cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() error {
	p := &cfg.Parameters
	if p.Source == "" {
		p.Source = SourceBuiltin
	}
	switch p.Source {
	case SourceBuiltin:
	case SourceIni:
		if p.Path == "" {
			return fmt.Errorf("parameters.path is required for source %q", SourceIni)
		}
	case SourcePostgres:
		if p.DSNEnv == "" {
			p.DSNEnv = "EMEC_PG_DSN"
		}
	default:
		return fmt.Errorf("parameters.source must be builtin, ini or postgres, got %q", p.Source)
	}
	if p.Tag == "" {
		p.Tag = "EMEC-builtin"
	}

	g := &cfg.Geometry
	switch {
	case g.Side == 0:
		g.Side = 1
	case g.Side != 1 && g.Side != -1:
		return fmt.Errorf("geometry.side must be 1 or -1, got %d", g.Side)
	}
	ft := &g.FoldTable
	if ft.RMinInner <= 0 {
		ft.RMinInner = 290
	}
	if ft.RMaxInner <= 0 {
		ft.RMaxInner = 710
	}
	if ft.RMinOuter <= 0 {
		ft.RMinOuter = 600
	}
	if ft.RMaxOuter <= 0 {
		ft.RMaxOuter = 2050
	}
	if ft.RStep <= 0 {
		ft.RStep = 1
	}
	if ft.LengthScale <= 0 {
		ft.LengthScale = 1
	}
	if ft.RMinInner >= ft.RMaxInner || ft.RMinOuter >= ft.RMaxOuter {
		return fmt.Errorf("geometry.fold_table: r_min must be below r_max")
	}

	s := &cfg.Scan
	if s.PhiColumns <= 0 {
		s.PhiColumns = 16
	}
	if s.RRows <= 0 {
		s.RRows = 8
	}
	if s.ZPlanes <= 0 {
		s.ZPlanes = 4
	}
	if s.DelayMs < 0 {
		return fmt.Errorf("scan.delay_ms must be >= 0, got %d", s.DelayMs)
	}

	w := &cfg.Web
	if w.Addr == "" {
		w.Addr = ":8080"
	}
	if w.RatePerSec < 0 {
		return fmt.Errorf("web.rate_per_sec must be >= 0, got %.2f", w.RatePerSec)
	}
	if w.RatePerSec > 0 && w.Burst <= 0 {
		w.Burst = int(2 * w.RatePerSec)
		if w.Burst < 1 {
			w.Burst = 1
		}
	}
	if w.MaxScanCells <= 0 {
		w.MaxScanCells = 20000
	}

	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	return nil
}

// Side returns the end-cap side, +1 or -1.
func (c *Config) Side() int {
	return c.Geometry.Side
}

// RateLimit returns the per-address request rate and burst. A zero rate
// disables limiting.
func (c *Config) RateLimit() (perSec float64, burst int) {
	return c.Web.RatePerSec, c.Web.Burst
}

// ScanDelay returns the pause between two scan columns.
func (c *Config) ScanDelay() time.Duration {
	return time.Duration(c.Scan.DelayMs) * time.Millisecond
}

// FoldRange returns the fold table grid of the inner or outer wheel.
func (c *Config) FoldRange(inner bool) (rMin, rMax, step, scale float64) {
	ft := c.Geometry.FoldTable
	if inner {
		return ft.RMinInner, ft.RMaxInner, ft.RStep, ft.LengthScale
	}
	return ft.RMinOuter, ft.RMaxOuter, ft.RStep, ft.LengthScale
}
