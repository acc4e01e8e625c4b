package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"absolute inside configs", filepath.Join(cfgDir, "emec.yaml"), false},
		{"relative inside configs", "configs/emec.yaml", false},
		{"space in name", filepath.Join(cfgDir, "emec run.yaml"), false},
		{"accent in name", filepath.Join(cfgDir, "géométrie.yaml"), false},
		{"empty", "", true},
		{"traversal", "../../etc/passwd", true},
		{"traversal through configs", "configs/../../../etc/shadow", true},
		{"json", "configs/emec.json", true},
		{"yml", "configs/emec.yml", true},
		{"no extension", "configs/emec", true},
		{"other dir", "other/emec.yaml", true},
		{"bare file", "emec.yaml", true},
		{"tmp", "/tmp/emec.yaml", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfigPath(tc.path)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %q, got nil", tc.path)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tc.path, err)
			}
		})
	}
}

func TestValidateConfigPath_VeryLongPath(t *testing.T) {
	long := "configs/" + strings.Repeat("a", 1000) + ".yaml"
	// must not panic
	_ = ValidateConfigPath(long)
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgDir := filepath.Join(t.TempDir(), "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "emec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	yaml := `
parameters:
  source: ini
  path: configs/emec.ini
  cache_dir: /var/cache/emec
  tag: ATLAS-R2-2016-01-00-01
  node: ATLAS
geometry:
  side: -1
  sagging_mode: "0.1 0.002"
  phi_rotation: true
  fold_table:
    r_min_inner: 300
    r_max_inner: 700
    r_step: 5
    length_scale: 1.02
scan:
  phi_columns: 32
  r_rows: 10
  z_planes: 6
  delay_ms: 15
web:
  addr: ":9090"
  rate_per_sec: 5
  tracing: true
defaults:
  debug_level: 2
`
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parameters.Source != SourceIni || cfg.Parameters.Path != "configs/emec.ini" {
		t.Errorf("parameters = %+v", cfg.Parameters)
	}
	if cfg.Parameters.Tag != "ATLAS-R2-2016-01-00-01" || cfg.Parameters.Node != "ATLAS" {
		t.Errorf("tag/node = %q/%q", cfg.Parameters.Tag, cfg.Parameters.Node)
	}
	if cfg.Side() != -1 {
		t.Errorf("Side() = %d, want -1", cfg.Side())
	}
	if cfg.Geometry.SaggingMode == nil || *cfg.Geometry.SaggingMode != "0.1 0.002" {
		t.Errorf("sagging_mode = %v", cfg.Geometry.SaggingMode)
	}
	if cfg.Geometry.PhiRotation == nil || !*cfg.Geometry.PhiRotation {
		t.Errorf("phi_rotation = %v", cfg.Geometry.PhiRotation)
	}
	rMin, rMax, step, scale := cfg.FoldRange(true)
	if rMin != 300 || rMax != 700 || step != 5 || scale != 1.02 {
		t.Errorf("FoldRange(inner) = %v %v %v %v", rMin, rMax, step, scale)
	}
	rMin, rMax, _, _ = cfg.FoldRange(false)
	if rMin != 600 || rMax != 2050 {
		t.Errorf("FoldRange(outer) = %v %v, want defaults", rMin, rMax)
	}
	if cfg.Scan.PhiColumns != 32 || cfg.Scan.RRows != 10 || cfg.Scan.ZPlanes != 6 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.ScanDelay() != 15*time.Millisecond {
		t.Errorf("ScanDelay() = %v", cfg.ScanDelay())
	}
	perSec, burst := cfg.RateLimit()
	if perSec != 5 || burst != 10 {
		t.Errorf("RateLimit() = %v, %d; want 5, 10", perSec, burst)
	}
	if cfg.Web.Addr != ":9090" || !cfg.Web.Tracing {
		t.Errorf("web = %+v", cfg.Web)
	}
	if cfg.Defaults.DebugLevel != 2 {
		t.Errorf("debug_level = %d", cfg.Defaults.DebugLevel)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "defaults:\n  debug_level: 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"source", cfg.Parameters.Source, SourceBuiltin},
		{"tag", cfg.Parameters.Tag, "EMEC-builtin"},
		{"side", cfg.Side(), 1},
		{"phi_columns", cfg.Scan.PhiColumns, 16},
		{"r_rows", cfg.Scan.RRows, 8},
		{"z_planes", cfg.Scan.ZPlanes, 4},
		{"addr", cfg.Web.Addr, ":8080"},
		{"max_scan_cells", cfg.Web.MaxScanCells, 20000},
		{"r_step", cfg.Geometry.FoldTable.RStep, 1.0},
		{"length_scale", cfg.Geometry.FoldTable.LengthScale, 1.0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s default = %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.Geometry.SaggingMode != nil || cfg.Geometry.PhiRotation != nil {
		t.Error("overrides should stay unset")
	}
	if perSec, _ := cfg.RateLimit(); perSec != 0 {
		t.Errorf("rate limit should be off by default, got %v", perSec)
	}
}

func TestLoad_PostgresDefaultEnv(t *testing.T) {
	cfg, err := Load(writeConfig(t, "parameters:\n  source: postgres\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parameters.DSNEnv != "EMEC_PG_DSN" {
		t.Errorf("dsn_env = %q, want EMEC_PG_DSN", cfg.Parameters.DSNEnv)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown source", "parameters:\n  source: mongo\n"},
		{"ini without path", "parameters:\n  source: ini\n"},
		{"bad side", "geometry:\n  side: 2\n"},
		{"inverted fold range", "geometry:\n  fold_table:\n    r_min_outer: 3000\n"},
		{"negative delay", "scan:\n  delay_ms: -1\n"},
		{"negative rate", "web:\n  rate_per_sec: -3\n"},
		{"debug level", "defaults:\n  debug_level: 9\n"},
		{"invalid yaml", "{{{{invalid yaml!!!!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Errorf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parameters.Source != SourceBuiltin {
		t.Errorf("source = %q, want builtin", cfg.Parameters.Source)
	}
}

func TestLoad_UnknownFields(t *testing.T) {
	yaml := `
parameters:
  source: builtin
unknown_section:
  foo: bar
`
	if _, err := Load(writeConfig(t, yaml)); err != nil {
		t.Errorf("unknown fields should be ignored, got error: %v", err)
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	path := writeConfig(t, "")
	data := make([]byte, MaxConfigFileBytes+1)
	for i := range data {
		data[i] = '#'
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for oversized config file, got nil")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	path := filepath.Join(filepath.Dir(writeConfig(t, "")), "nonexistent.yaml")
	if _, err := Load(path); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Parameters.Source != SourceBuiltin || cfg.Side() != 1 || cfg.Web.Addr != ":8080" {
		t.Errorf("Default() = %+v", cfg)
	}
}
