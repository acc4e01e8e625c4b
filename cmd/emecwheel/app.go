package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cjeanneret/emecwheel/internal/config"
	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
	"github.com/cjeanneret/emecwheel/internal/rdb"
)

// app carries the global flags and the loaded configuration.
type app struct {
	cfgPath    string
	side       int
	tag        string
	node       string
	debugLevel int
	sagging    string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "emecwheel",
		Short:         "EMEC accordion wheel geometry",
		Long:          "Computes the geometry of the EMEC inner and outer wheels: fan numbering, radial bounds, slant and fold angles, and the distance to the nearest fan.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to a YAML config file inside a configs/ directory")
	pf.IntVar(&a.side, "side", 1, "end-cap side, 1 or -1")
	pf.StringVar(&a.tag, "tag", "", "parameter tag (overrides config)")
	pf.StringVar(&a.node, "node", "", "parameter node (overrides config)")
	pf.IntVar(&a.debugLevel, "debug", 0, "debug level 0-4 (overrides config)")
	pf.StringVar(&a.sagging, "sagging", "", `sagging mode, "off" or up to 5 coefficients (overrides source)`)

	root.AddCommand(
		newDumpCmd(a),
		newServeCmd(a),
		newReportCmd(a),
		newScanCmd(a),
		newFoldTableCmd(a),
	)
	return root
}

// setup loads the configuration and applies flags that were set explicitly.
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgPath == "" {
		a.cfg = config.Default()
	} else if a.cfg, err = config.Load(a.cfgPath); err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("side") {
		if a.side != 1 && a.side != -1 {
			return fmt.Errorf("--side must be 1 or -1, got %d", a.side)
		}
		a.cfg.Geometry.Side = a.side
	}
	if flags.Changed("tag") {
		a.cfg.Parameters.Tag = a.tag
	}
	if flags.Changed("node") {
		a.cfg.Parameters.Node = a.node
	}
	if flags.Changed("debug") {
		if a.debugLevel < 0 || a.debugLevel > 4 {
			return fmt.Errorf("--debug must be between 0 and 4, got %d", a.debugLevel)
		}
		a.cfg.Defaults.DebugLevel = a.debugLevel
	}
	if flags.Changed("sagging") {
		s := a.sagging
		a.cfg.Geometry.SaggingMode = &s
	}

	debug.Init(a.cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", a.cfgPath)
	debug.PrintStruct("Parameters", a.cfg.Parameters)
	return nil
}

// openSource builds the parameter source selected by the configuration,
// wrapped in a badger replica when a cache directory is set. The returned
// closer releases database handles.
func openSource(ctx context.Context, cfg *config.Config) (rdb.Source, func() error, error) {
	var (
		src    rdb.Source
		closer = func() error { return nil }
	)
	p := cfg.Parameters
	switch p.Source {
	case config.SourceBuiltin:
		src = rdb.Builtin()
	case config.SourceIni:
		s, err := rdb.LoadIni(p.Path)
		if err != nil {
			return nil, nil, err
		}
		src = s
	case config.SourcePostgres:
		// .env is optional; the variable may come from the environment
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load .env: %w", err)
		}
		dsn := os.Getenv(p.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("%w: environment variable %s is not set", rdb.ErrSourceUnavailable, p.DSNEnv)
		}
		s, err := rdb.OpenSQL(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		src, closer = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown parameter source %q", p.Source)
	}

	if p.CacheDir != "" {
		cached, err := rdb.NewCachedSource(src, p.CacheDir)
		if err != nil {
			closer()
			return nil, nil, err
		}
		inner := closer
		src = cached
		closer = func() error {
			return errors.Join(cached.Close(), inner())
		}
	}
	debug.Value("Parameter source", p.Source)
	return src, closer, nil
}

// builder loads the parameters once and builds calculators from them.
type builder struct {
	params wheel.Parameters
	side   int
	opts   []wheel.Option
}

func newBuilder(ctx context.Context, src rdb.Source, cfg *config.Config) (*builder, error) {
	p, err := wheel.LoadParameters(ctx, src, cfg.Parameters.Tag, cfg.Parameters.Node)
	if err != nil {
		return nil, fmt.Errorf("load geometry parameters: %w", err)
	}
	b := &builder{params: p, side: cfg.Side()}
	if m := cfg.Geometry.SaggingMode; m != nil {
		b.opts = append(b.opts, wheel.WithSaggingMode(*m))
	}
	if r := cfg.Geometry.PhiRotation; r != nil {
		b.opts = append(b.opts, wheel.WithPhiRotation(*r))
	}
	return b, nil
}

func (b *builder) build(v wheel.Variant) (*wheel.Calculator, error) {
	return wheel.New(v, b.side, b.params, b.opts...)
}

func (b *builder) buildAll(vs []wheel.Variant) ([]*wheel.Calculator, error) {
	out := make([]*wheel.Calculator, 0, len(vs))
	for _, v := range vs {
		c, err := b.build(v)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", v, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// withBuilder opens the configured source, loads the parameters and hands
// a builder to fn.
func (a *app) withBuilder(ctx context.Context, fn func(*builder) error) error {
	src, closeSrc, err := openSource(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSrc(); err != nil {
			debug.Errorf("closing parameter source failed: %v", err)
		}
	}()
	b, err := newBuilder(ctx, src, a.cfg)
	if err != nil {
		return err
	}
	return fn(b)
}

// parseVariants resolves variant names; no names means fallback.
func parseVariants(args []string, fallback []wheel.Variant) ([]wheel.Variant, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	vs := make([]wheel.Variant, 0, len(args))
	for _, s := range args {
		v, err := wheel.ParseVariant(s)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// principalWheels are the four wheels reported by default.
var principalWheels = []wheel.Variant{
	wheel.InnerAbsorberWheel,
	wheel.OuterAbsorberWheel,
	wheel.InnerElectrodWheel,
	wheel.OuterElectrodWheel,
}
