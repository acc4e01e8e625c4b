package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/logic/scan"
	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
	"github.com/cjeanneret/emecwheel/internal/obvy"
	"github.com/cjeanneret/emecwheel/internal/report"
	"github.com/cjeanneret/emecwheel/internal/units"
	"github.com/cjeanneret/emecwheel/internal/web"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [variant...]",
		Short: "print the derived geometry as JSON",
		Long:  "Prints the derived geometry of the given variants, or of every variant when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, err := parseVariants(args, wheel.Variants())
			if err != nil {
				return err
			}
			return a.withBuilder(cmd.Context(), func(b *builder) error {
				calcs, err := b.buildAll(vs)
				if err != nil {
					return err
				}
				sums := make([]wheel.Summary, len(calcs))
				for i, c := range calcs {
					sums[i] = c.Summary()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sums)
			})
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API and status stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Web.Addr = addr
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if cfg.Web.Tracing {
				shutdown, err := obvy.InitTracing(ctx, cfg.Web.OTLPEndpoint)
				if err != nil {
					return err
				}
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						debug.Errorf("tracer shutdown failed: %v", err)
					}
				}()
			}

			return a.withBuilder(ctx, func(b *builder) error {
				stats := obvy.NewStats()
				broadcaster := web.NewStatusBroadcaster()
				debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
				defer debug.SetOutput(os.Stdout)

				perSec, burst := cfg.RateLimit()
				srv, err := web.NewServer(web.Options{
					Addr:       cfg.Web.Addr,
					RatePerSec: perSec,
					Burst:      burst,
					Tracing:    cfg.Web.Tracing,
					Scan: web.ScanLimits{
						Defaults: scanParams(a),
						Delay:    cfg.ScanDelay(),
						MaxCells: cfg.Web.MaxScanCells,
					},
				}, broadcaster, web.Memoize(b.build, stats), stats)
				if err != nil {
					return err
				}
				return srv.Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var xlsxPath, pdfPath, pngPath, title string
	cmd := &cobra.Command{
		Use:   "report [variant...]",
		Short: "export the geometry as XLSX, PDF and PNG",
		Long:  "Writes the derived geometry of the given variants (the four principal wheels by default) to the requested files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsxPath == "" && pdfPath == "" && pngPath == "" {
				return fmt.Errorf("nothing to do: set at least one of --xlsx, --pdf, --png")
			}
			vs, err := parseVariants(args, principalWheels)
			if err != nil {
				return err
			}
			return a.withBuilder(cmd.Context(), func(b *builder) error {
				calcs, err := b.buildAll(vs)
				if err != nil {
					return err
				}
				outputs := []struct {
					path  string
					write func(io.Writer) error
				}{
					{xlsxPath, func(w io.Writer) error { return report.WriteXLSX(w, calcs) }},
					{pdfPath, func(w io.Writer) error { return report.WritePDF(w, title, calcs) }},
					{pngPath, func(w io.Writer) error { return report.PlotProfile(w, calcs) }},
				}
				for _, o := range outputs {
					if o.path == "" {
						continue
					}
					if err := writeFile(o.path, o.write); err != nil {
						return err
					}
					debug.Info("wrote %s", o.path)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&xlsxPath, "xlsx", "", "spreadsheet output path")
	f.StringVar(&pdfPath, "pdf", "", "PDF output path")
	f.StringVar(&pngPath, "png", "", "profile plot output path")
	f.StringVar(&title, "title", "", "PDF title")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// scanParams returns the configured scan grid.
func scanParams(a *app) scan.Params {
	s := a.cfg.Scan
	return scan.Params{PhiColumns: s.PhiColumns, RRows: s.RRows, ZPlanes: s.ZPlanes}
}

func newScanCmd(a *app) *cobra.Command {
	var (
		p      scan.Params
		format string
	)
	cmd := &cobra.Command{
		Use:   "scan <variant>",
		Short: "sample a wheel on a (z, phi, r) grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := wheel.ParseVariant(args[0])
			if err != nil {
				return err
			}
			def := scanParams(a)
			if p.PhiColumns == 0 {
				p.PhiColumns = def.PhiColumns
			}
			if p.RRows == 0 {
				p.RRows = def.RRows
			}
			if p.ZPlanes == 0 {
				p.ZPlanes = def.ZPlanes
			}
			sink, flush, err := sampleWriter(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.withBuilder(ctx, func(b *builder) error {
				c, err := b.build(v)
				if err != nil {
					return err
				}
				plan, err := scan.CalculatePlan(c, p)
				if err != nil {
					return err
				}
				s := scan.NewScanner(c)
				s.Delay = a.cfg.ScanDelay()
				n, err := s.Run(ctx, plan, sink)
				if ferr := flush(); err == nil {
					err = ferr
				}
				debug.Info("%d of %d samples written", n, plan.Total())
				return err
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&p.PhiColumns, "phi", 0, "phi columns (default from config)")
	f.IntVar(&p.RRows, "rows", 0, "radial rows (default from config)")
	f.IntVar(&p.ZPlanes, "planes", 0, "depth planes (default from config)")
	f.StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

var csvHeader = []string{"plane", "column", "row", "r", "phi", "z", "fan", "gap", "side", "distance"}

// sampleWriter returns a scan sink writing CSV rows or JSON lines to w.
func sampleWriter(w io.Writer, format string) (scan.Sink, func() error, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		return func(s scan.Sample) error { return enc.Encode(s) }, func() error { return nil }, nil
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return nil, nil, err
		}
		ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
		sink := func(s scan.Sample) error {
			return cw.Write([]string{
				strconv.Itoa(s.Plane), strconv.Itoa(s.Column), strconv.Itoa(s.Row),
				ff(s.R), ff(s.Phi), ff(s.Z),
				strconv.Itoa(s.Fan), strconv.Itoa(s.Gap), strconv.Itoa(s.Side),
				ff(s.Distance),
			})
		}
		flush := func() error {
			cw.Flush()
			return cw.Error()
		}
		return sink, flush, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q, want csv or json", format)
	}
}

func newFoldTableCmd(a *app) *cobra.Command {
	var scale float64
	cmd := &cobra.Command{
		Use:       "fold-table inner|outer",
		Short:     "print the fold angle table of a wheel",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"inner", "outer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var v wheel.Variant
			switch args[0] {
			case "inner":
				v = wheel.InnerAbsorberWheel
			case "outer":
				v = wheel.OuterAbsorberWheel
			default:
				return fmt.Errorf("wheel must be inner or outer, got %q", args[0])
			}
			rMin, rMax, step, cfgScale := a.cfg.FoldRange(v == wheel.InnerAbsorberWheel)
			if !cmd.Flags().Changed("length-scale") {
				scale = cfgScale
			}
			if scale <= 0 {
				return fmt.Errorf("--length-scale must be positive, got %g", scale)
			}

			return a.withBuilder(cmd.Context(), func(b *builder) error {
				c, err := b.build(v)
				if err != nil {
					return err
				}
				t, err := c.FoldAngleTable(wheel.FoldTableSpec{RMin: rMin, RMax: rMax, RStep: step, LengthScale: scale})
				if err != nil {
					return err
				}
				return writeFoldTable(cmd.OutOrStdout(), c, t)
			})
		},
	}
	cmd.Flags().Float64Var(&scale, "length-scale", 1, "fibre length factor (default from config)")
	return cmd
}

func writeFoldTable(w io.Writer, c *wheel.Calculator, t *wheel.FoldTable) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"r_mm", "half_fold_deg", "slant_deg"})
	for i, h := range t.HalfAngle {
		r := t.RMin + float64(i)*t.RStep
		cw.Write([]string{
			strconv.FormatFloat(r, 'f', 2, 64),
			strconv.FormatFloat(h/units.Deg, 'f', 6, 64),
			strconv.FormatFloat(c.ParameterizedSlantAngle(r)/units.Deg, 'f', 6, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}
