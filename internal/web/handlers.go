package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/logic/scan"
	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
	"github.com/cjeanneret/emecwheel/internal/obvy"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// CalculatorFunc returns the calculator of a wheel variant.
type CalculatorFunc func(v wheel.Variant) (*wheel.Calculator, error)

// Memoize builds each variant once and reuses it; calculators are read-only
// after construction. Failures are not cached.
func Memoize(build CalculatorFunc, stats *obvy.Stats) CalculatorFunc {
	var mu sync.Mutex
	cache := make(map[wheel.Variant]*wheel.Calculator)
	return func(v wheel.Variant) (*wheel.Calculator, error) {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := cache[v]; ok {
			return c, nil
		}
		c, err := build(v)
		if stats != nil {
			stats.CalculatorBuilt(v.String(), err)
		}
		if err != nil {
			return nil, err
		}
		cache[v] = c
		return c, nil
	}
}

// ScanRequest is the body of POST /scan. Zero grid sizes take the
// configured defaults.
type ScanRequest struct {
	Variant    string `json:"variant"`
	PhiColumns int    `json:"phi_columns"`
	RRows      int    `json:"r_rows"`
	ZPlanes    int    `json:"z_planes"`
}

// ScanLimits holds scan defaults and bounds (from config).
type ScanLimits struct {
	Defaults scan.Params
	Delay    time.Duration
	MaxCells int
}

// Point is a position in mm.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LocateResponse describes where a point sits relative to the fans.
type LocateResponse struct {
	Point         Point   `json:"point"`
	Fan           int     `json:"fan"`
	Distance      float64 `json:"distance"`
	Gap           int     `json:"gap"`
	GapSide       int     `json:"gap_side"`
	FibreDistance float64 `json:"fibre_distance"`
	Nearest       Point   `json:"nearest"`
}

// RadiusResponse is the radial extent of a wheel.
type RadiusResponse struct {
	Inner   []float64 `json:"inner"`
	ZMid    float64   `json:"z_mid"`
	Outer   []float64 `json:"outer"`
	Profile []Point   `json:"profile"` // x = z, y = r
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Calculator  CalculatorFunc
	Limits      ScanLimits
	stats       *obvy.Stats

	runningMu  sync.Mutex
	running    bool
	cancelScan context.CancelFunc
	staticFS   fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If calc is nil, every wheel route answers 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, calc CalculatorFunc, limits ScanLimits, stats *obvy.Stats, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Calculator:  calc,
		Limits:      limits,
		stats:       stats,
		staticFS:    staticFS,
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// calculator resolves the {variant} route variable.
func (h *Handlers) calculator(w http.ResponseWriter, name string) (*wheel.Calculator, bool) {
	if h.Calculator == nil {
		writeError(w, http.StatusServiceUnavailable, "geometry source not configured")
		return nil, false
	}
	v, err := wheel.ParseVariant(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	c, err := h.Calculator(v)
	if err != nil {
		debug.Errorf("build %s: %v", v, err)
		writeError(w, http.StatusInternalServerError, "cannot build calculator: "+err.Error())
		return nil, false
	}
	return c, true
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleVariants lists the variant names accepted by the wheel routes.
func (h *Handlers) HandleVariants(w http.ResponseWriter, r *http.Request) {
	vs := wheel.Variants()
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.String()
	}
	writeJSON(w, http.StatusOK, names)
}

// HandleWheel returns the derived geometry of one variant.
func (h *Handlers) HandleWheel(w http.ResponseWriter, r *http.Request) {
	c, ok := h.calculator(w, mux.Vars(r)["variant"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Summary())
}

// HandleGap maps a gap number of the calculator to wheel numbering.
func (h *Handlers) HandleGap(w http.ResponseWriter, r *http.Request) {
	c, ok := h.calculator(w, mux.Vars(r)["variant"])
	if !ok {
		return
	}
	i, err := strconv.Atoi(mux.Vars(r)["i"])
	if err != nil || i < 0 || i >= c.NumberOfFans() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("gap must be an integer in [0, %d)", c.NumberOfFans()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"gap": i, "wheel_gap": c.PhiGapNumberForWheel(i)})
}

// HandleRadius returns the radial bounds and the (z, r) outline.
func (h *Handlers) HandleRadius(w http.ResponseWriter, r *http.Request) {
	c, ok := h.calculator(w, mux.Vars(r)["variant"])
	if !ok {
		return
	}
	inner, zMid := c.WheelInnerRadius()
	resp := RadiusResponse{Inner: inner, ZMid: zMid, Outer: c.WheelOuterRadius()}
	for _, p := range c.Profile() {
		resp.Profile = append(resp.Profile, Point{X: p.X, Y: p.Y})
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseCoord(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("query parameter %q must be a finite number", name)
	}
	return v, nil
}

// HandleLocate finds the fan and gap nearest to ?x=&y=&z= (mm, z from the
// wheel front face).
func (h *Handlers) HandleLocate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.calculator(w, mux.Vars(r)["variant"])
	if !ok {
		return
	}
	var coords [3]float64
	for i, name := range []string{"x", "y", "z"} {
		v, err := parseCoord(r, name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		coords[i] = v
	}
	p := wheel.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}

	d, fan := c.DistanceToTheNearestFan(p)
	gap, side := c.PhiGapAndSide(p)
	nearest := c.NearestPointOnNeutralFibre(p, fan)
	writeJSON(w, http.StatusOK, LocateResponse{
		Point:         Point{X: p.X, Y: p.Y, Z: p.Z},
		Fan:           fan,
		Distance:      d,
		Gap:           gap,
		GapSide:       side,
		FibreDistance: c.DistanceToTheNeutralFibre(p, fan),
		Nearest:       Point{X: nearest.X, Y: nearest.Y, Z: nearest.Z},
	})
}

// validateScan fills defaults and checks the grid against the cell limit.
func (h *Handlers) validateScan(req *ScanRequest) error {
	if req.Variant == "" {
		return errors.New("variant is required")
	}
	if req.PhiColumns == 0 {
		req.PhiColumns = h.Limits.Defaults.PhiColumns
	}
	if req.RRows == 0 {
		req.RRows = h.Limits.Defaults.RRows
	}
	if req.ZPlanes == 0 {
		req.ZPlanes = h.Limits.Defaults.ZPlanes
	}
	if req.PhiColumns < 1 || req.RRows < 1 || req.ZPlanes < 1 {
		return errors.New("grid sizes must be positive")
	}
	if h.Limits.MaxCells > 0 && req.PhiColumns*req.RRows*req.ZPlanes > h.Limits.MaxCells {
		return fmt.Errorf("grid of %d points exceeds the limit of %d", req.PhiColumns*req.RRows*req.ZPlanes, h.Limits.MaxCells)
	}
	return nil
}

// HandleScan handles POST /scan: the scan runs in the background and streams
// its samples to status subscribers.
func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validateScan(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, ok := h.calculator(w, req.Variant)
	if !ok {
		return
	}
	plan, err := scan.CalculatePlan(c, scan.Params{PhiColumns: req.PhiColumns, RRows: req.RRows, ZPlanes: req.ZPlanes})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		writeError(w, http.StatusConflict, "scan already in progress")
		return
	}
	// Detach from the request but keep its trace context
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	h.running = true
	h.cancelScan = cancel
	h.runningMu.Unlock()

	go h.runScan(ctx, cancel, c, plan)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"status": "started", "samples": plan.Total()})
}

func (h *Handlers) runScan(ctx context.Context, cancel context.CancelFunc, c *wheel.Calculator, plan *scan.Plan) {
	defer func() {
		cancel()
		h.runningMu.Lock()
		h.running = false
		h.cancelScan = nil
		h.runningMu.Unlock()
	}()

	ctx, span := otel.Tracer(obvy.TracerName).Start(ctx, "scan")
	defer span.End()
	span.SetAttributes(
		attribute.String("variant", plan.Variant.String()),
		attribute.Int("samples", plan.Total()),
	)
	if h.stats != nil {
		h.stats.ScansRunning.Inc()
		defer h.stats.ScansRunning.Dec()
	}

	h.Broadcaster.Broadcast("info", fmt.Sprintf("Scan of %s started (%d points)", plan.Variant, plan.Total()))
	s := scan.NewScanner(c)
	s.Delay = h.Limits.Delay
	n, err := s.Run(ctx, plan, func(smp scan.Sample) error {
		if h.stats != nil {
			h.stats.ScanSamples.Inc()
		}
		return h.Broadcaster.BroadcastData(KindSample, smp)
	})
	span.SetAttributes(attribute.Int("delivered", n))
	switch {
	case errors.Is(err, context.Canceled):
		h.Broadcaster.Broadcast("warn", fmt.Sprintf("Scan cancelled after %d points", n))
	case err != nil:
		span.RecordError(err)
		h.Broadcaster.Broadcast("error", "Scan failed: "+err.Error())
		debug.Errorf("scan failed: %v", err)
	default:
		h.Broadcaster.Broadcast("info", fmt.Sprintf("Scan complete (%d points)", n))
	}
}

// HandleCancelScan handles DELETE /scan.
func (h *Handlers) HandleCancelScan(w http.ResponseWriter, r *http.Request) {
	h.runningMu.Lock()
	cancel := h.cancelScan
	h.runningMu.Unlock()
	if cancel == nil {
		writeError(w, http.StatusNotFound, "no scan in progress")
		return
	}
	cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
