package wheel

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/units"
)

// ErrNoConvergence is returned when the fold angle solver does not settle.
var ErrNoConvergence = errors.New("fold angle iteration did not converge")

const (
	alphIterMax       = 100
	alphIterTolerance = 1e-12
	minSlant          = 1e-6
)

// halfWaveFibreLength is the developed length of the neutral fibre over one
// half-wave for slant angle a: two arcs of radius R turning by a plus the
// straight part between them.
// Formula: ℓ(a) = 2·(R·a + (Q − R·sin a) / cos a)
func halfWaveFibreLength(a, radius, quarter float64) float64 {
	return 2 * (radius*a + (quarter-radius*math.Sin(a))/math.Cos(a))
}

// Formula: ℓ'(a) = 2·(R + (Q·sin a − R) / cos² a)
func halfWaveFibreLengthDeriv(a, radius, quarter float64) float64 {
	c := math.Cos(a)
	return 2 * (radius + (quarter*math.Sin(a)-radius)/(c*c))
}

// AlphIter solves for the slant angle at which one half-wave of neutral
// fibre, at radius r, has the developed length given, and returns the
// half fold angle π/2 − a. The polynomial slant angle at r seeds a Newton
// iteration kept inside a shrinking bracket.
func (c *Calculator) AlphIter(r, length float64) (float64, error) {
	R, Q := c.fanFoldRadius, c.quarterWaveLength
	if R >= Q {
		return 0, fmt.Errorf("fold angle at r=%g: fold radius %g does not fit quarter wave %g", r, R, Q)
	}
	lo, hi := minSlant, math.Pi/2-minSlant
	if length <= halfWaveFibreLength(lo, R, Q) {
		return 0, fmt.Errorf("fold angle at r=%g: length %g not above straight length %g", r, length, 2*Q)
	}
	if length >= halfWaveFibreLength(hi, R, Q) {
		return 0, fmt.Errorf("fold angle at r=%g: length %g out of reach", r, length)
	}

	a := clamp(c.ParameterizedSlantAngle(r), lo, hi)
	for i := 0; i < alphIterMax; i++ {
		f := halfWaveFibreLength(a, R, Q) - length
		if f == 0 {
			return math.Pi/2 - a, nil
		}
		if f > 0 {
			hi = a
		} else {
			lo = a
		}
		next := a - f/halfWaveFibreLengthDeriv(a, R, Q)
		if math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}
		if math.Abs(next-a) < alphIterTolerance {
			debug.Trace("AlphIter r=%.1f converged in %d steps", r, i+1)
			return math.Pi/2 - next, nil
		}
		a = next
	}
	return 0, fmt.Errorf("%w at r=%g", ErrNoConvergence, r)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// FoldTableSpec selects the radial range of a fold angle table. Each entry
// solves AlphIter for LengthScale times the fibre length implied by the
// polynomial slant angle, so a scale of 1 reproduces the polynomial and
// other scales describe a stretched or compressed fan.
type FoldTableSpec struct {
	RMin        float64
	RMax        float64
	RStep       float64
	LengthScale float64
}

// DefaultFoldTableSpec covers the trusted range of the slant polynomial.
func DefaultFoldTableSpec(m Mode) FoldTableSpec {
	rng := slantRange[m]
	return FoldTableSpec{RMin: rng[0], RMax: rng[1], RStep: 1 * units.MM, LengthScale: 1}
}

// FoldTable samples the half fold angle on a regular radial grid.
type FoldTable struct {
	RMin      float64
	RStep     float64
	HalfAngle []float64
}

// At interpolates linearly, clamping r to the table range.
func (t *FoldTable) At(r float64) float64 {
	n := len(t.HalfAngle)
	if n == 0 {
		return 0
	}
	x := (r - t.RMin) / t.RStep
	if x <= 0 {
		return t.HalfAngle[0]
	}
	if x >= float64(n-1) {
		return t.HalfAngle[n-1]
	}
	i := int(x)
	f := x - float64(i)
	return t.HalfAngle[i]*(1-f) + t.HalfAngle[i+1]*f
}

type foldKey struct {
	mode    Mode
	slant   SlantParams
	radius  float64
	quarter float64
	spec    FoldTableSpec
}

type foldEntry struct {
	once  sync.Once
	table *FoldTable
	err   error
}

// foldTables is shared by every calculator; a table is built once per key.
var foldTables sync.Map

// FoldAngleTable returns the fold angle table for spec, building it on first
// use. Calculators of the same wheel with the same parameters share it.
func (c *Calculator) FoldAngleTable(spec FoldTableSpec) (*FoldTable, error) {
	if spec.RStep <= 0 || spec.RMax < spec.RMin {
		return nil, fmt.Errorf("fold table: invalid range [%g, %g] step %g", spec.RMin, spec.RMax, spec.RStep)
	}
	if spec.LengthScale == 0 {
		spec.LengthScale = 1
	}
	k := foldKey{mode: c.mode, slant: c.slant, radius: c.fanFoldRadius, quarter: c.quarterWaveLength, spec: spec}
	v, _ := foldTables.LoadOrStore(k, &foldEntry{})
	e := v.(*foldEntry)
	e.once.Do(func() {
		e.table, e.err = c.buildFoldTable(spec)
	})
	return e.table, e.err
}

func (c *Calculator) buildFoldTable(spec FoldTableSpec) (*FoldTable, error) {
	debug.Verbose("building %s wheel fold table [%g, %g] step %g", c.mode, spec.RMin, spec.RMax, spec.RStep)
	n := int(math.Floor((spec.RMax-spec.RMin)/spec.RStep+1e-9)) + 1
	t := &FoldTable{RMin: spec.RMin, RStep: spec.RStep, HalfAngle: make([]float64, n)}
	for i := range t.HalfAngle {
		r := spec.RMin + float64(i)*spec.RStep
		a := c.ParameterizedSlantAngle(r)
		length := spec.LengthScale * halfWaveFibreLength(a, c.fanFoldRadius, c.quarterWaveLength)
		h, err := c.AlphIter(r, length)
		if err != nil {
			return nil, err
		}
		t.HalfAngle[i] = h
	}
	return t, nil
}
