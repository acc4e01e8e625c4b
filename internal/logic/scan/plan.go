// Package scan samples a wheel on a regular (z, phi, r) grid and reports,
// for every point, the nearest fan, its gap and the distance to the fan's
// neutral fibre.
package scan

import (
	"fmt"
	"math"

	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
)

// Params sets the grid density.
type Params struct {
	PhiColumns int // points across the fans covered by the calculator
	RRows      int // points between inner and outer radius
	ZPlanes    int // depth planes across the wheel thickness
}

// Plan is the resolved grid of one calculator. Radii are not fixed: row i of
// a plane sits at the fraction (i+0.5)/RRows between that plane's radial
// bounds.
type Plan struct {
	Variant    wheel.Variant
	PhiColumns int
	RRows      int
	ZPlanes    int

	PhiStart float64 // local angle from +y of the first column
	PhiStep  float64
	ZStart   float64 // depth from the front face of the first plane
	ZStep    float64
}

// Total is the number of samples the plan produces.
func (p *Plan) Total() int {
	return p.PhiColumns * p.RRows * p.ZPlanes
}

// CalculatePlan spreads the grid over the fans [FirstFan, LastFan) and the
// full wheel depth, centring every cell.
func CalculatePlan(c *wheel.Calculator, p Params) (*Plan, error) {
	if p.PhiColumns < 1 || p.RRows < 1 || p.ZPlanes < 1 {
		return nil, fmt.Errorf("scan grid %dx%dx%d: every dimension must be at least 1", p.PhiColumns, p.RRows, p.ZPlanes)
	}

	// Angular span covered by the calculator's fans
	fans := c.LastFan() - c.FirstFan()
	span := float64(fans) * c.FanStepOnPhi()
	if fans >= c.NumberOfFans() {
		span = 2 * math.Pi
	}
	phiStep := span / float64(p.PhiColumns)
	zStep := c.WheelThickness() / float64(p.ZPlanes)

	return &Plan{
		Variant:    c.RequestedType(),
		PhiColumns: p.PhiColumns,
		RRows:      p.RRows,
		ZPlanes:    p.ZPlanes,
		PhiStart:   c.FanAngle(c.FirstFan()) + phiStep/2,
		PhiStep:    phiStep,
		ZStart:     zStep / 2,
		ZStep:      zStep,
	}, nil
}
