package wheel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// TanTheta converts a pseudorapidity into tan θ.
// Formula: tan θ = 2·e^(−η) / (1 − e^(−2η))
func TanTheta(eta float64) float64 {
	e := math.Exp(-eta)
	return 2 * e / (1 - e*e)
}

// WheelInnerRadius returns the inner radius at the front and back faces.
// The outer wheel has a third value at the transition plane where its
// outer edge reaches the radial cutoff; zMid is the z offset of that plane
// from the front face, and 0 for the inner wheel.
func (c *Calculator) WheelInnerRadius() (radii []float64, zMid float64) {
	p := c.params
	zF, zB := c.zWheelFrontFace, c.zWheelBackFace
	if c.mode == InnerWheelMode {
		t := TanTheta(p.EtaHi)
		return []float64{zF * t, zB * t}, 0
	}
	tMid := TanTheta(p.EtaMid)
	zTransition := p.ROuterCutoff / TanTheta(p.EtaLow)
	hg := p.HalfGapBetweenWheels
	return []float64{
		zF*tMid + hg,
		zTransition*tMid + hg,
		zB*tMid + hg,
	}, zTransition - zF
}

// WheelOuterRadius returns the outer radius at the front and back faces,
// with the transition value in the middle for the outer wheel. The inner
// wheel keeps a half-gap clearance to the outer one.
func (c *Calculator) WheelOuterRadius() []float64 {
	p := c.params
	zF, zB := c.zWheelFrontFace, c.zWheelBackFace
	if c.mode == InnerWheelMode {
		t := TanTheta(p.EtaMid)
		hg := p.HalfGapBetweenWheels
		return []float64{zF*t - hg, zB*t - hg}
	}
	return []float64{zF * TanTheta(p.EtaLow), p.ROuterCutoff, p.ROuterCutoff}
}

// Profile returns the closed (z, r) outline of the wheel, with X holding z.
func (c *Calculator) Profile() []r2.Vec {
	inner, zMid := c.WheelInnerRadius()
	outer := c.WheelOuterRadius()
	zF, zB := c.zWheelFrontFace, c.zWheelBackFace

	if c.mode == InnerWheelMode {
		return []r2.Vec{
			{X: zF, Y: inner[0]},
			{X: zB, Y: inner[1]},
			{X: zB, Y: outer[1]},
			{X: zF, Y: outer[0]},
			{X: zF, Y: inner[0]},
		}
	}
	zT := zF + zMid
	return []r2.Vec{
		{X: zF, Y: inner[0]},
		{X: zT, Y: inner[1]},
		{X: zB, Y: inner[2]},
		{X: zB, Y: outer[2]},
		{X: zT, Y: outer[1]},
		{X: zF, Y: outer[0]},
		{X: zF, Y: inner[0]},
	}
}

// RadiusRangeAt interpolates the inner and outer radius at depth z, measured
// from the front face. z is clamped to the wheel.
func (c *Calculator) RadiusRangeAt(z float64) (rMin, rMax float64) {
	z = clamp(z, 0, c.wheelThickness)
	inner, zMid := c.WheelInnerRadius()
	outer := c.WheelOuterRadius()
	zs := []float64{0, c.wheelThickness}
	if c.mode == OuterWheelMode {
		zs = []float64{0, clamp(zMid, 0, c.wheelThickness), c.wheelThickness}
	}
	return interpolate(zs, inner, z), interpolate(zs, outer, z)
}

func interpolate(xs, ys []float64, x float64) float64 {
	for i := 1; i < len(xs); i++ {
		if x <= xs[i] || i == len(xs)-1 {
			span := xs[i] - xs[i-1]
			if span <= 0 {
				return ys[i]
			}
			f := (x - xs[i-1]) / span
			return ys[i-1] + f*(ys[i]-ys[i-1])
		}
	}
	return ys[0]
}
