package wheel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	saggingOffType = "saggingOff"
	saggingOnType  = "saggingOn"
)

// DistanceCalculator measures against the neutral fibre of a fan. Points
// are given in the frame of that fan.
type DistanceCalculator interface {
	DistanceToTheNeutralFibre(p Vec3, fan int) float64
	NearestPointOnNeutralFibre(p Vec3, fan int) Vec3
	Type() string
}

// distanceFactories maps a sagging mode to its calculator. Any other mode
// is read as sag polynomial coefficients.
var distanceFactories = map[string]func(c *Calculator, mode string) (DistanceCalculator, error){
	"":    newSaggingOff,
	"off": newSaggingOff,
}

// NewDistanceCalculator selects the distance calculator for a sagging mode.
func NewDistanceCalculator(mode string, c *Calculator) (DistanceCalculator, error) {
	mode = strings.TrimSpace(mode)
	if factory, ok := distanceFactories[mode]; ok {
		return factory(c, mode)
	}
	return newSaggingOn(c, mode)
}

type saggingOff struct {
	c *Calculator
}

func newSaggingOff(c *Calculator, _ string) (DistanceCalculator, error) {
	return &saggingOff{c: c}, nil
}

func (d *saggingOff) Type() string { return saggingOffType }

// foldShape is the neutral fibre around one fold apex, in a frame where the
// apex sits at z=0 and bulges towards +x.
type foldShape struct {
	sinA, cosA float64
	radius     float64 // fold radius R
	quarter    float64 // quarter wave Q
	amplitude  float64 // apex height A
}

func (d *saggingOff) shape(r float64) foldShape {
	c := d.c
	sinA, cosA := c.ParameterizedSinCos(r)
	n := math.Hypot(sinA, cosA)
	sinA, cosA = sinA/n, cosA/n
	R, Q := c.fanFoldRadius, c.quarterWaveLength
	straight := (Q - R*sinA) / cosA
	return foldShape{
		sinA:      sinA,
		cosA:      cosA,
		radius:    R,
		quarter:   Q,
		amplitude: R*(1-cosA) + straight*sinA,
	}
}

// apex returns the nearest fold apex k for depth z, the orientation of the
// fold and the depth relative to it.
func (d *saggingOff) apex(z float64) (k int, sign, dz float64) {
	c := d.c
	zz := z - c.params.StraightStartSection
	k = int(math.Floor(zz/c.halfWaveLength + 0.5))
	if k < 0 {
		k = 0
	}
	if k > c.numberOfHalfWaves {
		k = c.numberOfHalfWaves
	}
	sign = 1
	if k%2 != 0 {
		sign = -1
	}
	return k, sign, zz - float64(k)*c.halfWaveLength
}

// local returns the signed distance from (dz, x) to the fibre in the apex
// frame and the nearest fibre point. Beyond the first and last apex the
// fibre runs straight along z at the apex height.
func (f foldShape) local(dz, x float64, end bool) (dist, nz, nx float64) {
	A, R := f.amplitude, f.radius
	if end {
		return x - A, dz, A
	}
	z := math.Abs(dz)
	vz, vx := z, x-(A-R)
	if vz*f.cosA-vx*f.sinA <= 0 {
		n := math.Hypot(vz, vx)
		if n == 0 {
			return -R, 0, A
		}
		nz, nx = R*vz/n, A-R+R*vx/n
		dist = n - R
	} else {
		dist = (z-f.quarter)*f.sinA + x*f.cosA
		nz, nx = z-dist*f.sinA, x-dist*f.cosA
	}
	if dz < 0 {
		nz = -nz
	}
	return dist, nz, nx
}

func (d *saggingOff) evaluate(p Vec3) (dist float64, nearest Vec3) {
	c := d.c
	k, sign, dz := d.apex(p.Z)
	end := (k == 0 && dz < 0) || (k == c.numberOfHalfWaves && dz > 0)
	ld, nz, nx := d.shape(p.Y).local(dz, sign*p.X, end)
	nearest = Vec3{
		X: sign * nx,
		Y: p.Y,
		Z: c.params.StraightStartSection + float64(k)*c.halfWaveLength + nz,
	}
	return sign * ld, nearest
}

// DistanceToTheNeutralFibre is positive on the +x side of the fibre.
func (d *saggingOff) DistanceToTheNeutralFibre(p Vec3, _ int) float64 {
	dist, _ := d.evaluate(p)
	return dist
}

func (d *saggingOff) NearestPointOnNeutralFibre(p Vec3, _ int) Vec3 {
	_, n := d.evaluate(p)
	return n
}

// saggingOn shifts the fibre of every fan by its gravitational sag. The sag
// amplitude is a polynomial in radius, shaped parabolically along the wheel
// depth and projected on the fan's transverse axis.
type saggingOn struct {
	saggingOff
	coeffs []float64
}

func newSaggingOn(c *Calculator, mode string) (DistanceCalculator, error) {
	fields := strings.Fields(mode)
	if len(fields) == 0 || len(fields) > 5 {
		return nil, fmt.Errorf("%w: sagging mode %q needs 1 to 5 coefficients", ErrInvalidParameters, mode)
	}
	coeffs := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: sagging mode %q: %v", ErrInvalidParameters, mode, err)
		}
		coeffs[i] = v
	}
	return &saggingOn{saggingOff: saggingOff{c: c}, coeffs: coeffs}, nil
}

func (d *saggingOn) Type() string { return saggingOnType }

// Sag returns the transverse fibre displacement of fan at (r, z).
func (d *saggingOn) Sag(p Vec3, fan int) float64 {
	c := d.c
	amp := 0.0
	for i := len(d.coeffs) - 1; i >= 0; i-- {
		amp = amp*p.Y + d.coeffs[i]
	}
	u := clamp(p.Z/c.wheelThickness, 0, 1)
	return float64(c.side) * amp * 4 * u * (1 - u) * -math.Sin(c.FanAngle(fan))
}

func (d *saggingOn) DistanceToTheNeutralFibre(p Vec3, fan int) float64 {
	p.X -= d.Sag(p, fan)
	dist, _ := d.evaluate(p)
	return dist
}

func (d *saggingOn) NearestPointOnNeutralFibre(p Vec3, fan int) Vec3 {
	delta := d.Sag(p, fan)
	p.X -= delta
	_, n := d.evaluate(p)
	n.X += delta
	return n
}
