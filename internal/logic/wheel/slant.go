package wheel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/units"
)

// SlantParams are the coefficients of the slant angle polynomial:
// angle(r) = c0 + c1·r + c2·r² + c3·r³ + c4·r⁴, in degrees for r in mm.
type SlantParams [5]float64

// The outer c4 is -6.8473e-12. The -6.8473e-11 quoted in some tables gives
// about -80 deg at r = 1200 mm.
var defaultSlant = [2]SlantParams{
	InnerWheelMode: {-50.069, 0.50073, -1.0127e-3, 1.0390e-6, -4.2176e-10},
	OuterWheelMode: {-34.254, 0.15528, -1.1670e-4, 4.5018e-8, -6.8473e-12},
}

// DefaultSlant returns the built-in polynomial of a wheel.
func DefaultSlant(m Mode) SlantParams {
	return defaultSlant[m]
}

// Radial range over which the slant polynomial is trusted.
var slantRange = [2][2]float64{
	InnerWheelMode: {290 * units.MM, 710 * units.MM},
	OuterWheelMode: {600 * units.MM, 2050 * units.MM},
}

// parseSlant reads a whitespace separated override. An empty string or
// "default" keeps the built-in polynomial; so does a string with fewer than
// five numbers, which is logged.
func parseSlant(m Mode, s string) (SlantParams, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "default" {
		return defaultSlant[m], true
	}
	var p SlantParams
	n := 0
	for _, f := range strings.Fields(s) {
		if n == len(p) {
			break
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			break
		}
		p[n] = v
		n++
	}
	if n < len(p) {
		debug.Errorf("%s wheel slant parametrization %q: read %d of 5 numbers, using defaults", m, s, n)
		return defaultSlant[m], true
	}
	return p, false
}

func (p SlantParams) eval(r float64) float64 {
	return horner(p[:], r)
}

// Degree of the polynomial fits of sin and cos of the slant angle.
const sinCosDegree = 8

// sinCosFit holds polynomial fits of sin(a(r)) and cos(a(r)) in the reduced
// variable t = (r - centre) / scale, t in [-1, 1] over the fitted range.
type sinCosFit struct {
	centre, scale float64
	sin, cos      [sinCosDegree + 1]float64
}

func fitSinCos(slant SlantParams, rMin, rMax, step float64) (sinCosFit, error) {
	const terms = sinCosDegree + 1
	fit := sinCosFit{centre: (rMin + rMax) / 2, scale: (rMax - rMin) / 2}
	n := int((rMax-rMin)/step) + 1
	if n < terms {
		return fit, fmt.Errorf("sin/cos fit: %d samples in [%g, %g]", n, rMin, rMax)
	}

	a := mat.NewDense(n, terms, nil)
	bs := mat.NewVecDense(n, nil)
	bc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		r := rMin + float64(i)*step
		t := (r - fit.centre) / fit.scale
		pow := 1.0
		for j := 0; j < terms; j++ {
			a.Set(i, j, pow)
			pow *= t
		}
		angle := slant.eval(r) * units.Deg
		bs.SetVec(i, math.Sin(angle))
		bc.SetVec(i, math.Cos(angle))
	}

	var xs, xc mat.VecDense
	if err := xs.SolveVec(a, bs); err != nil {
		return fit, fmt.Errorf("sin fit: %w", err)
	}
	if err := xc.SolveVec(a, bc); err != nil {
		return fit, fmt.Errorf("cos fit: %w", err)
	}
	for j := 0; j < terms; j++ {
		fit.sin[j] = xs.AtVec(j)
		fit.cos[j] = xc.AtVec(j)
	}
	return fit, nil
}

func horner(c []float64, t float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*t + c[i]
	}
	return v
}

func (f sinCosFit) eval(r float64) (sinA, cosA float64) {
	t := (r - f.centre) / f.scale
	return horner(f.sin[:], t), horner(f.cos[:], t)
}

// SlantParametrization returns the polynomial in use.
func (c *Calculator) SlantParametrization() SlantParams {
	return c.slant
}

// SlantUseDefault reports whether the built-in polynomial is in use.
func (c *Calculator) SlantUseDefault() bool {
	return c.slantUseDefault
}

// ParameterizedSlantAngle returns the slant angle at radius r, in radians.
func (c *Calculator) ParameterizedSlantAngle(r float64) float64 {
	return c.slant.eval(r) * units.Deg
}

// ParameterizedSinCos returns the fitted sine and cosine of the slant angle
// at radius r.
func (c *Calculator) ParameterizedSinCos(r float64) (sinA, cosA float64) {
	return c.sinCos.eval(r)
}
