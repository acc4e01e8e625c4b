package wheel

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/units"
)

func TestSlantDefaults(t *testing.T) {
	inner := mustNew(t, InnerAbsorberWheel)
	assert.True(t, inner.SlantUseDefault())
	assert.Equal(t, SlantParams{-50.069, 0.50073, -1.0127e-3, 1.0390e-6, -4.2176e-10}, inner.SlantParametrization())

	outer := mustNew(t, OuterAbsorberWheel)
	assert.True(t, outer.SlantUseDefault())
	assert.Equal(t, SlantParams{-34.254, 0.15528, -1.1670e-4, 4.5018e-8, -6.8473e-12}, outer.SlantParametrization())

	// Outer slant stays within a physical range over the outer wheel radii.
	for _, r := range []float64{600, 900, 1200, 1700, 2000} {
		deg := outer.ParameterizedSlantAngle(r*units.MM) / units.Deg
		assert.Greater(t, deg, 0.0, "r=%g", r)
		assert.Less(t, deg, 75.0, "r=%g", r)
	}
}

func TestSlantOverride(t *testing.T) {
	var logged bytes.Buffer
	debug.SetOutput(&logged)
	t.Cleanup(func() { debug.SetOutput(os.Stdout) })

	cases := []struct {
		name        string
		inner       string
		want        SlantParams
		wantDefault bool
		wantLog     bool
	}{
		{"empty", "", DefaultSlant(InnerWheelMode), true, false},
		{"keyword", "default", DefaultSlant(InnerWheelMode), true, false},
		{"five numbers", "-50 0.5 -1e-3 1e-6 -4e-10", SlantParams{-50, 0.5, -1e-3, 1e-6, -4e-10}, false, false},
		{"extra numbers ignored", "1 2 3 4 5 6", SlantParams{1, 2, 3, 4, 5}, false, false},
		{"too few", "1 2 3", DefaultSlant(InnerWheelMode), true, true},
		{"garbage", "1 2 x 4 5", DefaultSlant(InnerWheelMode), true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logged.Reset()
			p := builtinParams(t)
			p.InnerSlantParam = tc.inner
			c, err := New(InnerAbsorberWheel, 1, p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.SlantParametrization())
			assert.Equal(t, tc.wantDefault, c.SlantUseDefault())
			assert.Equal(t, tc.wantLog, logged.Len() > 0, logged.String())
		})
	}
}

func TestParameterizedSlantAngle(t *testing.T) {
	cases := []struct {
		variant Variant
		r       float64
		wantDeg float64
	}{
		{InnerAbsorberWheel, 290, 32.3},
		{InnerAbsorberWheel, 700, 59.3},
		{OuterAbsorberWheel, 600, 25.7},
		{OuterAbsorberWheel, 2050, 60.5},
	}
	for _, tc := range cases {
		c := mustNew(t, tc.variant)
		got := c.ParameterizedSlantAngle(tc.r) / units.Deg
		assert.InDelta(t, tc.wantDeg, got, 0.1, "%s r=%g", tc.variant, tc.r)
	}
}

func TestParameterizedSinCos(t *testing.T) {
	for _, v := range []Variant{InnerAbsorberWheel, OuterAbsorberWheel} {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			rng := slantRange[c.Mode()]
			for r := rng[0]; r <= rng[1]; r += 10 {
				a := c.ParameterizedSlantAngle(r)
				s, co := c.ParameterizedSinCos(r)
				assert.InDelta(t, math.Sin(a), s, 2e-5, "sin at r=%g", r)
				assert.InDelta(t, math.Cos(a), co, 2e-5, "cos at r=%g", r)
			}
		})
	}
}
