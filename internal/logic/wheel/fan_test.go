package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onFibre returns a wheel-frame point on the neutral fibre of fan n, at the
// zero crossing after apex k, shifted by dx in the fan frame.
func onFibre(c *Calculator, n, k int, r, dx float64) Vec3 {
	z := c.StraightStartSection() + (float64(k)+0.5)*c.HalfWaveLength()
	return c.FromFanFrame(Vec3{X: dx, Y: r, Z: z}, n)
}

func TestFanFrameRoundTrip(t *testing.T) {
	for _, side := range []int{1, -1} {
		c, err := New(OuterAbsorberWheel, side, builtinParams(t))
		require.NoError(t, err)
		p := Vec3{X: 12.5, Y: 900, Z: 100}
		q := c.ToFanFrame(c.FromFanFrame(p, 17), 17)
		assert.InDelta(t, p.X, q.X, 1e-9)
		assert.InDelta(t, p.Y, q.Y, 1e-9)
		assert.InDelta(t, p.Z, q.Z, 1e-9)
	}
}

func TestFanCalculatorKinds(t *testing.T) {
	cases := []struct {
		variant Variant
		sagging string
		want    string
	}{
		{InnerAbsorberWheel, "off", "wheel"},
		{InnerAbsorberWheel, "0.1", "wheel-sagging"},
		{OuterElectrodModule, "", "module"},
		{BackOuterBarretteModule, "0.1 0.001", "module-sagging"},
	}
	for _, tc := range cases {
		c := mustNew(t, tc.variant, WithSaggingMode(tc.sagging))
		assert.Equal(t, tc.want, c.FanCalculator().Type())
	}
}

func TestDistanceToTheNearestFan_Wheel(t *testing.T) {
	for _, side := range []int{1, -1} {
		c, err := New(InnerAbsorberWheel, side, builtinParams(t))
		require.NoError(t, err)
		for _, n := range []int{0, 1, 63, 128, 255} {
			for _, k := range []int{0, 5, 11} {
				d, fan := c.DistanceToTheNearestFan(onFibre(c, n, k, 450, 0))
				assert.InDelta(t, 0, d, 1e-9, "side=%d n=%d k=%d", side, n, k)
				assert.Equal(t, c.AdjustFanNumber(n), fan, "side=%d n=%d k=%d", side, n, k)
			}
		}
	}
}

func TestDistanceToTheNearestFan_Neighbour(t *testing.T) {
	c := mustNew(t, OuterAbsorberWheel)
	n := 100
	_, cosA := c.ParameterizedSinCos(1500)
	// a small offset stays with fan n, on either side
	for _, dx := range []float64{-0.4, 0.4} {
		d, fan := c.DistanceToTheNearestFan(onFibre(c, n, 3, 1500, dx))
		assert.Equal(t, c.AdjustFanNumber(n), fan)
		assert.InDelta(t, dx*cosA, d, 1e-4)
	}
}

func TestDistanceToTheNearestFan_Module(t *testing.T) {
	c := mustNew(t, InnerAbsorberModule)
	for _, n := range []int{0, 5, 16, 31} {
		d, fan := c.DistanceToTheNearestFan(onFibre(c, n, 2, 500, 0))
		assert.InDelta(t, 0, d, 1e-9)
		assert.Equal(t, n, fan)
	}

	// outside the module the search stops at its last fan
	_, fan := c.DistanceToTheNearestFan(onFibre(c, 60, 2, 500, 0))
	assert.Equal(t, c.LastFan()-1, fan)

	e := mustNew(t, InnerElectrodModule)
	_, fan = e.DistanceToTheNearestFan(onFibre(e, -3, 2, 500, 0))
	assert.Equal(t, e.FirstFan(), fan)
}

func TestPhiGapAndSide(t *testing.T) {
	c := mustNew(t, InnerAbsorberWheel)
	n := 40

	gap, side := c.PhiGapAndSide(onFibre(c, n, 4, 500, 0.5))
	assert.Equal(t, 1, side)
	assert.Equal(t, c.AdjustFanNumber(n), gap)

	gap, side = c.PhiGapAndSide(onFibre(c, n, 4, 500, -0.5))
	assert.Equal(t, -1, side)
	assert.Equal(t, c.AdjustFanNumber(n+1), gap)

	m := mustNew(t, OuterAbsorberModule)
	gap, side = m.PhiGapAndSide(onFibre(m, 10, 4, 1200, 0.5))
	assert.Equal(t, 1, side)
	assert.Equal(t, m.PhiGapNumberForWheel(10), gap)
}
