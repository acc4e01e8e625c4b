package wheel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceFactory(t *testing.T) {
	cases := []struct {
		mode     string
		wantType string
		wantErr  bool
	}{
		{"", saggingOffType, false},
		{"off", saggingOffType, false},
		{" off ", saggingOffType, false},
		{"0.5", saggingOnType, false},
		{"0.5 1e-3 0 0 1e-9", saggingOnType, false},
		{"on", "", true},
		{"1 2 3 4 5 6", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			c, err := New(InnerAbsorberWheel, 1, builtinParams(t), WithSaggingMode(tc.mode))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantType, c.DistanceCalculator().Type())
			assert.Equal(t, tc.wantType == saggingOnType, c.IsSaggingOn())
		})
	}
}

func TestNeutralFibre_ZeroCrossings(t *testing.T) {
	for _, v := range []Variant{InnerAbsorberWheel, OuterElectrodWheel} {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			L := c.HalfWaveLength()
			for k := 0; k < c.NumberOfHalfWaves(); k++ {
				z := c.StraightStartSection() + (float64(k)+0.5)*L
				for _, r := range []float64{650, 700} {
					d := c.DistanceToTheNeutralFibre(Vec3{X: 0, Y: r, Z: z}, 0)
					assert.InDelta(t, 0, d, 1e-9, "k=%d r=%g", k, r)
				}
			}
		})
	}
}

func TestNeutralFibre_Apexes(t *testing.T) {
	c := mustNew(t, InnerAbsorberWheel)
	off := c.DistanceCalculator().(*saggingOff)
	r := 500.0
	A := off.shape(r).amplitude
	assert.Greater(t, A, c.FanFoldRadius())

	for k := 0; k <= c.NumberOfHalfWaves(); k++ {
		sign := 1.0
		if k%2 == 1 {
			sign = -1
		}
		z := c.StraightStartSection() + float64(k)*c.HalfWaveLength()
		d := c.DistanceToTheNeutralFibre(Vec3{X: sign * A, Y: r, Z: z}, 0)
		assert.InDelta(t, 0, d, 1e-9, "apex %d", k)
	}

	// straight sections before the first and after the last apex
	assert.InDelta(t, 0, c.DistanceToTheNeutralFibre(Vec3{X: A, Y: r, Z: 0.5}, 0), 1e-9)
	last := c.NumberOfHalfWaves()
	lastSign := 1.0
	if last%2 == 1 {
		lastSign = -1
	}
	assert.InDelta(t, 1.0, c.DistanceToTheNeutralFibre(Vec3{X: lastSign * (A + 1), Y: r, Z: c.WheelThickness() - 0.5}, 0)*lastSign, 1e-9)
}

func TestNeutralFibre_Sign(t *testing.T) {
	c := mustNew(t, OuterAbsorberWheel)
	z := c.StraightStartSection() + 2.5*c.HalfWaveLength()
	assert.Greater(t, c.DistanceToTheNeutralFibre(Vec3{X: 1, Y: 1200, Z: z}, 0), 0.0)
	assert.Less(t, c.DistanceToTheNeutralFibre(Vec3{X: -1, Y: 1200, Z: z}, 0), 0.0)
}

func TestNearestPointOnNeutralFibre(t *testing.T) {
	for _, v := range []Variant{InnerAbsorberWheel, OuterAbsorberWheel} {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			inner, _ := c.WheelInnerRadius()
			r := inner[0] + 50
			for z := 0.25; z < c.WheelThickness(); z += 3.7 {
				for _, x := range []float64{-4, -1.5, 0.3, 2.2} {
					p := Vec3{X: x, Y: r, Z: z}
					d := c.DistanceToTheNeutralFibre(p, 0)
					n := c.NearestPointOnNeutralFibre(p, 0)

					assert.InDelta(t, math.Abs(d), math.Hypot(p.X-n.X, p.Z-n.Z), 1e-9, "z=%g x=%g", z, x)
					assert.InDelta(t, 0, c.DistanceToTheNeutralFibre(n, 0), 1e-9, "z=%g x=%g", z, x)
					assert.Equal(t, p.Y, n.Y)
				}
			}
		})
	}
}

func TestSagging(t *testing.T) {
	c := mustNew(t, InnerAbsorberWheel, WithSaggingMode("0.2"))
	on, ok := c.DistanceCalculator().(*saggingOn)
	require.True(t, ok)

	// fan 0 of an absorber wheel points along +y: no transverse sag
	fan := 0
	mid := Vec3{X: 0, Y: 500, Z: c.HalfWheelThickness()}
	assert.InDelta(t, 0, on.Sag(mid, fan), 1e-12)
	assert.InDelta(t, 0.2*-math.Sin(c.FanAngle(7)), on.Sag(mid, 7), 1e-12)
	assert.InDelta(t, 0, on.Sag(Vec3{Y: 500, Z: 0}, fan), 1e-12)
	assert.InDelta(t, 0, on.Sag(Vec3{Y: 500, Z: c.WheelThickness()}, fan), 1e-12)

	// a horizontal fan takes the full sag
	quarter := c.NumberOfFans() / 4
	assert.InDelta(t, 0.2, math.Abs(on.Sag(mid, quarter)), 1e-2)

	off := mustNew(t, InnerAbsorberWheel)
	p := Vec3{X: 0.7, Y: 500, Z: c.StraightStartSection() + 3.5*c.HalfWaveLength()}
	shifted := p
	shifted.X -= on.Sag(p, quarter)
	assert.InDelta(t, off.DistanceToTheNeutralFibre(shifted, quarter), c.DistanceToTheNeutralFibre(p, quarter), 1e-12)

	// the sag varies along z, so the projection is only close to the fibre
	n := c.NearestPointOnNeutralFibre(p, quarter)
	assert.InDelta(t, 0, c.DistanceToTheNeutralFibre(n, quarter), 0.05)
}
