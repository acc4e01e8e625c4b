package wheel

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/emecwheel/internal/rdb"
)

func TestLoadParameters_Builtin(t *testing.T) {
	p := builtinParams(t)

	assert.InDelta(t, 3689.5, p.ZWheelRefPoint, epsilon)
	assert.InDelta(t, 3691.0, p.DMechFocaltoWRP, epsilon)
	assert.InDelta(t, 3689.0, p.DElecFocaltoWRP, epsilon)
	assert.InDelta(t, 1.5, p.HalfGapBetweenWheels, epsilon)
	assert.InDelta(t, 2034.0, p.ROuterCutoff, epsilon)
	assert.InDelta(t, 40.0, p.ZShift, epsilon)
	assert.InDelta(t, 3.2, p.EtaHi, epsilon)
	assert.InDelta(t, 2.5, p.EtaMid, epsilon)
	assert.InDelta(t, 1.375, p.EtaLow, epsilon)
	assert.Equal(t, [2]int{256, 768}, p.NumberOfFans)
	assert.Equal(t, [2]int{6, 9}, p.NumberOfWaves)
	assert.InDelta(t, 510.0, p.ActiveLength, epsilon)
	assert.InDelta(t, 2.0, p.StraightStartSection, epsilon)
	assert.InDelta(t, 11.0, p.DWRPtoFrontFace, epsilon)
	assert.False(t, p.PhiRotation)
	assert.Equal(t, "off", p.SaggingMode)
}

func TestLoadParameters_PrimaryTag(t *testing.T) {
	src := rdb.Builtin()
	src.Put(rdb.TableParams, "TB-2002", "EMEC", rdb.Rec(rdb.Fields{
		"PHIROTATION": "g3",
		"SAGGING":     "off",
	}))

	p, err := LoadParameters(context.Background(), src, "TB-2002", "EMEC")
	require.NoError(t, err)
	assert.True(t, p.PhiRotation)
	assert.Equal(t, "", p.InnerSlantParam)
}

func TestLoadParameters_MissingTable(t *testing.T) {
	_, err := LoadParameters(context.Background(), rdb.NewMemorySource(), "tag", "node")
	require.Error(t, err)
	assert.ErrorIs(t, err, rdb.ErrNoRecords)
}

func TestParametersValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(p *Parameters)
	}{
		{"zero fans", func(p *Parameters) { p.NumberOfFans[0] = 0 }},
		{"fans not a multiple of 8", func(p *Parameters) { p.NumberOfFans[1] = 100 }},
		{"zero waves", func(p *Parameters) { p.NumberOfWaves[1] = 0 }},
		{"no active length", func(p *Parameters) { p.ActiveLength = 0 }},
		{"negative eta", func(p *Parameters) { p.EtaLow = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := builtinParams(t)
			tc.modify(&p)
			_, err := New(InnerAbsorberWheel, 1, p)
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestNew_UnknownVariant(t *testing.T) {
	for _, v := range []Variant{-1, numVariants, 42} {
		c, err := New(v, 1, builtinParams(t))
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrUnknownVariant)
	}
}

func TestDispatch_AllVariants(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			name := v.String()

			wantInner := strings.HasPrefix(name, "Inner") || strings.HasPrefix(name, "BackInner")
			assert.Equal(t, wantInner, c.IsInner())
			assert.Equal(t, strings.Contains(name, "Barrette"), c.IsBarrette())
			assert.Equal(t, strings.HasSuffix(name, "Calib"), c.IsBarretteCalib())
			assert.Equal(t, strings.Contains(name, "Module"), c.IsModule())
			assert.Equal(t, strings.Contains(name, "Electrod"), c.IsElectrode())
			assert.Equal(t, v, c.RequestedType())
			if c.IsBarrette() {
				assert.Contains(t, c.Type().String(), "Absorber")
			}
		})
	}
}

func TestVariantNames(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(strings.ToLower(v.String()))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVariant("MiddleWheel")
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Equal(t, "Variant(99)", Variant(99).String())
}

func TestDerivedQuantities(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			assert.InDelta(t, 2*math.Pi, c.FanStepOnPhi()*float64(c.NumberOfFans()), epsilon)
			assert.Equal(t, 2*c.NumberOfWaves(), c.NumberOfHalfWaves())
			assert.InDelta(t, c.ActiveLength()/float64(c.NumberOfHalfWaves()), c.HalfWaveLength(), epsilon)
			assert.InDelta(t, c.HalfWaveLength()/2, c.QuarterWaveLength(), epsilon)
			assert.Equal(t, c.NumberOfFans()/2, c.HalfNumberOfFans())
			assert.InDelta(t, c.ZeroFanPhi()-c.FanStepOnPhi()/2, c.ZeroFanPhiForDetNearFan(), epsilon)
		})
	}
}

func TestPerWheelConstants(t *testing.T) {
	inner := mustNew(t, InnerAbsorberWheel)
	assert.Equal(t, 256, inner.NumberOfFans())
	assert.Equal(t, 6, inner.NumberOfWaves())
	assert.Equal(t, 64, inner.ZeroGapNumber())
	assert.InDelta(t, 3.25, inner.FanFoldRadius(), epsilon)

	outer := mustNew(t, OuterElectrodWheel)
	assert.Equal(t, 768, outer.NumberOfFans())
	assert.Equal(t, 9, outer.NumberOfWaves())
	assert.Equal(t, 192, outer.ZeroGapNumber())
	assert.InDelta(t, 3.0, outer.FanFoldRadius(), epsilon)
}

func TestWheelFaces(t *testing.T) {
	c := mustNew(t, OuterAbsorberWheel)
	assert.InDelta(t, 3702.0, c.ZWheelFrontFace(), epsilon)
	assert.InDelta(t, 514.0, c.WheelThickness(), epsilon)
	assert.InDelta(t, 257.0, c.HalfWheelThickness(), epsilon)
	assert.InDelta(t, 4216.0, c.ZWheelBackFace(), epsilon)
	assert.InDelta(t, 2.0, c.StraightStartSection(), epsilon)
}

func TestZeroFanPhi(t *testing.T) {
	cases := []struct {
		variant  Variant
		rotation bool
		steps    float64 // zeroFanPhi in units of fanStepOnPhi
	}{
		{InnerAbsorberWheel, false, 0.5},
		{InnerAbsorberWheel, true, 1},
		{OuterGlueWheel, false, 0.5},
		{OuterLeadWheel, true, 1},
		{BackOuterBarretteWheel, false, 0.5},
		{InnerElectrodWheel, false, 0},
		{OuterElectrodWheel, true, 0.5},
		// modules: -(lastFan/2) steps, plus a half step for absorbers
		{InnerAbsorberModule, false, -16 + 0.5},
		{OuterAbsorberModule, true, -48 + 0.5},
		{InnerElectrodModule, false, -16},
		{BackInnerBarretteModuleCalib, false, -16 + 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.variant.String(), func(t *testing.T) {
			c := mustNew(t, tc.variant, WithPhiRotation(tc.rotation))
			assert.InDelta(t, tc.steps*c.FanStepOnPhi(), c.ZeroFanPhi(), epsilon)
		})
	}
}

func TestModuleRange(t *testing.T) {
	cases := []struct {
		variant   Variant
		firstFan  int
		lastFan   int
		moduleOn  bool
		electrode bool
	}{
		{InnerAbsorberWheel, 0, 256, false, false},
		{OuterElectrodWheel, 0, 768, false, true},
		{InnerAbsorberModule, 0, 32, true, false},
		{OuterAbsorberModule, 0, 96, true, false},
		{InnerElectrodModule, 1, 32, true, true},
		{OuterElectrodModule, 1, 96, true, true},
		{BackOuterBarretteModule, 0, 96, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.variant.String(), func(t *testing.T) {
			c := mustNew(t, tc.variant)
			assert.Equal(t, tc.firstFan, c.FirstFan())
			assert.Equal(t, tc.lastFan, c.LastFan())
			assert.Equal(t, tc.moduleOn, c.IsModule())
			assert.Equal(t, tc.electrode, c.IsElectrode())
		})
	}
}

func TestPhiGapNumberForWheel(t *testing.T) {
	t.Run("wheel is identity", func(t *testing.T) {
		c := mustNew(t, OuterAbsorberWheel)
		for i := 0; i < c.NumberOfFans(); i++ {
			assert.Equal(t, i, c.PhiGapNumberForWheel(i))
		}
	})

	for _, v := range []Variant{InnerAbsorberModule, OuterElectrodModule, BackInnerBarretteModule} {
		t.Run(v.String(), func(t *testing.T) {
			c := mustNew(t, v)
			n := c.NumberOfFans()
			for i := 0; i < n; i++ {
				got := c.PhiGapNumberForWheel(i)
				require.GreaterOrEqual(t, got, 0)
				require.Less(t, got, n)
				want := ((i+c.ZeroGapNumber()-c.LastFan()/2)%n + n) % n
				assert.Equal(t, want, got)
			}
		})
	}

	t.Run("single wrap below zero", func(t *testing.T) {
		c := mustNew(t, InnerAbsorberModule)
		// -60 + 64 - 16 = -12
		assert.Equal(t, 244, c.PhiGapNumberForWheel(-60))
	})
}

func TestAdjustFanNumber(t *testing.T) {
	c := mustNew(t, InnerAbsorberWheel)
	cases := []struct {
		in, want int
	}{
		{0, 64},
		{10, 74},
		{191, 255},
		{192, 0},
		{255, 63},
		{-1, 63},
		{-256, 64},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.AdjustFanNumber(tc.in), "AdjustFanNumber(%d)", tc.in)
	}
}

func TestFanHalfThickness_Golden(t *testing.T) {
	innerAbs := (2.2/2 + 0.2 + 0.1) * 0.997
	outerAbs := (1.69/2 + 0.2 + 0.1) * 0.997
	electrode := 0.275 / 1.0036256 * 0.5

	want := map[Variant]float64{
		InnerAbsorberWheel:           innerAbs,
		OuterAbsorberWheel:           outerAbs,
		InnerElectrodWheel:           electrode,
		OuterElectrodWheel:           electrode,
		InnerAbsorberModule:          innerAbs,
		OuterAbsorberModule:          outerAbs,
		InnerElectrodModule:          electrode,
		OuterElectrodModule:          electrode,
		BackInnerBarretteWheel:       innerAbs,
		BackOuterBarretteWheel:       outerAbs,
		BackInnerBarretteWheelCalib:  innerAbs,
		BackOuterBarretteWheelCalib:  outerAbs,
		BackInnerBarretteModule:      innerAbs,
		BackOuterBarretteModule:      outerAbs,
		BackInnerBarretteModuleCalib: innerAbs,
		BackOuterBarretteModuleCalib: outerAbs,
		InnerGlueWheel:               (2.2/2 + 0.1) * 0.997,
		OuterGlueWheel:               (1.69/2 + 0.1) * 0.997,
		InnerLeadWheel:               2.2 / 2 * 0.997,
		OuterLeadWheel:               1.69 / 2 * 0.997,
	}
	require.Len(t, want, int(numVariants))

	for v, w := range want {
		got, err := FanHalfThickness(v)
		require.NoError(t, err)
		assert.InDelta(t, w, got, 1e-12, v.String())
		assert.InDelta(t, w, mustNew(t, v).FanHalfThickness(), 1e-12, v.String())
	}
	assert.InDelta(t, 0.13700328, electrode, 1e-8)
}

func TestFanHalfThickness_Unknown(t *testing.T) {
	_, err := FanHalfThickness(Variant(-3))
	assert.ErrorIs(t, err, ErrUnknownVariant)
	_, err = effectiveHalfThickness(BackInnerBarretteWheel)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

// Inner absorber wheel with the 768-fan count of the outer wheel.
func TestScenario_InnerAbsorberZeroFanPhi(t *testing.T) {
	p := builtinParams(t)
	p.NumberOfFans[0] = 768

	off, err := New(InnerAbsorberWheel, 1, p)
	require.NoError(t, err)
	assert.Equal(t, 768, off.NumberOfFans())
	assert.InDelta(t, off.FanStepOnPhi()/2, off.ZeroFanPhi(), epsilon)

	on, err := New(InnerAbsorberWheel, 1, p, WithPhiRotation(true))
	require.NoError(t, err)
	assert.InDelta(t, on.FanStepOnPhi(), on.ZeroFanPhi(), epsilon)
}

func TestScenario_InnerElectrodModule(t *testing.T) {
	c := mustNew(t, InnerElectrodModule)
	assert.True(t, c.IsModule())
	assert.True(t, c.IsElectrode())
	assert.Equal(t, 1, c.FirstFan())
}

func TestScenario_BackInnerBarretteWheelCalib(t *testing.T) {
	c := mustNew(t, BackInnerBarretteWheelCalib)
	assert.True(t, c.IsBarretteCalib())
	assert.True(t, c.IsBarrette())
	assert.Equal(t, InnerAbsorberWheel, c.Type())
	assert.InDelta(t, (2.2/2+0.2+0.1)*0.997, c.FanHalfThickness(), 1e-12)
}

func TestSide(t *testing.T) {
	p := builtinParams(t)
	for _, tc := range []struct{ in, want int }{{1, 1}, {0, 1}, {-1, -1}, {-7, -1}} {
		c, err := New(InnerAbsorberWheel, tc.in, p)
		require.NoError(t, err)
		assert.Equal(t, tc.want, c.Side())
	}
}

func TestNewFromSource(t *testing.T) {
	c, err := NewFromSource(context.Background(), rdb.Builtin(), rdb.BuiltinTag, "", OuterAbsorberModule, -1)
	require.NoError(t, err)
	assert.Equal(t, OuterAbsorberModule, c.Type())
	assert.Contains(t, c.String(), "OuterAbsorberModule")
	assert.Equal(t, -1, c.Side())
}
