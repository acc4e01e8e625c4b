// Package wheel models the accordion geometry of the EMEC inner and outer
// wheels: fan numbering, fan thickness, radial bounds, slant and fold angles
// and the distance from a point to the neutral fibre of the nearest fan.
//
// A Calculator is built once per (variant, side) and is read-only afterwards,
// so one instance may be shared between goroutines.
package wheel

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/rdb"
	"github.com/cjeanneret/emecwheel/internal/units"
)

// Fixed per-wheel constants that do not come from the parameter source.
var (
	fanFoldRadius = [2]float64{InnerWheelMode: 3.25 * units.MM, OuterWheelMode: 3.0 * units.MM}
	zeroGapNumber = [2]int{InnerWheelMode: 64, OuterWheelMode: 192}
)

// Calculator holds the geometry of one wheel variant on one detector side.
type Calculator struct {
	requested Variant
	typ       Variant
	side      int
	params    Parameters

	mode            Mode
	isModule        bool
	isElectrode     bool
	isBarrette      bool
	isBarretteCalib bool

	numberOfFans      int
	numberOfWaves     int
	numberOfHalfWaves int
	halfNumberOfFans  int
	fanFoldRadius     float64
	zeroGapNumber     int
	fanStepOnPhi      float64
	zeroFanPhi        float64
	zeroFanPhiNearFan float64
	halfWaveLength    float64
	quarterWaveLength float64
	fanHalfThickness  float64
	firstFan          int
	lastFan           int

	zWheelFrontFace    float64
	zWheelBackFace     float64
	wheelThickness     float64
	halfWheelThickness float64

	slant           SlantParams
	slantUseDefault bool
	sinCos          sinCosFit

	distance DistanceCalculator
	fan      FanCalculator
}

// Option adjusts parameters before the derived geometry is computed.
type Option func(*Parameters)

// WithSaggingMode overrides the sagging mode read from the source.
func WithSaggingMode(mode string) Option {
	return func(p *Parameters) { p.SaggingMode = mode }
}

// WithPhiRotation overrides the phi-rotation flag read from the source.
func WithPhiRotation(on bool) Option {
	return func(p *Parameters) { p.PhiRotation = on }
}

// New builds the calculator for variant v. Side is +1 or -1 for the two
// end-caps; 0 is treated as +1. Construction either fully succeeds or
// returns an error.
func New(v Variant, side int, p Parameters, opts ...Option) (*Calculator, error) {
	for _, o := range opts {
		o(&p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d, err := lookupDispatch(v)
	if err != nil {
		return nil, fmt.Errorf("unknown LArWheelCalculator_t: %w", err)
	}
	if side >= 0 {
		side = 1
	} else {
		side = -1
	}

	c := &Calculator{
		requested:       v,
		typ:             d.effective,
		side:            side,
		params:          p,
		mode:            d.mode,
		isBarrette:      d.barrette,
		isBarretteCalib: d.barretteCalib,
		isElectrode:     d.electrode,
	}
	c.initWheel()

	switch {
	case d.module:
		c.initModule()
		if d.electrode {
			c.firstFan++
		} else {
			c.zeroFanPhi += c.fanStepOnPhi / 2
		}
	case d.electrode:
		c.zeroFanPhi = 0
		if p.PhiRotation {
			c.zeroFanPhi += c.fanStepOnPhi / 2
		}
	default:
		c.zeroFanPhi = c.fanStepOnPhi / 2
		if p.PhiRotation {
			c.zeroFanPhi += c.fanStepOnPhi / 2
		}
	}

	c.zeroFanPhiNearFan = c.zeroFanPhi - c.fanStepOnPhi/2
	c.numberOfHalfWaves = c.numberOfWaves * 2
	c.halfWaveLength = p.ActiveLength / float64(c.numberOfHalfWaves)
	c.quarterWaveLength = c.halfWaveLength / 2
	c.halfNumberOfFans = c.numberOfFans / 2

	if c.fanHalfThickness, err = effectiveHalfThickness(c.typ); err != nil {
		return nil, err
	}

	c.zWheelFrontFace = p.DMechFocaltoWRP + p.DWRPtoFrontFace
	c.wheelThickness = p.ActiveLength + 2*p.StraightStartSection
	c.halfWheelThickness = c.wheelThickness / 2
	c.zWheelBackFace = c.zWheelFrontFace + c.wheelThickness

	override := p.InnerSlantParam
	if c.mode == OuterWheelMode {
		override = p.OuterSlantParam
	}
	c.slant, c.slantUseDefault = parseSlant(c.mode, override)
	rng := slantRange[c.mode]
	if c.sinCos, err = fitSinCos(c.slant, rng[0], rng[1], 1*units.MM); err != nil {
		return nil, fmt.Errorf("slant parametrization: %w", err)
	}

	// Strategies read the finished calculator and are built last.
	if c.distance, err = NewDistanceCalculator(p.SaggingMode, c); err != nil {
		return nil, err
	}
	c.fan = NewFanCalculator(c.distance.Type() != saggingOffType, c.isModule, c)

	debug.Logger().WithFields(logrus.Fields{
		"variant": c.requested.String(),
		"type":    c.typ.String(),
		"side":    c.side,
		"fans":    c.numberOfFans,
		"waves":   c.numberOfWaves,
	}).Debug("wheel calculator ready")
	return c, nil
}

// NewFromSource loads the parameters for (tag, node) and builds the
// calculator for v.
func NewFromSource(ctx context.Context, src rdb.Source, tag, node string, v Variant, side int, opts ...Option) (*Calculator, error) {
	p, err := LoadParameters(ctx, src, tag, node)
	if err != nil {
		return nil, err
	}
	return New(v, side, p, opts...)
}

func (c *Calculator) initWheel() {
	i := int(c.mode)
	c.numberOfFans = c.params.NumberOfFans[i]
	c.numberOfWaves = c.params.NumberOfWaves[i]
	c.fanFoldRadius = fanFoldRadius[i]
	c.zeroGapNumber = zeroGapNumber[i]
	c.fanStepOnPhi = 2 * math.Pi / float64(c.numberOfFans)
	c.firstFan = 0
	c.lastFan = c.numberOfFans
}

// initModule restricts the wheel to its first eighth.
func (c *Calculator) initModule() {
	c.isModule = true
	c.lastFan = c.numberOfFans / 8
	c.firstFan = 0
	c.zeroFanPhi = -float64(c.lastFan/2) * c.fanStepOnPhi
}

func (c *Calculator) String() string {
	return fmt.Sprintf("%s(side=%+d, fans=%d, waves=%d)", c.requested, c.side, c.numberOfFans, c.numberOfWaves)
}

// Type is the effective variant; barrettes report their absorber variant.
func (c *Calculator) Type() Variant { return c.typ }
func (c *Calculator) RequestedType() Variant { return c.requested }
func (c *Calculator) Side() int { return c.side }
func (c *Calculator) Mode() Mode { return c.mode }
func (c *Calculator) Parameters() Parameters { return c.params }

func (c *Calculator) IsInner() bool { return c.mode == InnerWheelMode }
func (c *Calculator) IsModule() bool { return c.isModule }
func (c *Calculator) IsElectrode() bool { return c.isElectrode }
func (c *Calculator) IsBarrette() bool { return c.isBarrette }
func (c *Calculator) IsBarretteCalib() bool { return c.isBarretteCalib }

// IsSaggingOn reports whether the distance calculator models sagging.
func (c *Calculator) IsSaggingOn() bool { return c.distance.Type() != saggingOffType }

func (c *Calculator) NumberOfFans() int { return c.numberOfFans }
func (c *Calculator) NumberOfWaves() int { return c.numberOfWaves }
func (c *Calculator) NumberOfHalfWaves() int { return c.numberOfHalfWaves }
func (c *Calculator) HalfNumberOfFans() int { return c.halfNumberOfFans }
func (c *Calculator) FanFoldRadius() float64 { return c.fanFoldRadius }
func (c *Calculator) ZeroGapNumber() int { return c.zeroGapNumber }
func (c *Calculator) FanStepOnPhi() float64 { return c.fanStepOnPhi }
func (c *Calculator) ZeroFanPhi() float64 { return c.zeroFanPhi }
func (c *Calculator) ZeroFanPhiForDetNearFan() float64 { return c.zeroFanPhiNearFan }
func (c *Calculator) HalfWaveLength() float64 { return c.halfWaveLength }
func (c *Calculator) QuarterWaveLength() float64 { return c.quarterWaveLength }
func (c *Calculator) ActiveLength() float64 { return c.params.ActiveLength }
func (c *Calculator) StraightStartSection() float64 { return c.params.StraightStartSection }
func (c *Calculator) FanHalfThickness() float64 { return c.fanHalfThickness }
func (c *Calculator) FirstFan() int { return c.firstFan }
func (c *Calculator) LastFan() int { return c.lastFan }
func (c *Calculator) ZShift() float64 { return c.params.ZShift }

func (c *Calculator) ZWheelFrontFace() float64 { return c.zWheelFrontFace }
func (c *Calculator) ZWheelBackFace() float64 { return c.zWheelBackFace }
func (c *Calculator) WheelThickness() float64 { return c.wheelThickness }
func (c *Calculator) HalfWheelThickness() float64 { return c.halfWheelThickness }

// DistanceCalculator and FanCalculator expose the strategies built for this
// wheel.
func (c *Calculator) DistanceCalculator() DistanceCalculator { return c.distance }
func (c *Calculator) FanCalculator() FanCalculator { return c.fan }

// PhiGapNumberForWheel maps a gap index local to this calculator onto the
// numbering of the full wheel.
func (c *Calculator) PhiGapNumberForWheel(i int) int {
	return c.fan.PhiGapNumberForWheel(i)
}

// AdjustFanNumber wraps n into [0, NumberOfFans) and shifts it by the
// zero-gap number.
func (c *Calculator) AdjustFanNumber(n int) int {
	if n < 0 {
		n += c.numberOfFans
	}
	n += c.zeroGapNumber
	if n >= c.numberOfFans {
		n -= c.numberOfFans
	}
	return n
}

// DistanceToTheNeutralFibre is the signed distance from p, given in the
// local frame of fan, to its neutral fibre.
func (c *Calculator) DistanceToTheNeutralFibre(p Vec3, fan int) float64 {
	return c.distance.DistanceToTheNeutralFibre(p, fan)
}

// NearestPointOnNeutralFibre projects p, given in the local frame of fan,
// onto its neutral fibre.
func (c *Calculator) NearestPointOnNeutralFibre(p Vec3, fan int) Vec3 {
	return c.distance.NearestPointOnNeutralFibre(p, fan)
}

// DistanceToTheNearestFan takes p in the wheel frame and returns the signed
// distance to the nearest fan together with its number.
func (c *Calculator) DistanceToTheNearestFan(p Vec3) (float64, int) {
	return c.fan.DistanceToTheNearestFan(p)
}

// PhiGapAndSide returns the wheel gap holding p and the side of the nearest
// fan p lies on.
func (c *Calculator) PhiGapAndSide(p Vec3) (int, int) {
	return c.fan.PhiGapAndSide(p)
}
