package wheel

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/rdb"
	"github.com/cjeanneret/emecwheel/internal/units"
)

// ErrInvalidParameters is returned when loaded parameters cannot describe
// a wheel.
var ErrInvalidParameters = errors.New("invalid geometry parameters")

// Parameters holds the constants read from the parameter source. Lengths
// are in mm, converted once at load time.
type Parameters struct {
	ZWheelRefPoint       float64 // Z0
	DMechFocaltoWRP      float64 // Z1
	DElecFocaltoWRP      float64 // DCF
	HalfGapBetweenWheels float64 // DCRACK
	ROuterCutoff         float64 // RLIMIT
	ZShift               float64 // ZSHIFT

	EtaHi  float64
	EtaMid float64
	EtaLow float64

	// Index 0 is the inner wheel, 1 the outer wheel.
	NumberOfFans  [2]int
	NumberOfWaves [2]int

	ActiveLength         float64
	StraightStartSection float64
	DWRPtoFrontFace      float64

	PhiRotation     bool
	SaggingMode     string
	InnerSlantParam string
	OuterSlantParam string
}

// LoadParameters resolves every table for (tag, node), falling back to the
// literal default tags when a table has no records for the primary key.
func LoadParameters(ctx context.Context, src rdb.Source, tag, node string) (Parameters, error) {
	var p Parameters

	geo := rdb.NewReader(ctx, src).
		Data(rdb.TableGeometry, tag, node).
		FallbackTo(rdb.TableGeometry, rdb.FallbackGeometry)
	geo.Param(&p.ZWheelRefPoint, "Z0", units.CM).
		Param(&p.DMechFocaltoWRP, "Z1", units.CM).
		Param(&p.DElecFocaltoWRP, "DCF", units.CM).
		Param(&p.HalfGapBetweenWheels, "DCRACK", units.CM).
		Param(&p.ROuterCutoff, "RLIMIT", units.CM).
		Param(&p.ZShift, "ZSHIFT", units.CM)
	if err := geo.Err(); err != nil {
		return p, fmt.Errorf("load geometry parameters: %w", err)
	}

	var nabs, nacc [2]float64
	wp := rdb.NewReader(ctx, src).
		Data(rdb.TableWheel, tag, node).
		FallbackTo(rdb.TableWheel, rdb.FallbackWheel)
	wp.ParamAt(&p.EtaHi, "ETAINT", 1, 0).
		ParamAt(&p.EtaMid, "ETAEXT", 1, 0).
		ParamAt(&p.EtaLow, "ETAEXT", 1, 1).
		ParamAt(&nabs[0], "NABS", 1, 0).
		ParamAt(&nabs[1], "NABS", 1, 1).
		ParamAt(&nacc[0], "NACC", 1, 0).
		ParamAt(&nacc[1], "NACC", 1, 1)
	if err := wp.Err(); err != nil {
		return p, fmt.Errorf("load wheel parameters: %w", err)
	}
	for i := range nabs {
		p.NumberOfFans[i] = int(nabs[i] + 0.5)
		p.NumberOfWaves[i] = int(nacc[i] + 0.5)
	}

	mn := rdb.NewReader(ctx, src).
		Data(rdb.TableMagicNumbers, tag, node).
		FallbackTo(rdb.TableMagicNumbers, rdb.FallbackMagicNumbers)
	mn.Param(&p.ActiveLength, "ACTIVELENGTH", units.MM).
		Param(&p.StraightStartSection, "STRAIGHTSTARTSECTION", units.MM).
		Param(&p.DWRPtoFrontFace, "REFTOACTIVE", units.MM)
	if err := mn.Err(); err != nil {
		return p, fmt.Errorf("load magic numbers: %w", err)
	}

	var rotation string
	ep := rdb.NewReader(ctx, src).
		Data(rdb.TableParams, tag, node).
		FallbackTo(rdb.TableParams, rdb.FallbackParams)
	ep.String(&rotation, "PHIROTATION").
		String(&p.SaggingMode, "SAGGING").
		String(&p.InnerSlantParam, "EMECINNERSLANTPARAM").
		String(&p.OuterSlantParam, "EMECOUTERSLANTPARAM")
	if err := ep.Err(); err != nil {
		return p, fmt.Errorf("load EMEC parameters: %w", err)
	}
	p.PhiRotation = rotation == "g3"

	debug.Verbose("parameters resolved: geometry=%s wheel=%s magic=%s params=%s",
		geo.Resolved(), wp.Resolved(), mn.Resolved(), ep.Resolved())
	return p, p.Validate()
}

// Validate checks the values a calculator divides by or takes a module
// fraction of.
func (p Parameters) Validate() error {
	for i, name := range [2]string{"inner", "outer"} {
		if p.NumberOfFans[i] <= 0 || p.NumberOfFans[i]%8 != 0 {
			return fmt.Errorf("%w: %s NABS=%d must be a positive multiple of 8", ErrInvalidParameters, name, p.NumberOfFans[i])
		}
		if p.NumberOfWaves[i] <= 0 {
			return fmt.Errorf("%w: %s NACC=%d must be positive", ErrInvalidParameters, name, p.NumberOfWaves[i])
		}
	}
	if p.ActiveLength <= 0 {
		return fmt.Errorf("%w: ACTIVELENGTH=%g must be positive", ErrInvalidParameters, p.ActiveLength)
	}
	if p.EtaLow <= 0 || p.EtaMid <= 0 || p.EtaHi <= 0 {
		return fmt.Errorf("%w: eta boundaries must be positive (%g, %g, %g)", ErrInvalidParameters, p.EtaLow, p.EtaMid, p.EtaHi)
	}
	return nil
}
