package scan

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
)

// Sample is one evaluated grid point. Phi is the azimuth in the wheel frame.
type Sample struct {
	Plane  int `json:"plane"`
	Column int `json:"column"`
	Row    int `json:"row"`

	R        float64 `json:"r"`
	Phi      float64 `json:"phi"`
	Z        float64 `json:"z"`
	Fan      int     `json:"fan"`
	Gap      int     `json:"gap"`
	Side     int     `json:"side"`
	Distance float64 `json:"distance"`
}

// Sink receives samples in traversal order. Returning an error stops the
// scan.
type Sink func(Sample) error

// Scanner walks a plan over one calculator.
type Scanner struct {
	calc *wheel.Calculator

	// Delay paces the scan between columns; zero runs flat out.
	Delay time.Duration
}

func NewScanner(c *wheel.Calculator) *Scanner {
	return &Scanner{calc: c}
}

// Run traverses each plane in columns (serpentine pattern):
// Column 0: inner to outer radius, then phi shift
// Column 1: outer to inner radius, then phi shift
// etc.
// It returns the number of samples delivered.
func (s *Scanner) Run(ctx context.Context, plan *Plan, sink Sink) (int, error) {
	done, total := 0, plan.Total()
	debug.Section("Scanning " + plan.Variant.String())

	for plane := 0; plane < plan.ZPlanes; plane++ {
		z := plan.ZStart + float64(plane)*plan.ZStep
		rMin, rMax := s.calc.RadiusRangeAt(z)
		rStep := (rMax - rMin) / float64(plan.RRows)
		debug.Step(plane+1, "depth plane")

		for col := 0; col < plan.PhiColumns; col++ {
			select {
			case <-ctx.Done():
				return done, ctx.Err()
			default:
			}

			// even = inner->outer, odd = outer->inner
			outward := col%2 == 0
			direction := "in"
			if outward {
				direction = "out"
			}
			debug.Column(col+1, plan.PhiColumns, direction)

			psi := plan.PhiStart + float64(col)*plan.PhiStep
			for i := 0; i < plan.RRows; i++ {
				select {
				case <-ctx.Done():
					return done, ctx.Err()
				default:
				}

				row := i
				if !outward {
					row = plan.RRows - 1 - i
				}
				r := rMin + (float64(row)+0.5)*rStep
				if err := sink(s.evaluate(plane, col, row, r, psi, z)); err != nil {
					return done, err
				}
				done++
			}
			debug.Progress(done, total)

			if s.Delay > 0 && col < plan.PhiColumns-1 {
				select {
				case <-ctx.Done():
					return done, ctx.Err()
				case <-time.After(s.Delay):
				}
			}
		}
	}
	return done, nil
}

func (s *Scanner) evaluate(plane, col, row int, r, psi, z float64) Sample {
	phi := psi + math.Pi/2
	x, y := r*math.Cos(phi), r*math.Sin(phi)
	if s.calc.Side() < 0 {
		x = -x
	}
	p := wheel.Vec3{X: x, Y: y, Z: z}

	d, fan := s.calc.DistanceToTheNearestFan(p)
	gap, side := s.calc.PhiGapAndSide(p)
	sample := Sample{
		Plane:    plane,
		Column:   col,
		Row:      row,
		R:        r,
		Phi:      math.Atan2(y, x),
		Z:        z,
		Fan:      fan,
		Gap:      gap,
		Side:     side,
		Distance: d,
	}
	debug.Sample(logrus.Fields{"r": r, "phi": sample.Phi, "z": z, "fan": fan, "d": d})
	return sample
}
