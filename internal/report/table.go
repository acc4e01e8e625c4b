// Package report exports the derived wheel geometry as a spreadsheet, a PDF
// summary and a PNG plot of the (z, r) outlines.
package report

import (
	"fmt"
	"math"

	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
	"github.com/cjeanneret/emecwheel/internal/units"
)

// field is one report line: a label and how to read it from a summary.
type field struct {
	label string
	unit  string
	value func(s wheel.Summary) interface{}
}

func radiusAt(rs []float64, i int) interface{} {
	if i < len(rs) {
		return rs[i]
	}
	return ""
}

var fields = []field{
	{"Effective type", "", func(s wheel.Summary) interface{} { return s.Effective }},
	{"Mode", "", func(s wheel.Summary) interface{} { return s.Mode }},
	{"Side", "", func(s wheel.Summary) interface{} { return s.Side }},
	{"Module", "", func(s wheel.Summary) interface{} { return s.Module }},
	{"Electrode", "", func(s wheel.Summary) interface{} { return s.Electrode }},
	{"Sagging", "", func(s wheel.Summary) interface{} { return s.Sagging }},
	{"Number of fans", "", func(s wheel.Summary) interface{} { return s.NumberOfFans }},
	{"Number of waves", "", func(s wheel.Summary) interface{} { return s.NumberOfWaves }},
	{"First fan", "", func(s wheel.Summary) interface{} { return s.FirstFan }},
	{"Last fan", "", func(s wheel.Summary) interface{} { return s.LastFan }},
	{"Zero gap number", "", func(s wheel.Summary) interface{} { return s.ZeroGapNumber }},
	{"Fan step on phi", "deg", func(s wheel.Summary) interface{} { return s.FanStepOnPhi / units.Deg }},
	{"Zero fan phi", "deg", func(s wheel.Summary) interface{} { return s.ZeroFanPhi / units.Deg }},
	{"Fan fold radius", "mm", func(s wheel.Summary) interface{} { return s.FanFoldRadius }},
	{"Fan half thickness", "mm", func(s wheel.Summary) interface{} { return s.FanHalfThickness }},
	{"Half wave length", "mm", func(s wheel.Summary) interface{} { return s.HalfWaveLength }},
	{"Active length", "mm", func(s wheel.Summary) interface{} { return s.ActiveLength }},
	{"Front face z", "mm", func(s wheel.Summary) interface{} { return s.ZWheelFrontFace }},
	{"Back face z", "mm", func(s wheel.Summary) interface{} { return s.ZWheelBackFace }},
	{"Inner radius (front)", "mm", func(s wheel.Summary) interface{} { return radiusAt(s.InnerRadius, 0) }},
	{"Inner radius (back)", "mm", func(s wheel.Summary) interface{} { return radiusAt(s.InnerRadius, len(s.InnerRadius)-1) }},
	{"Outer radius (front)", "mm", func(s wheel.Summary) interface{} { return radiusAt(s.OuterRadius, 0) }},
	{"Outer radius (back)", "mm", func(s wheel.Summary) interface{} { return radiusAt(s.OuterRadius, len(s.OuterRadius)-1) }},
	{"Default slant", "", func(s wheel.Summary) interface{} { return s.SlantUseDefault }},
}

// format renders a value for text output.
func format(v interface{}) string {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e6 {
			return fmt.Sprintf("%.0f", x)
		}
		return fmt.Sprintf("%.4f", x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(x)
	}
}

func label(f field) string {
	if f.unit == "" {
		return f.label
	}
	return f.label + " (" + f.unit + ")"
}
