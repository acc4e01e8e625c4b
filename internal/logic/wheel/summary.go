package wheel

// Summary is a flat snapshot of the derived geometry of a calculator, used
// for JSON responses and exported reports. Lengths are in mm, angles in rad.
type Summary struct {
	Variant          string    `json:"variant"`
	Effective        string    `json:"effective"`
	Side             int       `json:"side"`
	Mode             string    `json:"mode"`
	Module           bool      `json:"module"`
	Electrode        bool      `json:"electrode"`
	Sagging          bool      `json:"sagging"`
	NumberOfFans     int       `json:"number_of_fans"`
	NumberOfWaves    int       `json:"number_of_waves"`
	FirstFan         int       `json:"first_fan"`
	LastFan          int       `json:"last_fan"`
	ZeroGapNumber    int       `json:"zero_gap_number"`
	FanStepOnPhi     float64   `json:"fan_step_on_phi"`
	ZeroFanPhi       float64   `json:"zero_fan_phi"`
	FanFoldRadius    float64   `json:"fan_fold_radius"`
	FanHalfThickness float64   `json:"fan_half_thickness"`
	HalfWaveLength   float64   `json:"half_wave_length"`
	ActiveLength     float64   `json:"active_length"`
	ZWheelFrontFace  float64   `json:"z_front_face"`
	ZWheelBackFace   float64   `json:"z_back_face"`
	InnerRadius      []float64 `json:"inner_radius"`
	OuterRadius      []float64 `json:"outer_radius"`
	SlantUseDefault  bool      `json:"slant_use_default"`
	SlantParameters  []float64 `json:"slant_parameters"`
}

// Summary returns the derived geometry of the calculator.
func (c *Calculator) Summary() Summary {
	inner, _ := c.WheelInnerRadius()
	return Summary{
		Variant:          c.requested.String(),
		Effective:        c.typ.String(),
		Side:             c.side,
		Mode:             c.mode.String(),
		Module:           c.isModule,
		Electrode:        c.isElectrode,
		Sagging:          c.IsSaggingOn(),
		NumberOfFans:     c.numberOfFans,
		NumberOfWaves:    c.numberOfWaves,
		FirstFan:         c.firstFan,
		LastFan:          c.lastFan,
		ZeroGapNumber:    c.zeroGapNumber,
		FanStepOnPhi:     c.fanStepOnPhi,
		ZeroFanPhi:       c.zeroFanPhi,
		FanFoldRadius:    c.fanFoldRadius,
		FanHalfThickness: c.fanHalfThickness,
		HalfWaveLength:   c.halfWaveLength,
		ActiveLength:     c.params.ActiveLength,
		ZWheelFrontFace:  c.zWheelFrontFace,
		ZWheelBackFace:   c.zWheelBackFace,
		InnerRadius:      inner,
		OuterRadius:      c.WheelOuterRadius(),
		SlantUseDefault:  c.slantUseDefault,
		SlantParameters:  append([]float64(nil), c.slant[:]...),
	}
}
