package wheel

import (
	"fmt"

	"github.com/cjeanneret/emecwheel/internal/units"
)

// Layer thicknesses of the absorber sandwich and the cold contraction
// factors applied to them.
const (
	innerLeadThickness = 2.2 * units.MM
	outerLeadThickness = 1.69 * units.MM
	glueThickness      = 0.1 * units.MM
	steelThickness     = 0.2 * units.MM
	electrodeThickness = 0.275 * units.MM

	contractionFactor          = 0.997
	electrodeContractionFactor = 1.0036256
)

var halfThickness = map[Variant]float64{
	InnerAbsorberWheel:  (innerLeadThickness/2 + steelThickness + glueThickness) * contractionFactor,
	InnerAbsorberModule: (innerLeadThickness/2 + steelThickness + glueThickness) * contractionFactor,
	InnerGlueWheel:      (innerLeadThickness/2 + glueThickness) * contractionFactor,
	InnerLeadWheel:      innerLeadThickness / 2 * contractionFactor,

	OuterAbsorberWheel:  (outerLeadThickness/2 + steelThickness + glueThickness) * contractionFactor,
	OuterAbsorberModule: (outerLeadThickness/2 + steelThickness + glueThickness) * contractionFactor,
	OuterGlueWheel:      (outerLeadThickness/2 + glueThickness) * contractionFactor,
	OuterLeadWheel:      outerLeadThickness / 2 * contractionFactor,

	InnerElectrodWheel:  electrodeThickness / electrodeContractionFactor * 0.5,
	OuterElectrodWheel:  electrodeThickness / electrodeContractionFactor * 0.5,
	InnerElectrodModule: electrodeThickness / electrodeContractionFactor * 0.5,
	OuterElectrodModule: electrodeThickness / electrodeContractionFactor * 0.5,
}

// FanHalfThickness returns the half-thickness of the fan material of v.
// Barrette variants resolve to the absorber they are made of.
func FanHalfThickness(v Variant) (float64, error) {
	d, err := lookupDispatch(v)
	if err != nil {
		return 0, err
	}
	return effectiveHalfThickness(d.effective)
}

func effectiveHalfThickness(v Variant) (float64, error) {
	t, ok := halfThickness[v]
	if !ok {
		return 0, fmt.Errorf("%w: no fan half-thickness for %s", ErrUnknownVariant, v)
	}
	return t, nil
}
