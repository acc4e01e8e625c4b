package wheel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned for a variant outside the dispatch table.
var ErrUnknownVariant = errors.New("unknown wheel variant")

// Variant identifies one physical sub-structure of an EMEC end-cap.
type Variant int

const (
	InnerAbsorberWheel Variant = iota
	OuterAbsorberWheel
	InnerElectrodWheel
	OuterElectrodWheel
	InnerAbsorberModule
	OuterAbsorberModule
	InnerElectrodModule
	OuterElectrodModule
	BackInnerBarretteWheel
	BackOuterBarretteWheel
	BackInnerBarretteWheelCalib
	BackOuterBarretteWheelCalib
	BackInnerBarretteModule
	BackOuterBarretteModule
	BackInnerBarretteModuleCalib
	BackOuterBarretteModuleCalib
	InnerGlueWheel
	OuterGlueWheel
	InnerLeadWheel
	OuterLeadWheel

	numVariants
)

var variantNames = [numVariants]string{
	"InnerAbsorberWheel",
	"OuterAbsorberWheel",
	"InnerElectrodWheel",
	"OuterElectrodWheel",
	"InnerAbsorberModule",
	"OuterAbsorberModule",
	"InnerElectrodModule",
	"OuterElectrodModule",
	"BackInnerBarretteWheel",
	"BackOuterBarretteWheel",
	"BackInnerBarretteWheelCalib",
	"BackOuterBarretteWheelCalib",
	"BackInnerBarretteModule",
	"BackOuterBarretteModule",
	"BackInnerBarretteModuleCalib",
	"BackOuterBarretteModuleCalib",
	"InnerGlueWheel",
	"OuterGlueWheel",
	"InnerLeadWheel",
	"OuterLeadWheel",
}

func (v Variant) String() string {
	if v < 0 || v >= numVariants {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Valid reports whether v is one of the enumerated variants.
func (v Variant) Valid() bool {
	return v >= 0 && v < numVariants
}

// ParseVariant accepts the variant name, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if strings.EqualFold(name, s) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Variants lists every variant in enumeration order.
func Variants() []Variant {
	out := make([]Variant, numVariants)
	for i := range out {
		out[i] = Variant(i)
	}
	return out
}

// Mode is the base geometry a variant is built on.
type Mode int

const (
	InnerWheelMode Mode = iota
	OuterWheelMode
)

func (m Mode) String() string {
	if m == InnerWheelMode {
		return "inner"
	}
	return "outer"
}

// dispatchEntry describes how a variant is initialized. Barrette variants
// carry the absorber variant they are built as in effective.
type dispatchEntry struct {
	mode          Mode
	effective     Variant
	electrode     bool
	module        bool
	barrette      bool
	barretteCalib bool
}

var dispatch = [numVariants]dispatchEntry{
	InnerAbsorberWheel:  {mode: InnerWheelMode, effective: InnerAbsorberWheel},
	OuterAbsorberWheel:  {mode: OuterWheelMode, effective: OuterAbsorberWheel},
	InnerElectrodWheel:  {mode: InnerWheelMode, effective: InnerElectrodWheel, electrode: true},
	OuterElectrodWheel:  {mode: OuterWheelMode, effective: OuterElectrodWheel, electrode: true},
	InnerAbsorberModule: {mode: InnerWheelMode, effective: InnerAbsorberModule, module: true},
	OuterAbsorberModule: {mode: OuterWheelMode, effective: OuterAbsorberModule, module: true},
	InnerElectrodModule: {mode: InnerWheelMode, effective: InnerElectrodModule, module: true, electrode: true},
	OuterElectrodModule: {mode: OuterWheelMode, effective: OuterElectrodModule, module: true, electrode: true},

	BackInnerBarretteWheel:       {mode: InnerWheelMode, effective: InnerAbsorberWheel, barrette: true},
	BackOuterBarretteWheel:       {mode: OuterWheelMode, effective: OuterAbsorberWheel, barrette: true},
	BackInnerBarretteWheelCalib:  {mode: InnerWheelMode, effective: InnerAbsorberWheel, barrette: true, barretteCalib: true},
	BackOuterBarretteWheelCalib:  {mode: OuterWheelMode, effective: OuterAbsorberWheel, barrette: true, barretteCalib: true},
	BackInnerBarretteModule:      {mode: InnerWheelMode, effective: InnerAbsorberModule, module: true, barrette: true},
	BackOuterBarretteModule:      {mode: OuterWheelMode, effective: OuterAbsorberModule, module: true, barrette: true},
	BackInnerBarretteModuleCalib: {mode: InnerWheelMode, effective: InnerAbsorberModule, module: true, barrette: true, barretteCalib: true},
	BackOuterBarretteModuleCalib: {mode: OuterWheelMode, effective: OuterAbsorberModule, module: true, barrette: true, barretteCalib: true},

	InnerGlueWheel: {mode: InnerWheelMode, effective: InnerGlueWheel},
	OuterGlueWheel: {mode: OuterWheelMode, effective: OuterGlueWheel},
	InnerLeadWheel: {mode: InnerWheelMode, effective: InnerLeadWheel},
	OuterLeadWheel: {mode: OuterWheelMode, effective: OuterLeadWheel},
}

func lookupDispatch(v Variant) (dispatchEntry, error) {
	if !v.Valid() {
		return dispatchEntry{}, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return dispatch[v], nil
}
