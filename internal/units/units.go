// Package units holds the length and angle scale factors used for geometry
// parameters. Lengths are stored in millimeters and angles in radians, so a
// value read in centimeters is converted once by multiplying with Centimeter.
package units

import "math"

const (
	Millimeter = 1.0
	Centimeter = 10.0 * Millimeter
	Meter      = 1000.0 * Millimeter

	Radian = 1.0
	Degree = math.Pi / 180.0 * Radian
)

// Short aliases, handy in parameter tables.
const (
	MM  = Millimeter
	CM  = Centimeter
	M   = Meter
	Deg = Degree
	Rad = Radian
)
