package wheel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point in mm. In the wheel frame z runs from the front face to
// the back face along the beam; in a fan frame the fan lies along +y.
type Vec3 = r3.Vec

func rotateZ(p Vec3, angle float64) Vec3 {
	s, c := math.Sincos(angle)
	return Vec3{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c, Z: p.Z}
}

// FanAngle is the angle, from the +y axis, of the nominal plane of fan n.
func (c *Calculator) FanAngle(n int) float64 {
	return c.zeroFanPhiNearFan + float64(n)*c.fanStepOnPhi
}

// ToFanFrame rotates p from the wheel frame into the frame of fan n.
func (c *Calculator) ToFanFrame(p Vec3, n int) Vec3 {
	if c.side < 0 {
		p.X = -p.X
	}
	return rotateZ(p, -c.FanAngle(n))
}

// FromFanFrame is the inverse of ToFanFrame.
func (c *Calculator) FromFanFrame(p Vec3, n int) Vec3 {
	q := rotateZ(p, c.FanAngle(n))
	if c.side < 0 {
		q.X = -q.X
	}
	return q
}
