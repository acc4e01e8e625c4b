package wheel

import "math"

// FanCalculator locates points relative to the fans of a wheel. Points are
// given in the wheel frame.
type FanCalculator interface {
	DistanceToTheNearestFan(p Vec3) (float64, int)
	PhiGapNumberForWheel(i int) int
	PhiGapAndSide(p Vec3) (gap, side int)
	Type() string
}

type fanKind struct {
	sagging bool
	module  bool
}

var fanFactories = map[fanKind]func(c *Calculator) FanCalculator{
	{sagging: false, module: false}: func(c *Calculator) FanCalculator { return &wheelFan{c: c, kind: "wheel"} },
	{sagging: true, module: false}:  func(c *Calculator) FanCalculator { return &wheelFan{c: c, kind: "wheel-sagging"} },
	{sagging: false, module: true}:  func(c *Calculator) FanCalculator { return &moduleFan{c: c, kind: "module"} },
	{sagging: true, module: true}:   func(c *Calculator) FanCalculator { return &moduleFan{c: c, kind: "module-sagging"} },
}

// NewFanCalculator selects the fan calculator for the sagging and module
// flags of c.
func NewFanCalculator(sagging, module bool, c *Calculator) FanCalculator {
	return fanFactories[fanKind{sagging: sagging, module: module}](c)
}

// nearestFan finds the fan whose neutral fibre is closest to p, walking
// from the nominal fan towards the side p lies on. Fans outside [lo, hi)
// are not considered when bounded.
func nearestFan(c *Calculator, p Vec3, bounded bool, lo, hi int) (float64, int) {
	x := p.X
	if c.side < 0 {
		x = -x
	}
	psi := math.Atan2(p.Y, x) - math.Pi/2
	n := int(math.Round((psi - c.zeroFanPhiNearFan) / c.fanStepOnPhi))
	if bounded {
		n = int(clamp(float64(n), float64(lo), float64(hi-1)))
	}

	dist := func(n int) float64 {
		return c.distance.DistanceToTheNeutralFibre(c.ToFanFrame(p, n), n)
	}
	d := dist(n)
	dir := 1
	if d > 0 {
		dir = -1
	}
	for i := 0; i < c.numberOfFans; i++ {
		m := n + dir
		if bounded && (m < lo || m >= hi) {
			break
		}
		dm := dist(m)
		if math.Signbit(dm) != math.Signbit(d) {
			if math.Abs(dm) < math.Abs(d) {
				n, d = m, dm
			}
			break
		}
		if math.Abs(dm) >= math.Abs(d) {
			break
		}
		n, d = m, dm
	}
	return d, n
}

// gapOf returns the gap p lies in next to fan n: gap n sits between fans
// n-1 and n, on the +x side of fan n.
func gapOf(d float64, n int) (gap, side int) {
	if d > 0 {
		return n, 1
	}
	return n + 1, -1
}

func wrap(n, size int) int {
	n %= size
	if n < 0 {
		n += size
	}
	return n
}

type wheelFan struct {
	c    *Calculator
	kind string
}

func (f *wheelFan) Type() string { return f.kind }

// DistanceToTheNearestFan returns the fan number in wheel numbering.
func (f *wheelFan) DistanceToTheNearestFan(p Vec3) (float64, int) {
	d, n := nearestFan(f.c, p, false, 0, 0)
	return d, f.c.AdjustFanNumber(wrap(n, f.c.numberOfFans))
}

func (f *wheelFan) PhiGapNumberForWheel(i int) int { return i }

func (f *wheelFan) PhiGapAndSide(p Vec3) (int, int) {
	d, n := nearestFan(f.c, p, false, 0, 0)
	gap, side := gapOf(d, n)
	return f.c.AdjustFanNumber(wrap(gap, f.c.numberOfFans)), side
}

type moduleFan struct {
	c    *Calculator
	kind string
}

func (f *moduleFan) Type() string { return f.kind }

// DistanceToTheNearestFan returns the fan number local to the module.
func (f *moduleFan) DistanceToTheNearestFan(p Vec3) (float64, int) {
	return nearestFan(f.c, p, true, f.c.firstFan, f.c.lastFan)
}

// PhiGapNumberForWheel shifts a module gap by the zero-gap number, centred
// on the module, and wraps it once into [0, NumberOfFans).
func (f *moduleFan) PhiGapNumberForWheel(i int) int {
	c := f.c
	i += c.zeroGapNumber
	i -= c.lastFan / 2
	if i < 0 {
		i += c.numberOfFans
	}
	if i >= c.numberOfFans {
		i -= c.numberOfFans
	}
	return i
}

func (f *moduleFan) PhiGapAndSide(p Vec3) (int, int) {
	d, n := nearestFan(f.c, p, true, f.c.firstFan, f.c.lastFan)
	gap, side := gapOf(d, n)
	return f.PhiGapNumberForWheel(gap), side
}
