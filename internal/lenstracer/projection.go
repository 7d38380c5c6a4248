package lenstracer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lukaszgryglicki/lenstracer/internal/equation"
)

// Curve is a lens profile z = f(r), valid for r in [0, Limit].
type Curve struct {
	Text    string
	Program equation.Program
	Limit   Real
}

// CompileCurve compiles the profile text.
func CompileCurve(text string, limit Real) (Curve, error) {
	if !(limit > 0) {
		return Curve{}, fmt.Errorf("curve limit must be > 0, got %g", limit)
	}
	p, err := equation.Compile(text)
	if err != nil {
		return Curve{}, fmt.Errorf("curve %q: %w", text, err)
	}
	return Curve{Text: text, Program: p, Limit: limit}, nil
}

// Eval evaluates the curve. Non-finite results are clamped to ±CurveHuge so
// the root finder keeps working across poles.
func (c Curve) Eval(r Real) (Real, error) {
	v, err := equation.Execute(c.Program, r)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(v), math.IsInf(v, 1):
		return CurveHuge, nil
	case math.IsInf(v, -1):
		return -CurveHuge, nil
	}
	return v, nil
}

// TableEntry is the resolved curve point for one quantized view angle.
type TableEntry struct {
	Radius Real
	Height Real
}

// Table maps view elevation (degrees, 90 = straight ahead along +Z,
// -90 = straight back) to the point where the view line meets the curve.
// Index = Resolution·(90 − angle).
type Table struct {
	Curve      Curve
	Resolution int
	entries    []TableEntry
	slope      Real // tangent slope at Limit
	lastValid  int  // last index whose radius is inside the curve limit
}

var errResolution = errors.New("curve table resolution must be > 0")

// BuildTable inverts the curve for every quantized angle by bisection.
// Beyond the curve's valid radius it stores the intersection with the
// tangent line through the last two samples at the limit.
func BuildTable(c Curve, resolution int) (*Table, error) {
	if resolution <= 0 {
		return nil, errResolution
	}
	if !(c.Limit > 0) {
		return nil, fmt.Errorf("curve limit must be > 0, got %g", c.Limit)
	}
	n := 180*resolution + 1
	t := &Table{Curve: c, Resolution: resolution, entries: make([]TableEntry, n)}

	f0, err := c.Eval(0)
	if err != nil {
		return nil, fmt.Errorf("curve at 0: %w", err)
	}
	fL, err := c.Eval(c.Limit)
	if err != nil {
		return nil, fmt.Errorf("curve at limit: %w", err)
	}
	delta := c.Limit / 1000
	fPrev, err := c.Eval(c.Limit - delta)
	if err != nil {
		return nil, fmt.Errorf("curve near limit: %w", err)
	}
	t.slope = (fL - fPrev) / delta

	t.entries[0] = TableEntry{Radius: 0, Height: f0}
	t.entries[n-1] = TableEntry{Radius: CurveHuge, Height: -CurveHuge}
	for i := 1; i < n-1; i++ {
		angle := 90 - Real(i)/Real(resolution)
		m := math.Tan(angle * math.Pi / 180)
		r, found, err := t.bisect(m, f0, fL)
		if err != nil {
			return nil, fmt.Errorf("curve inversion at %.4g°: %w", angle, err)
		}
		if !found {
			r = t.tangentRadius(m, fL)
		}
		t.entries[i] = TableEntry{Radius: r, Height: m * r}
	}
	t.lastValid = 0
	for i := 1; i < n && t.entries[i].Radius < c.Limit; i++ {
		t.lastValid = i
	}
	DebugLog("Built curve table %q: limit=%g resolution=%d entries=%d lastValid=%d slope=%g", c.Text, c.Limit, resolution, n, t.lastValid, t.slope)
	return t, nil
}

// bisect solves f(r) − m·r = 0 on [0, Limit].
func (t *Table) bisect(m, f0, fL Real) (Real, bool, error) {
	lo, hi := 0.0, t.Curve.Limit
	gLo, gHi := f0, fL-m*hi
	if gLo == 0 {
		return 0, true, nil
	}
	if gHi == 0 {
		return hi, true, nil
	}
	if (gLo > 0) == (gHi > 0) {
		return 0, false, nil
	}
	for it := 0; it < bisectIters && hi-lo > bisectTol; it++ {
		mid := 0.5 * (lo + hi)
		f, err := t.Curve.Eval(mid)
		if err != nil {
			return 0, false, err
		}
		g := f - m*mid
		if g == 0 {
			return mid, true, nil
		}
		if (g > 0) == (gLo > 0) {
			lo, gLo = mid, g
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), true, nil
}

// tangentRadius intersects the view line z = m·r with the tangent
// z = f(L) + s·(r − L). Lines that never meet beyond the limit map to CurveHuge.
func (t *Table) tangentRadius(m, fL Real) Real {
	L, s := t.Curve.Limit, t.slope
	den := m - s
	if math.Abs(den) < parEps {
		return CurveHuge
	}
	r := (fL - s*L) / den
	if !isFinite(r) || r < L || r > CurveHuge {
		return CurveHuge
	}
	return r
}

// Len is the number of entries (180·Resolution + 1).
func (t *Table) Len() int { return len(t.entries) }

// Entry returns the i-th entry.
func (t *Table) Entry(i int) TableEntry { return t.entries[i] }

// Index quantizes an elevation angle in degrees to a table index.
func (t *Table) Index(angleDeg Real) int {
	i := int(math.Round(Real(t.Resolution) * (90 - angleDeg)))
	if i < 0 {
		return 0
	}
	if i >= len(t.entries) {
		return len(t.entries) - 1
	}
	return i
}

// Lookup returns the entry for an elevation angle in degrees.
func (t *Table) Lookup(angleDeg Real) TableEntry { return t.entries[t.Index(angleDeg)] }

// Projection is a point mapped to lens-plane coordinates.
type Projection struct {
	X, Y   Real
	Depth  Real // 2·|p|
	Radius Real // looked-up curve radius
}

// Project maps a camera-space point to the lens plane. The caller must test
// Visible before using X and Y.
func (t *Table) Project(p Vector3) Projection {
	x, y, z := p.X(), p.Y(), p.Z()
	R := math.Hypot(x, y)
	pr := Projection{Depth: 2 * p.Len()}
	if R < parEps {
		angle := 90.0
		if z < 0 {
			angle = -90
		}
		pr.Radius = t.Lookup(angle).Radius
		return pr
	}
	angle := math.Atan(z/R) * 180 / math.Pi
	e := t.Lookup(angle)
	s := e.Radius / R
	pr.X, pr.Y, pr.Radius = x*s, y*s, e.Radius
	return pr
}

// ProjectOffset is Project for a projector whose optical center sits at
// distance d from the eye along the axis. d = 0 is Project.
func (t *Table) ProjectOffset(p Vector3, d Real) Projection {
	pr := t.Project(p)
	if d == 0 {
		return pr
	}
	if den := p.Z() - d; math.Abs(den) > parEps {
		k := math.Abs(d / den)
		pr.X *= k
		pr.Y *= k
	}
	return pr
}

// Visible reports whether a projection lands inside the curve's valid radius.
func (t *Table) Visible(pr Projection) bool { return pr.Radius < t.Curve.Limit }

// Unproject turns a lens-plane point into a unit camera-space view
// direction. Points at or beyond the curve limit have no ray.
func (t *Table) Unproject(px, py Real) (Vector3, bool) {
	rho := math.Hypot(px, py)
	if rho >= t.Curve.Limit {
		return Vector3{}, false
	}
	if rho < parEps {
		return Vector3{0, 0, 1}, true
	}
	// radii are non-decreasing over [0, lastValid]
	i := sort.Search(t.lastValid+1, func(i int) bool { return t.entries[i].Radius > rho }) - 1
	if i < 0 {
		i = 0
	}
	frac := 0.0
	if i+1 < len(t.entries) {
		r0, r1 := t.entries[i].Radius, t.entries[i+1].Radius
		if r1 > r0 {
			frac = (rho - r0) / (r1 - r0)
		}
	}
	angle := (90 - (Real(i)+frac)/Real(t.Resolution)) * math.Pi / 180
	c := math.Cos(angle)
	return Vector3{px / rho * c, py / rho * c, math.Sin(angle)}, true
}
