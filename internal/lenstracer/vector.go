package lenstracer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Real = float64

// Vector3 is used both for points and directions.
type Vector3 = mgl64.Vec3

// unit returns a unit-length copy of v, or v unchanged when it is (near) zero.
func unit(v Vector3) Vector3 {
	l := v.Len()
	if l < parEps {
		return v
	}
	return v.Mul(1 / l)
}

func isFinite(x Real) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

// orthonormal returns two unit vectors spanning the plane orthogonal to unit d.
func orthonormal(d Vector3) (u, v Vector3) {
	e := Vector3{1, 0, 0}
	if math.Abs(d.X()) > 0.9 {
		e = Vector3{0, 1, 0}
	}
	u = unit(e.Sub(d.Mul(e.Dot(d))))
	v = d.Cross(u)
	return u, v
}

// RGB stores linear color components, nominally in [0,1].
type RGB struct {
	R Real `json:"r"`
	G Real `json:"g"`
	B Real `json:"b"`
}

func (c RGB) Add(o RGB) RGB    { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c RGB) Sub(o RGB) RGB    { return RGB{c.R - o.R, c.G - o.G, c.B - o.B} }
func (c RGB) Mul(o RGB) RGB    { return RGB{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c RGB) Scale(s Real) RGB { return RGB{c.R * s, c.G * s, c.B * s} }
func (c RGB) Luminance() Real  { return 0.299*c.R + 0.587*c.G + 0.114*c.B }
func (c RGB) IsBlack() bool    { return c.R == 0 && c.G == 0 && c.B == 0 }
func (c RGB) Div(s Real) RGB   { return RGB{c.R / s, c.G / s, c.B / s} }

// clamp01 clamps each channel to [0,1].
func (c RGB) clamp01() RGB {
	cl := func(x Real) Real {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	}
	return RGB{cl(c.R), cl(c.G), cl(c.B)}
}
