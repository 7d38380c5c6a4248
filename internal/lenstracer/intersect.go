package lenstracer

import "math"

// Hit describes a ray/triangle intersection. U and V are the barycentric
// weights of Tri.V[1] and Tri.V[2]; Point is left zero by test-only queries.
type Hit struct {
	T     Real
	U, V  Real
	Point Vector3
	Tri   *Triangle
}

// Normal returns the facet-aware, barycentrically interpolated unit normal.
func (h Hit) Normal() Vector3 {
	t := h.Tri
	w := 1 - h.U - h.V
	n := t.cornerNormal(0).Mul(w).
		Add(t.cornerNormal(1).Mul(h.U)).
		Add(t.cornerNormal(2).Mul(h.V))
	if n.Len() < parEps {
		return t.Normal
	}
	return unit(n)
}

// RayVsTriangle is a Möller–Trumbore test using the precomputed edges.
// Hits at t ≤ 1e-5 are rejected so a ray leaving a surface does not hit it again.
func RayVsTriangle(o, d Vector3, tri *Triangle, testOnly bool) (Hit, bool) {
	p := d.Cross(tri.Edge2)
	det := tri.Edge1.Dot(p)
	if math.Abs(det) < detEps {
		return Hit{}, false
	}
	inv := 1 / det
	s := o.Sub(tri.V[0].Pos)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return Hit{}, false
	}
	q := s.Cross(tri.Edge1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}
	t := tri.Edge2.Dot(q) * inv
	if t <= triEps || !isFinite(t) {
		return Hit{}, false
	}
	h := Hit{T: t, U: u, V: v, Tri: tri}
	if !testOnly {
		h.Point = o.Add(d.Mul(t))
	}
	return h, true
}
