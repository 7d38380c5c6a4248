package lenstracer

import "math"

// Box face order: top, bottom, right, left, back, front.
const (
	FaceTop = iota
	FaceBottom
	FaceRight
	FaceLeft
	FaceBack
	FaceFront
)

// Box is an axis-aligned bounding volume. Corners holds the 8 vertices;
// Normals/Points describe the 6 faces as (outward normal, point on face).
type Box struct {
	Min, Max Vector3
	Corners  [8]Vector3
	Normals  [6]Vector3
	Points   [6]Vector3
}

func newBox(minP, maxP Vector3) Box {
	// pad so flat geometry still has a usable slab
	pad := 1e-9 + 1e-7*maxP.Sub(minP).Len()
	minP = minP.Sub(Vector3{pad, pad, pad})
	maxP = maxP.Add(Vector3{pad, pad, pad})

	b := Box{Min: minP, Max: maxP}
	for i := 0; i < 8; i++ {
		c := minP
		if i&1 != 0 {
			c[0] = maxP[0]
		}
		if i&2 != 0 {
			c[1] = maxP[1]
		}
		if i&4 != 0 {
			c[2] = maxP[2]
		}
		b.Corners[i] = c
	}
	b.Normals = [6]Vector3{{0, 1, 0}, {0, -1, 0}, {1, 0, 0}, {-1, 0, 0}, {0, 0, 1}, {0, 0, -1}}
	b.Points = [6]Vector3{b.Corners[7], b.Corners[0], b.Corners[7], b.Corners[0], b.Corners[7], b.Corners[0]}
	return b
}

// Hit reports whether the ray o + t·d (t ≥ 0) touches the box.
func (b *Box) Hit(o, d Vector3) bool {
	return RayVsAABB(o, d, &b.Normals, &b.Points)
}

// RayVsAABB is a slab test over the three pairs of opposite faces
// (0,1), (2,3), (4,5). A ray parallel to a pair hits only if its origin lies
// between the two planes.
func RayVsAABB(o, d Vector3, normals, points *[6]Vector3) bool {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for k := 0; k < 6; k += 2 {
		n := normals[k]
		sNear := n.Dot(points[k].Sub(o))
		sFar := n.Dot(points[k+1].Sub(o))
		den := n.Dot(d)
		if math.Abs(den) < parEps {
			if sNear < 0 || sFar > 0 {
				return false
			}
			continue
		}
		t1, t2 := sNear/den, sFar/den
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return tmax >= 0
}
