package lenstracer

import "math"

// Shader evaluates local illumination against the scene lights.
type Shader struct {
	Scene   *Scene
	Ambient RGB    // global ambient light
	Stats   *Stats // optional
}

// Phong shades a hit seen from viewOrigin. With castShadows, each light is
// tested with a shadow ray bounded by the light distance: an opaque blocker
// removes that light, transmissive blockers tint and dim it.
func (s *Shader) Phong(h Hit, viewOrigin Vector3, castShadows bool) RGB {
	m := &h.Tri.Material
	N := h.Normal()
	V := unit(viewOrigin.Sub(h.Point))
	if N.Dot(V) < 0 {
		N = N.Mul(-1)
	}

	var sum RGB
	for _, L := range s.Scene.Lights {
		toL := L.Position.Sub(h.Point)
		dist := toL.Len()
		if dist < parEps {
			continue
		}
		Ld := toL.Mul(1 / dist)
		light := L.Color
		if castShadows {
			var lit bool
			if light, lit = s.shadowed(h, Ld, dist, light); !lit {
				continue
			}
		}
		ndl := math.Max(0, N.Dot(Ld))
		var spec Real
		if ndl > 0 && m.Shininess > 0 {
			H := unit(Ld.Add(V))
			spec = math.Pow(math.Max(0, N.Dot(H)), m.Shininess)
		}
		sum = sum.Add(light.Mul(m.Diffuse.Scale(ndl).Add(m.Specular.Scale(spec))))
	}
	return sum.Add(m.Ambient.Mul(s.Ambient))
}

// shadowed returns the light reaching h along dir, or false when an opaque
// triangle blocks it.
func (s *Shader) shadowed(h Hit, dir Vector3, dist Real, light RGB) (RGB, bool) {
	s.Stats.add(RayShadow)
	var tint RGB
	transSum, n, blocked := 0.0, 0, false
	s.Scene.forEachHit(h.Point, dir, dist, h.Tri, func(b Hit) bool {
		bm := &b.Tri.Material
		if bm.Transmissivity <= 0 {
			blocked = true
			return false
		}
		tint = tint.Add(bm.Diffuse.Scale(bm.Transmissivity))
		transSum += bm.Transmissivity
		n++
		return true
	})
	if blocked {
		return RGB{}, false
	}
	if n == 0 {
		return light, true
	}
	avgTint := tint.Div(transSum)
	avgTrans := transSum / Real(n)
	return light.Sub(avgTint).Scale(avgTrans).Add(avgTint).Scale(avgTrans), true
}

// gouraud is the diffuse-only term at p with normal n, no shadows.
func (s *Shader) gouraud(p, n Vector3, m *Material) RGB {
	var sum RGB
	for _, L := range s.Scene.Lights {
		Ld := unit(L.Position.Sub(p))
		sum = sum.Add(L.Color.Mul(m.Diffuse.Scale(math.Max(0, n.Dot(Ld)))))
	}
	return sum.Add(m.Ambient.Mul(s.Ambient))
}

// GouraudVertex shades a vertex with its averaged normal.
func (s *Shader) GouraudVertex(v *Vertex, m *Material) RGB {
	return s.gouraud(v.Pos, v.Normal, m)
}

// GouraudTriangle shades the three corners; facet corners use the flat normal.
func (s *Shader) GouraudTriangle(t *Triangle) [3]RGB {
	var out [3]RGB
	for i := range out {
		out[i] = s.gouraud(t.V[i].Pos, t.cornerNormal(i), &t.Material)
	}
	return out
}
