package lenstracer

import "math"

// reflect3 mirrors I about unit N.
func reflect3(I, N Vector3) Vector3 {
	return I.Sub(N.Mul(2 * I.Dot(N)))
}

// Refraction with side awareness.
// Contract: eta must be n1/n2 for the *current* interface:
//   - outside → inside : eta = 1/ior
//   - inside  → outside: eta = ior
//
// I and N must be unit; N may face either way.
func refract3(I, N Vector3, eta Real) (Vector3, bool) {
	n := N
	cosi := I.Dot(N)
	if cosi > 0 {
		n = N.Mul(-1)
	} else {
		cosi = -cosi
	}
	if cosi > 1 {
		cosi = 1
	}
	k := 1 - eta*eta*(1-cosi*cosi)
	if k < 0 {
		return Vector3{}, false // total internal reflection
	}
	return I.Mul(eta).Add(n.Mul(eta*cosi - math.Sqrt(k))), true
}

// Reflect returns the unit mirror direction of incident about the hit normal.
func Reflect(incident Vector3, h Hit) Vector3 {
	return unit(reflect3(unit(incident), h.Normal()))
}

// Refract bends incident through the hit surface using the triangle's IOR.
// entering selects 1/ior (into the medium) or ior (out of it). IOR 1 passes
// the ray through unchanged. The second result is false on total internal
// reflection, where the mirrored direction is returned and the ray stays on
// its side of the surface.
func Refract(incident Vector3, h Hit, entering bool) (Vector3, bool) {
	I := unit(incident)
	ior := h.Tri.IOR
	if ior == 1 || ior <= 0 {
		return I, true
	}
	eta := ior
	if entering {
		eta = 1 / ior
	}
	N := h.Normal()
	if T, ok := refract3(I, N, eta); ok {
		return unit(T), true
	}
	return Reflect(I, h), false
}
