package lenstracer

import (
	"math"
	"sort"
)

// Light is a point light. The list is read-only while a frame renders.
type Light struct {
	Position Vector3
	Color    RGB
}

// Scene is the root of the entity forest plus the light list.
// Geometry is read-only during a frame, so workers share it freely.
type Scene struct {
	Entities []*Entity
	Lights   []Light
}

func NewScene() *Scene { return &Scene{} }

func (s *Scene) AddEntity(e *Entity) {
	e.RecomputeDerived()
	s.Entities = append(s.Entities, e)
}

func (s *Scene) AddLight(l Light) { s.Lights = append(s.Lights, l) }

// RecomputeDerived refreshes every entity; call after moving geometry.
func (s *Scene) RecomputeDerived() {
	for _, e := range s.Entities {
		e.RecomputeDerived()
	}
}

// NearestHit returns the closest triangle hit along o + t·d, skipping exclude.
func (s *Scene) NearestHit(o, d Vector3, exclude *Triangle) (Hit, bool) {
	best := Hit{T: math.Inf(1)}
	found := false
	for _, e := range s.Entities {
		if nearestInEntity(e, o, d, exclude, &best) {
			found = true
		}
	}
	if found {
		best.Point = o.Add(d.Mul(best.T))
	}
	return best, found
}

func nearestInEntity(e *Entity, o, d Vector3, exclude *Triangle, best *Hit) bool {
	if !e.Bounds.Hit(o, d) {
		return false
	}
	found := false
	for _, tri := range e.Triangles {
		if tri == exclude {
			continue
		}
		if h, ok := RayVsTriangle(o, d, tri, true); ok && h.T < best.T {
			*best = h
			found = true
		}
	}
	for _, c := range e.Children {
		if nearestInEntity(c, o, d, exclude, best) {
			found = true
		}
	}
	return found
}

// forEachHit calls fn for every hit with t < tMax until fn returns false.
// Hits are not ordered.
func (s *Scene) forEachHit(o, d Vector3, tMax Real, exclude *Triangle, fn func(Hit) bool) {
	for _, e := range s.Entities {
		if !eachInEntity(e, o, d, tMax, exclude, fn) {
			return
		}
	}
}

func eachInEntity(e *Entity, o, d Vector3, tMax Real, exclude *Triangle, fn func(Hit) bool) bool {
	if !e.Bounds.Hit(o, d) {
		return true
	}
	for _, tri := range e.Triangles {
		if tri == exclude {
			continue
		}
		if h, ok := RayVsTriangle(o, d, tri, true); ok && h.T < tMax {
			if !fn(h) {
				return false
			}
		}
	}
	for _, c := range e.Children {
		if !eachInEntity(c, o, d, tMax, exclude, fn) {
			return false
		}
	}
	return true
}

// AllHits returns every hit along the ray sorted by distance.
func (s *Scene) AllHits(o, d Vector3, exclude *Triangle) []Hit {
	var hits []Hit
	s.forEachHit(o, d, math.Inf(1), exclude, func(h Hit) bool {
		h.Point = o.Add(d.Mul(h.T))
		hits = append(hits, h)
		return true
	})
	sort.Slice(hits, func(i, j int) bool { return hits[i].T < hits[j].T })
	return hits
}
