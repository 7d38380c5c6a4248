package lenstracer

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Category uint8

const (
	RayPrimary     Category = iota // primary ray per pixel
	RayHit                         // ray hit a surface
	RayMiss                        // ray left the scene
	RayReflect                     // reflected ray spawned
	RayRefract                     // refracted ray spawned
	RayPassThrough                 // transmitted ray continued without bending
	RayTIR                         // total internal reflection on a transmitted branch
	RayShadow                      // shadow ray cast toward a light
	RayDepthLimit                  // recursion stopped by max depth
	RayAttenuated                  // recursion stopped by the adaptive threshold
	RayAntiAlias                   // extra jittered ray for adaptive anti-aliasing
	numCategories
)

var categoryNames = [numCategories]string{
	"primary", "hit", "miss", "reflect", "refract", "pass_through",
	"total_internal_reflection", "shadow", "depth_limit", "attenuated", "anti_alias",
}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Stats counts traced rays by category. Safe for concurrent use; a nil
// *Stats ignores updates.
type Stats struct {
	counts [numCategories]atomic.Int64
}

func (s *Stats) add(c Category) {
	if s != nil {
		s.counts[c].Add(1)
	}
}

func (s *Stats) addN(c Category, n int) {
	if s != nil && n != 0 {
		s.counts[c].Add(int64(n))
	}
}

// Count returns the current counter for c.
func (s *Stats) Count(c Category) int64 {
	if s == nil {
		return 0
	}
	return s.counts[c].Load()
}

// Snapshot copies all counters.
func (s *Stats) Snapshot() (out [numCategories]int64) {
	for i := range out {
		out[i] = s.Count(Category(i))
	}
	return
}

func (s *Stats) Reset() {
	if s == nil {
		return
	}
	for i := range s.counts {
		s.counts[i].Store(0)
	}
}

// Print writes one line per non-zero category.
func (s *Stats) Print(w io.Writer) {
	for i, n := range s.Snapshot() {
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "Ray type %s: %d\n", Category(i), n)
	}
}
